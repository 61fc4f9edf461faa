package state

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Format selects a session encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
	FormatBinary
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatBinary:
		return "binary"
	}
	return "unknown"
}

// FormatFor picks the format from a file extension; unknown extensions are JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".bin", ".state":
		return FormatBinary
	}
	return FormatJSON
}

// Detect guesses the format of an in-memory session.
func Detect(data []byte) Format {
	if bytes.HasPrefix(data, magic) {
		return FormatBinary
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSON
	}
	return FormatYAML
}

// Marshal encodes doc in format f.
func Marshal(doc Document, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return EncodeYAML(doc)
	case FormatBinary:
		var buf bytes.Buffer
		if err := EncodeBinary(&buf, doc); err != nil {
			return nil, fmt.Errorf("encode binary state: %w", err)
		}
		return buf.Bytes(), nil
	}
	return Encode(doc)
}

// Unmarshal decodes data in format f.
func Unmarshal(data []byte, f Format) (Document, LoadReport) {
	switch f {
	case FormatYAML:
		return DecodeYAML(data)
	case FormatBinary:
		return DecodeBinary(data)
	}
	return Decode(data)
}

// SaveFile writes doc to path in the format its extension implies. The file
// is written next to its destination and renamed into place.
func SaveFile(path string, doc Document) error {
	data, err := Marshal(doc, FormatFor(path))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadFile reads a session from path. Only an unreadable file is an error;
// decoding problems are reported in the LoadReport.
func LoadFile(path string) (Document, LoadReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, LoadReport{}, fmt.Errorf("load session: %w", err)
	}
	doc, rep := Unmarshal(data, FormatFor(path))
	return doc, rep, nil
}
