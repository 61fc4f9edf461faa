package state

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/justyntemme/plugkit/pkg/framework/param"
)

// magic starts every binary state blob.
var magic = []byte("PLUGKIT\x00")

// EncodeBinary writes doc in the compact form host ABIs store inside their
// own session files: magic, version, plugin id, then length-prefixed keys
// with float64 values, then the extra blob.
func EncodeBinary(w io.Writer, doc Document) error {
	if _, err := w.Write(magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(doc.Version)); err != nil {
		return err
	}
	if err := writeString(w, doc.Plugin); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(doc.Params))); err != nil {
		return err
	}

	for _, kv := range doc.Params {
		if err := writeString(w, kv.Key); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, kv.Value); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(len(doc.Extra))); err != nil {
		return err
	}
	_, err := w.Write(doc.Extra)
	return err
}

// DecodeBinary reads a blob written by EncodeBinary. A truncated blob keeps
// the parameters read before the damage.
func DecodeBinary(data []byte) (Document, LoadReport) {
	var doc Document
	var rep LoadReport
	r := bytes.NewReader(data)

	header := make([]byte, len(magic))
	if _, err := io.ReadFull(r, header); err != nil || !bytes.Equal(header, magic) {
		rep.addError("", "invalid state format")
		return doc, rep
	}

	var version, count uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		rep.addError("version", "truncated")
		return doc, rep
	}
	doc.Version = int(version)
	checkVersion(doc.Version, &rep)

	plugin, err := readString(r)
	if err != nil {
		rep.addError("plugin", "truncated")
		return doc, rep
	}
	doc.Plugin = plugin

	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		rep.addError("params", "truncated")
		return doc, rep
	}

	for i := uint32(0); i < count; i++ {
		kv, err := readParam(r)
		if err != nil {
			rep.addError("params", "truncated after %d of %d values", i, count)
			return doc, rep
		}
		doc.Params = append(doc.Params, kv)
	}

	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		rep.addError("extra", "truncated")
		return doc, rep
	}
	if int64(n) > int64(r.Len()) {
		rep.addError("extra", "length %d exceeds remaining %d bytes", n, r.Len())
		return doc, rep
	}
	doc.Extra = make([]byte, n)
	_, _ = io.ReadFull(r, doc.Extra)
	return doc, rep
}

func readParam(r *bytes.Reader) (param.KeyValue, error) {
	key, err := readString(r)
	if err != nil {
		return param.KeyValue{}, err
	}
	var value float64
	if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
		return param.KeyValue{}, err
	}
	return param.KeyValue{Key: key, Value: value}, nil
}

func writeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("string %.16q... too long", s)
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	if int(n) > r.Len() {
		return "", errors.New("string length exceeds data")
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
