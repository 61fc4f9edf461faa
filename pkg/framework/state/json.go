package state

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/justyntemme/plugkit/pkg/framework/param"
)

type jsonDocument struct {
	Version int           `json:"version"`
	Plugin  string        `json:"plugin,omitempty"`
	Params  orderedParams `json:"params"`
	Extra   []byte        `json:"extra,omitempty"`
}

// orderedParams marshals as a JSON object with keys in declaration order.
type orderedParams []param.KeyValue

func (p orderedParams) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", kv.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Encode renders doc as indented JSON. Extra is base64 encoded.
func Encode(doc Document) ([]byte, error) {
	out, err := json.MarshalIndent(jsonDocument{
		Version: doc.Version,
		Plugin:  doc.Plugin,
		Params:  orderedParams(doc.Params),
		Extra:   doc.Extra,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return out, nil
}

// Decode parses a JSON session. It never fails: whatever cannot be read is
// reported and left out of the document.
func Decode(data []byte) (Document, LoadReport) {
	var doc Document
	var rep LoadReport

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		rep.addError("", "malformed document: %v", err)
		return doc, rep
	}

	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &doc.Version); err != nil {
			rep.addError("version", "not an integer")
		}
	}
	checkVersion(doc.Version, &rep)

	if v, ok := raw["plugin"]; ok {
		if err := json.Unmarshal(v, &doc.Plugin); err != nil {
			rep.addError("plugin", "not a string")
		}
	}

	if v, ok := raw["params"]; ok {
		doc.Params = decodeJSONParams(v, &rep)
	} else {
		rep.addError("params", "missing")
	}

	if v, ok := raw["extra"]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		if err := json.Unmarshal(v, &doc.Extra); err != nil {
			rep.addError("extra", "not base64: %v", err)
		}
	}
	return doc, rep
}

// decodeJSONParams walks the params object token by token to keep key order
// and to survive individual bad values.
func decodeJSONParams(data json.RawMessage, rep *LoadReport) []param.KeyValue {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		rep.addError("params", "not an object")
		return nil
	}

	var out []param.KeyValue
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			rep.addError("params", "truncated: %v", err)
			return out
		}
		key, _ := tok.(string)

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			rep.addError(key, "unreadable value: %v", err)
			return out
		}
		var f float64
		if bytes.Equal(value, []byte("null")) || json.Unmarshal(value, &f) != nil {
			rep.addError(key, "not a number: %s", value)
			continue
		}
		out = append(out, param.KeyValue{Key: key, Value: f})
	}
	return out
}
