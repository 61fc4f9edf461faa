package state

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/justyntemme/plugkit/pkg/framework/param"
)

type yamlDocument struct {
	Version int        `yaml:"version"`
	Plugin  string     `yaml:"plugin,omitempty"`
	Params  *yaml.Node `yaml:"params"`
	Extra   string     `yaml:"extra,omitempty"`
}

// EncodeYAML renders doc as a human-editable preset. Extra is base64 encoded.
func EncodeYAML(doc Document) ([]byte, error) {
	params := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, kv := range doc.Params {
		params.Content = append(params.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kv.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(kv.Value, 'g', -1, 64)},
		)
	}

	out := yamlDocument{
		Version: doc.Version,
		Plugin:  doc.Plugin,
		Params:  params,
	}
	if len(doc.Extra) > 0 {
		out.Extra = base64.StdEncoding.EncodeToString(doc.Extra)
	}

	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode preset: %w", err)
	}
	return data, nil
}

// DecodeYAML parses a YAML preset with the same best-effort rules as Decode.
func DecodeYAML(data []byte) (Document, LoadReport) {
	var doc Document
	var rep LoadReport

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		rep.addError("", "malformed document: %v", err)
		return doc, rep
	}
	if len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		rep.addError("", "document is not a mapping")
		return doc, rep
	}

	top := root.Content[0]
	seenParams := false
	for i := 0; i+1 < len(top.Content); i += 2 {
		key, value := top.Content[i].Value, top.Content[i+1]
		switch key {
		case "version":
			if err := value.Decode(&doc.Version); err != nil {
				rep.addError("version", "not an integer")
			}
		case "plugin":
			if err := value.Decode(&doc.Plugin); err != nil {
				rep.addError("plugin", "not a string")
			}
		case "params":
			seenParams = true
			doc.Params = decodeYAMLParams(value, &rep)
		case "extra":
			var s string
			if err := value.Decode(&s); err != nil {
				rep.addError("extra", "not a string")
				continue
			}
			extra, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				rep.addError("extra", "not base64: %v", err)
				continue
			}
			doc.Extra = extra
		}
	}
	checkVersion(doc.Version, &rep)
	if !seenParams {
		rep.addError("params", "missing")
	}
	return doc, rep
}

func decodeYAMLParams(node *yaml.Node, rep *LoadReport) []param.KeyValue {
	if node.Kind != yaml.MappingNode {
		rep.addError("params", "not a mapping")
		return nil
	}
	out := make([]param.KeyValue, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var f float64
		if err := node.Content[i+1].Decode(&f); err != nil {
			rep.addError(key, "not a number: %s", node.Content[i+1].Value)
			continue
		}
		out = append(out, param.KeyValue{Key: key, Value: f})
	}
	return out
}
