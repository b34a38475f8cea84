package loader

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLCodec reads and writes YAML documents. Entries keep their exact
// order and comments become head comments on their keys.
type YAMLCodec struct{}

// Name implements Codec.
func (YAMLCodec) Name() string { return "yaml" }

// Decode implements Codec.
func (YAMLCodec) Decode(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Message: err.Error(), Err: err}
	}
	if doc == nil {
		doc = make(Document)
	}
	return doc, nil
}

// Encode implements Codec.
func (YAMLCodec) Encode(entries []*Entry) ([]byte, error) {
	root, err := yamlMapping(entries)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yamlMapping(entries []*Entry) (*yaml.Node, error) {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range entries {
		key := &yaml.Node{
			Kind:        yaml.ScalarNode,
			Tag:         "!!str",
			Value:       e.Key,
			HeadComment: e.Comment,
		}

		var value *yaml.Node
		if e.IsGroup() {
			sub, err := yamlMapping(e.Children)
			if err != nil {
				return nil, err
			}
			value = sub
		} else {
			value = &yaml.Node{}
			if err := value.Encode(e.Value); err != nil {
				return nil, fmt.Errorf("encoding %s: %w", e.Key, err)
			}
			if value.Kind == yaml.SequenceNode && scalarsOnly(value) {
				value.Style = yaml.FlowStyle
			}
		}
		m.Content = append(m.Content, key, value)
	}
	return m, nil
}

func scalarsOnly(n *yaml.Node) bool {
	for _, c := range n.Content {
		if c.Kind != yaml.ScalarNode {
			return false
		}
	}
	return true
}
