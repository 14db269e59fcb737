package orderedmap

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeYAMLNode walks a parsed yaml.Node tree into plain Go values, using *Map
// in place of Go's unordered map[string]any wherever the source was a mapping.
// Document and alias nodes are resolved transparently.
func DecodeYAMLNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return New(), nil
		}

		return DecodeYAMLNode(node.Content[0])

	case yaml.AliasNode:
		return DecodeYAMLNode(node.Alias)

	case yaml.MappingNode:
		m := New()

		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]

			val, err := DecodeYAMLNode(valNode)
			if err != nil {
				return nil, fmt.Errorf("decode value for key %q: %w", keyNode.Value, err)
			}

			m.Set(keyNode.Value, val)
		}

		return m, nil

	case yaml.SequenceNode:
		seq := make([]any, 0, len(node.Content))

		for _, c := range node.Content {
			v, err := DecodeYAMLNode(c)
			if err != nil {
				return nil, err
			}

			seq = append(seq, v)
		}

		return seq, nil

	case yaml.ScalarNode:
		var v any

		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode scalar %q: %w", node.Value, err)
		}

		return v, nil

	default:
		return nil, fmt.Errorf("unsupported yaml node kind %d", node.Kind)
	}
}

// EncodeYAMLNode is the inverse of DecodeYAMLNode: it renders a *Map (or any
// nested combination of *Map/[]any/scalars) back into a yaml.Node tree with
// key order preserved.
func EncodeYAMLNode(v any) (*yaml.Node, error) {
	switch val := v.(type) {
	case *Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

		for _, k := range val.Keys() {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}

			fieldVal, _ := val.Get(k)

			valNode, err := EncodeYAMLNode(fieldVal)
			if err != nil {
				return nil, fmt.Errorf("encode value for key %q: %w", k, err)
			}

			node.Content = append(node.Content, keyNode, valNode)
		}

		return node, nil

	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}

		for i, item := range val {
			itemNode, err := EncodeYAMLNode(item)
			if err != nil {
				return nil, fmt.Errorf("encode sequence item %d: %w", i, err)
			}

			node.Content = append(node.Content, itemNode)
		}

		return node, nil

	default:
		var node yaml.Node

		if err := node.Encode(v); err != nil {
			return nil, fmt.Errorf("encode scalar: %w", err)
		}

		return &node, nil
	}
}
