package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pulse/internal/ir"
)

type yamlNetwork struct {
	Nodes []yamlNode `yaml:"nodes"`
}

type yamlNode struct {
	ID           string   `yaml:"id"`
	Kind         string   `yaml:"kind"`
	Destinations []string `yaml:"destinations"`
	Line         int      `yaml:"-"`
}

// UnmarshalYAML captures the source line of each node for error messages.
// Node.Decode does not inherit the decoder's KnownFields setting, so field
// names are checked here.
func (n *yamlNode) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(value.Content); i += 2 {
			switch key := value.Content[i]; key.Value {
			case "id", "kind", "destinations":
			default:
				return fmt.Errorf("line %d: field %s not found in node", key.Line, key.Value)
			}
		}
	}
	type plain yamlNode
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = yamlNode(p)
	n.Line = value.Line
	return nil
}

// ParseYAML parses a YAML network description. Unknown fields are rejected.
func ParseYAML(src []byte) ([]ir.NodeDecl, error) {
	var doc yamlNetwork
	decoder := yaml.NewDecoder(bytes.NewReader(src))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CompileError{Field: "nodes", Message: "empty document"}
		}
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}

	decls := make([]ir.NodeDecl, 0, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if n.ID == "" {
			return nil, &CompileError{Field: "id", Message: "node id is required", Line: n.Line}
		}
		kind, err := ir.ParseKind(n.Kind)
		if err != nil {
			return nil, &CompileError{Field: "kind", Message: fmt.Sprintf("node %q: %v", n.ID, err), Line: n.Line}
		}
		d := ir.NodeDecl{ID: ir.NodeID(n.ID), Kind: kind}
		for _, dst := range n.Destinations {
			d.Destinations = append(d.Destinations, ir.NodeID(dst))
		}
		decls = append(decls, d)
	}
	return decls, nil
}

// RenderYAML renders declarations as a YAML network description.
func RenderYAML(decls []ir.NodeDecl) ([]byte, error) {
	doc := yamlNetwork{Nodes: make([]yamlNode, len(decls))}
	for i, d := range decls {
		n := yamlNode{ID: string(d.ID), Kind: string(d.Kind), Destinations: []string{}}
		for _, dst := range d.Destinations {
			n.Destinations = append(n.Destinations, string(dst))
		}
		doc.Nodes[i] = n
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode yaml network: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml network: %w", err)
	}
	return buf.Bytes(), nil
}
