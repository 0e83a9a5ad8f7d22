package schema

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Documents []yamlDocument `yaml:"documents"`
}

type yamlDocument struct {
	Name   string    `yaml:"name"`
	Fields yaml.Node `yaml:"fields"`
}

// LoadYAML reads a registry from a schema-definition file:
//
//	documents:
//	  - name: person
//	    fields:
//	      name: string
//	      nickname: string?
//	      friend: {type: reference, to: person}
//
// Field order follows the file.
func LoadYAML(r io.Reader) (*Registry, error) {
	var f yamlFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("schema: empty YAML document")
		}
		return nil, fmt.Errorf("schema: decode yaml: %w", err)
	}
	docs := make([]Document, 0, len(f.Documents))
	for _, d := range f.Documents {
		fields, err := yamlFields(&d.Fields)
		if err != nil {
			return nil, fmt.Errorf("schema: document %q: %w", d.Name, err)
		}
		docs = append(docs, Document{Name: d.Name, Fields: fields})
	}
	return NewRegistry(docs...)
}

// yamlFields walks a mapping node pairwise so declaration order is kept.
func yamlFields(n *yaml.Node) ([]Field, error) {
	if n == nil || n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: fields must be a mapping", n.Line)
	}
	out := make([]Field, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		s, optional, err := yamlShape(n.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		if strings.HasSuffix(name, "?") {
			name = strings.TrimSuffix(name, "?")
			optional = true
		}
		out = append(out, Field{Name: name, Shape: s, Optional: optional})
	}
	return out, nil
}

type yamlSpec struct {
	Type     string      `yaml:"type"`
	Optional bool        `yaml:"optional"`
	Nullable bool        `yaml:"nullable"`
	Of       yaml.Node   `yaml:"of"`
	To       string      `yaml:"to"`
	Fields   yaml.Node   `yaml:"fields"`
	Value    any         `yaml:"value"`
	Options  []yaml.Node `yaml:"options"`
}

func yamlShape(n *yaml.Node) (*Shape, bool, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return typeExpr(n.Value)
	case yaml.MappingNode:
	default:
		return nil, false, fmt.Errorf("line %d: expected a type name or mapping", n.Line)
	}
	var spec yamlSpec
	if err := n.Decode(&spec); err != nil {
		return nil, false, err
	}
	var s *Shape
	switch spec.Type {
	case "array":
		if spec.Of.Kind == 0 {
			s = Array(Unknown())
			break
		}
		elem, _, err := yamlShape(&spec.Of)
		if err != nil {
			return nil, false, fmt.Errorf("of: %w", err)
		}
		s = Array(elem)
	case "reference":
		if spec.To == "" {
			return nil, false, fmt.Errorf("line %d: reference requires \"to\"", n.Line)
		}
		s = Reference(spec.To)
	case "object":
		fields, err := yamlFields(&spec.Fields)
		if err != nil {
			return nil, false, err
		}
		s = Object(fields...)
	case "literal":
		s = Literal(normalizeNumber(spec.Value))
	case "union":
		opts := make([]*Shape, 0, len(spec.Options))
		for i := range spec.Options {
			o, _, err := yamlShape(&spec.Options[i])
			if err != nil {
				return nil, false, fmt.Errorf("options[%d]: %w", i, err)
			}
			opts = append(opts, o)
		}
		s = Union(opts...)
	default:
		base, opt, err := typeExpr(spec.Type)
		if err != nil {
			return nil, false, fmt.Errorf("line %d: %w", n.Line, err)
		}
		s = base
		spec.Optional = spec.Optional || opt
	}
	if spec.Nullable {
		s = s.OrNull()
	}
	return s, spec.Optional, nil
}

// typeExpr parses the short form: `string`, `number?`, `date | null`,
// `string[]`, `"draft" | "published"`.
func typeExpr(expr string) (*Shape, bool, error) {
	expr = strings.TrimSpace(expr)
	optional := false
	if strings.HasSuffix(expr, "?") {
		optional = true
		expr = strings.TrimSpace(strings.TrimSuffix(expr, "?"))
	}
	parts := strings.Split(expr, "|")
	opts := make([]*Shape, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		s, err := scalarType(p)
		if err != nil {
			return nil, false, err
		}
		opts = append(opts, s)
	}
	return Union(opts...), optional, nil
}

func scalarType(name string) (*Shape, error) {
	if strings.HasSuffix(name, "[]") {
		elem, err := scalarType(strings.TrimSuffix(name, "[]"))
		if err != nil {
			return nil, err
		}
		return Array(elem), nil
	}
	switch name {
	case "string":
		return String(), nil
	case "number", "integer":
		return Number(), nil
	case "boolean", "bool":
		return Boolean(), nil
	case "date", "datetime":
		return Date(), nil
	case "unknown", "any":
		return Unknown(), nil
	case "null":
		return Null(), nil
	case "true", "false":
		return Literal(name == "true"), nil
	}
	if uq, err := strconv.Unquote(name); err == nil {
		return Literal(uq), nil
	}
	if strings.HasPrefix(name, "'") && strings.HasSuffix(name, "'") && len(name) >= 2 {
		return Literal(name[1 : len(name)-1]), nil
	}
	if f, err := strconv.ParseFloat(name, 64); err == nil {
		return Literal(f), nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return v
}
