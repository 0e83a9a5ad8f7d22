package groqb

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/reoring/groqb/schema"
)

// Option configures New.
type Option func(*config)

// WithIndent renders projections across lines using indent for each entry.
func WithIndent(indent string) Option { return func(c *config) { c.indent = indent } }

// WithValidationRequired makes every projection entry carry a validator;
// projections without one fail to build.
func WithValidationRequired() Option { return func(c *config) { c.validationRequired = true } }

// Root starts query chains for one document registry.
type Root struct {
	*Node
}

// New returns the root builder: empty query, unknown shape, no parser.
func New(reg *schema.Registry, opts ...Option) *Root {
	cfg := &config{registry: reg}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	return &Root{Node: &Node{cfg: cfg}}
}

// Star selects every document: `*`.
func (r *Root) Star() *Node {
	return r.derive("*", nil, schema.Array(r.config().registry.All()))
}

// Fragment is an empty chain scoped to one document type, for building
// reusable projections.
func (r *Root) Fragment(typeName string) *Node {
	doc, ok := r.config().registry.Document(typeName)
	switch {
	case ok:
	case len(r.config().registry.Documents()) == 0:
		doc = schema.Unknown()
	default:
		doc = schema.NewMismatch(fmt.Sprintf("unknown document type %q", typeName), "one of: "+strings.Join(r.config().registry.Documents(), " | "), typeName)
	}
	return r.scope(doc)
}

// Parameters declares `$name` parameters for every chain started from the
// returned root.
func (r *Root) Parameters(params ...Param) *Root {
	next := *r.Node
	next.params = append(append([]Param(nil), r.params...), params...)
	return &Root{Node: &next}
}

// Param returns the shape-tagged reference for a declared parameter, usable as
// a projection value or select branch.
func (r *Root) Param(name string) *Node {
	for _, p := range r.params {
		if p.Name == name {
			return r.derive(Var(name), nil, p.shape())
		}
	}
	return r.derive(Var(name), nil, schema.NewMismatch(fmt.Sprintf("parameter %q is not declared", name), "a declared parameter", name))
}

func (p Param) shape() *schema.Shape {
	s := p.Shape
	if s == nil {
		s = schema.Unknown()
	}
	if p.Optional {
		s = s.OrNull()
	}
	return s
}

// Value is a JSON literal: "x", 1, true, null.
func (n *Node) Value(v any) *Node {
	b, err := json.Marshal(v)
	if err != nil {
		panic(&BuildError{Op: "value", Msg: err.Error()})
	}
	var s *schema.Shape
	switch t := v.(type) {
	case nil:
		s = schema.Null()
	case string, bool:
		s = schema.Literal(t)
	case int:
		s = schema.Literal(float64(t))
	case int64:
		s = schema.Literal(float64(t))
	case float64:
		s = schema.Literal(t)
	default:
		s = schema.Unknown()
	}
	return n.derive(string(b), nil, s)
}
