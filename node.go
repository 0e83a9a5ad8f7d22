package groqb

import (
	"github.com/reoring/groqb/schema"
)

// Node is one immutable step of a query chain: the GROQ text so far, the
// composed parser (nil when nothing validates) and the shape the text
// produces. Every operation returns a new Node; nodes are safe to share and to
// branch from concurrently. Chains normally start from New; a zero Node
// behaves like one built with New(nil).
type Node struct {
	query  string
	parser Parser
	shape  *schema.Shape
	params []Param
	cfg    *config
}

type config struct {
	registry           *schema.Registry
	indent             string
	validationRequired bool
}

var defaultConfig = &config{}

func (n *Node) config() *config {
	if n.cfg == nil {
		return defaultConfig
	}
	return n.cfg
}

// Chain appends fragment verbatim and composes parser after the existing one.
// The shape is carried over unchanged; use WithShape to declare a new one.
func (n *Node) Chain(fragment string, parser Parser) *Node {
	return n.derive(fragment, parser, n.shape)
}

func (n *Node) derive(fragment string, parser Parser, shape *schema.Shape) *Node {
	return &Node{
		query:  n.query + fragment,
		parser: ChainParsers(n.parser, parser),
		shape:  shape,
		params: n.params,
		cfg:    n.cfg,
	}
}

// replace keeps the query but swaps parser and shape.
func (n *Node) replace(parser Parser, shape *schema.Shape) *Node {
	return &Node{query: n.query, parser: parser, shape: shape, params: n.params, cfg: n.cfg}
}

// scope is the empty sub-query used inside projections, conditionals and
// select branches: it sees one element of the current result.
func (n *Node) scope(shape *schema.Shape) *Node {
	return &Node{shape: shape, params: n.params, cfg: n.cfg}
}

func (n *Node) Query() string  { return n.query }
func (n *Node) String() string { return n.query }
func (n *Node) Parser() Parser { return n.parser }

// Shape is the result shape of the query; Unknown when nothing is known.
func (n *Node) Shape() *schema.Shape {
	if n.shape == nil {
		return schema.Unknown()
	}
	return n.shape
}

// Params lists the declared query parameters.
func (n *Node) Params() []Param { return append([]Param(nil), n.params...) }

// Registry is the document registry the chain was started from.
func (n *Node) Registry() *schema.Registry { return n.config().registry }

// WithShape declares the result shape without touching query or parser.
func (n *Node) WithShape(s *schema.Shape) *Node { return n.replace(n.parser, s) }

// Mismatches lists every invalid selection recorded in the result shape.
func (n *Node) Mismatches() []schema.LocatedMismatch { return schema.Mismatches(n.Shape()) }

// Check returns a *ShapeError when the chain selected something the registry
// does not describe.
func (n *Node) Check() error {
	ms := n.Mismatches()
	if len(ms) == 0 {
		return nil
	}
	return &ShapeError{Query: n.query, Mismatches: ms}
}

// Param is a declared `$name` query parameter.
type Param struct {
	Name     string
	Shape    *schema.Shape
	Optional bool
}

// Var returns the `$name` reference used inside query text.
func Var(name string) string { return "$" + name }
