package groqb

import (
	"context"
	"strconv"
	"strings"

	"github.com/reoring/groqb/schema"
)

// Branch pairs a GROQ condition with the value produced when it holds. For
// conditionals Value is a Projection, a func(sub *Node) Projection or a
// projected *Node; select branches also accept any *Node or func(sub *Node) *Node.
type Branch struct {
	Condition string
	Value     any
}

// TypeBranch is a Branch whose condition is `_type == "Type"`. The branch
// scope is narrowed to that document type.
type TypeBranch struct {
	Type  string
	Value any
}

// ConditionalOptions tunes Conditional and ConditionalByType.
type ConditionalOptions struct {
	Key          string // Entry label; defaults to "by".
	IsExhaustive bool   // Fail validation when no branch matches.
}

// ConditionalProjection is the value of a conditional projection entry. It is
// spliced into the parent projection as `cond => { ... }, ...`.
type ConditionalProjection struct {
	query      string
	parser     Parser
	shapes     []*schema.Shape
	exhaustive bool
}

// Query is the spliced branch text.
func (c *ConditionalProjection) Query() string { return c.query }

// ConditionalKeyPrefix prefixes the key of every conditional entry.
const ConditionalKeyPrefix = "[Conditional] "

func conditionalOptions(opts []ConditionalOptions) ConditionalOptions {
	var o ConditionalOptions
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	if o.Key == "" {
		o.Key = "by"
	}
	return o
}

// Conditional returns a projection entry choosing between branches at query
// time. It panics with a *BuildError where ConditionalE returns one.
func (n *Node) Conditional(branches []Branch, opts ...ConditionalOptions) Entry {
	e, err := n.ConditionalE(branches, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// ConditionalE builds the entry. Branches must be either all validated or
// all unvalidated. At run time branches are tried in order and the first that
// validates wins; failures of earlier branches are discarded.
func (n *Node) ConditionalE(branches []Branch, opts ...ConditionalOptions) (Entry, error) {
	o := conditionalOptions(opts)
	scope := n.Sub()
	texts := make([]string, 0, len(branches))
	parsers := make([]Parser, 0, len(branches))
	shapes := make([]*schema.Shape, 0, len(branches))
	for _, b := range branches {
		bn, err := branchProjection(scope, b.Value, false)
		if err != nil {
			return Entry{}, err
		}
		texts = append(texts, b.Condition+" => "+strings.TrimPrefix(bn.query, " "))
		parsers = append(parsers, bn.parser)
		shapes = append(shapes, schema.Elem(bn.Shape()))
	}
	validated := countValidated(parsers)
	if validated > 0 && validated < len(parsers) {
		return Entry{}, &BuildError{Op: "conditional", Keys: []string{o.Key}, Msg: "either every branch must be validated or none"}
	}
	var parser Parser
	if validated > 0 {
		parser = conditionalParser(parsers, o.IsExhaustive)
	}
	return Entry{Key: ConditionalKeyPrefix + o.Key, Value: &ConditionalProjection{
		query:      strings.Join(texts, ", "),
		parser:     parser,
		shapes:     shapes,
		exhaustive: o.IsExhaustive,
	}}, nil
}

// ConditionalByType is Conditional keyed on `_type`. Every branch projection
// also selects `_type`, which the parser dispatches on; branches may be left
// unvalidated.
func (n *Node) ConditionalByType(branches []TypeBranch, opts ...ConditionalOptions) Entry {
	e, err := n.ConditionalByTypeE(branches, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func (n *Node) ConditionalByTypeE(branches []TypeBranch, opts ...ConditionalOptions) (Entry, error) {
	o := conditionalOptions(opts)
	types := make([]string, 0, len(branches))
	texts := make([]string, 0, len(branches))
	parsers := make([]Parser, 0, len(branches))
	shapes := make([]*schema.Shape, 0, len(branches))
	for _, b := range branches {
		scope := n.scope(n.narrowType(b.Type))
		bn, err := branchProjection(scope, b.Value, true)
		if err != nil {
			return Entry{}, err
		}
		types = append(types, b.Type)
		texts = append(texts, "_type == "+strconv.Quote(b.Type)+" => "+strings.TrimPrefix(bn.query, " "))
		parsers = append(parsers, bn.parser)
		shapes = append(shapes, schema.Elem(bn.Shape()))
	}
	var parser Parser
	if countValidated(parsers) > 0 {
		parser = byTypeParser(types, parsers, o.IsExhaustive)
	}
	return Entry{Key: ConditionalKeyPrefix + o.Key, Value: &ConditionalProjection{
		query:      strings.Join(texts, ", "),
		parser:     parser,
		shapes:     shapes,
		exhaustive: o.IsExhaustive,
	}}, nil
}

// narrowType is the element shape of n restricted to one document type.
func (n *Node) narrowType(typ string) *schema.Shape {
	elem := schema.Elem(n.Shape()).NonNull()
	if elem.IsUnknown() {
		if doc, ok := n.config().registry.Document(typ); ok {
			return doc
		}
		if len(n.config().registry.Documents()) == 0 {
			return schema.Unknown()
		}
		return n.config().registry.OfTypes(typ)
	}
	return schema.Narrow(elem, "_type", typ)
}

func branchProjection(scope *Node, value any, withType bool) (*Node, error) {
	var p Projection
	switch v := value.(type) {
	case Projection:
		p = v
	case []Entry:
		p = v
	case func(sub *Node) Projection:
		p = v(scope)
	case *Node:
		return v, nil
	default:
		return nil, &BuildError{Op: "conditional", Msg: "unsupported branch value"}
	}
	if withType && !hasKey(p, "_type") {
		p = append(Projection{{Key: "_type", Value: implicitField{}}}, p...)
	}
	return scope.ProjectE(p)
}

// implicitField selects a key the builder needs for dispatch. It is exempt
// from validation-required checks.
type implicitField struct{}

func hasKey(p Projection, key string) bool {
	for _, e := range p {
		if e.Key == key {
			return true
		}
	}
	return false
}

func countValidated(ps []Parser) int {
	c := 0
	for _, p := range ps {
		if p != nil {
			c++
		}
	}
	return c
}

// conditionalParser tries each branch in order and keeps the first success.
// Without a match it fails when exhaustive and yields an empty object
// otherwise.
func conditionalParser(parsers []Parser, exhaustive bool) Parser {
	return func(ctx context.Context, v any) (any, error) {
		for _, p := range parsers {
			if out, err := p(ctx, v); err == nil {
				return out, nil
			}
		}
		if exhaustive {
			return nil, NewIssue(CodeNoMatch, v, map[string]string{"count": strconv.Itoa(len(parsers))})
		}
		return map[string]any{}, nil
	}
}

// byTypeParser dispatches on the record's `_type`. Unvalidated branches pass
// the record through.
func byTypeParser(types []string, parsers []Parser, exhaustive bool) Parser {
	return func(ctx context.Context, v any) (any, error) {
		m, _ := v.(map[string]any)
		t, _ := m["_type"].(string)
		for i, typ := range types {
			if typ != t {
				continue
			}
			if parsers[i] == nil {
				return m, nil
			}
			return parsers[i](ctx, v)
		}
		if exhaustive {
			iss := NewIssue(CodeNoMatch, m["_type"], map[string]string{"count": strconv.Itoa(len(types))})
			iss.Issues[0].Path = ResultPath().Field("_type")
			return nil, iss
		}
		return map[string]any{}, nil
	}
}
