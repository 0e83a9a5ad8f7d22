package groqb

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/groqb/schema"
)

// Entry is one key of a projection. Value is one of:
//
//	true                      keep the field under the same name
//	"path.to.field"           alias a path
//	Tuple("path", validator)  alias a path and validate it
//	validator                 keep the field and validate it
//	*Node                     a sub-query built from the projection scope
//	conditional entry         from Node.Conditional / Node.ConditionalByType
//
// The key "..." with value true passes every input field through.
type Entry struct {
	Key   string
	Value any
}

// Projection is an ordered list of entries; order is kept in the query text.
type Projection []Entry

// TupleValue pairs a path with a validator.
type TupleValue struct {
	Path      string
	Validator any
}

// Tuple aliases path and validates the selected value.
func Tuple(path string, validator any) TupleValue {
	return TupleValue{Path: path, Validator: validator}
}

// Spread is the pass-through entry `...`.
const Spread = "..."

type projected struct {
	key      string
	text     string
	parser   Parser
	shape    *schema.Shape
	spread   bool
	implicit bool
	cond     *ConditionalProjection
}

// Project appends ` { ... }`. It panics with a *BuildError where ProjectE
// would return one.
func (n *Node) Project(p Projection) *Node {
	out, err := n.ProjectE(p)
	if err != nil {
		panic(err)
	}
	return out
}

// ProjectFn builds the projection from a sub-scope that sees one element of
// the current result.
func (n *Node) ProjectFn(fn func(sub *Node) Projection) *Node {
	out, err := n.ProjectFnE(fn)
	if err != nil {
		panic(err)
	}
	return out
}

func (n *Node) ProjectFnE(fn func(sub *Node) Projection) (*Node, error) {
	return n.ProjectE(fn(n.Sub()))
}

// Sub returns the empty scope used inside projections of n.
func (n *Node) Sub() *Node { return n.scope(schema.Elem(n.Shape()).NonNull()) }

// ProjectE appends ` { ... }` and returns a *BuildError for unsupported values
// or, with validation required, for entries without a validator.
func (n *Node) ProjectE(p Projection) (*Node, error) {
	cur := n.Shape()
	elem := schema.Elem(cur).NonNull()
	fields := make([]projected, 0, len(p))
	for _, e := range p {
		f, err := projectEntry(elem, e)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if n.config().validationRequired {
		var missing []string
		for _, f := range fields {
			if f.parser == nil && !f.implicit && (f.cond == nil || f.cond.parser == nil) {
				missing = append(missing, f.key)
			}
		}
		if len(missing) > 0 {
			return nil, &BuildError{Op: "project", Keys: missing, Msg: "validation is required but these fields have none"}
		}
	}

	texts := make([]string, 0, len(fields))
	validated := false
	for _, f := range fields {
		texts = append(texts, f.text)
		if f.parser != nil || (f.cond != nil && f.cond.parser != nil) {
			validated = true
		}
	}
	shape := projectionShape(elem, fields)
	out := schema.MapElem(cur, func(*schema.Shape) *schema.Shape { return shape })

	var parser Parser
	if validated {
		allowNil := cur.Nullable || schema.Elem(cur).Nullable
		parser = EachParser(objectParser(fields, allowNil))
	}
	return n.transform(n.projectionText(texts), parser, out), nil
}

func (n *Node) projectionText(parts []string) string {
	if len(parts) == 0 {
		return " {}"
	}
	ind := n.config().indent
	if ind == "" {
		return " { " + strings.Join(parts, ", ") + " }"
	}
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "\n", "\n"+ind)
	}
	return " {\n" + ind + strings.Join(parts, ",\n"+ind) + "\n}"
}

// aliased renders `key` when the value is the same text, `"key": value`
// otherwise.
func aliased(key, value string) string {
	if key == value {
		return key
	}
	return strconv.Quote(key) + ": " + value
}

func projectEntry(elem *schema.Shape, e Entry) (projected, error) {
	if e.Key == Spread {
		if b, ok := e.Value.(bool); !ok || !b {
			return projected{}, &BuildError{Op: "project", Keys: []string{e.Key}, Msg: "the pass-through entry only accepts true"}
		}
		return projected{key: e.Key, text: Spread, spread: true, shape: elem}, nil
	}
	switch v := e.Value.(type) {
	case *ConditionalProjection:
		return projected{key: e.Key, text: v.query, cond: v}, nil
	case implicitField:
		return projected{key: e.Key, text: e.Key, shape: schema.At(elem, e.Key), implicit: true}, nil
	case bool:
		if !v {
			return projected{}, &BuildError{Op: "project", Keys: []string{e.Key}, Msg: "false is not a projection value"}
		}
		return projected{key: e.Key, text: e.Key, shape: schema.At(elem, e.Key)}, nil
	case string:
		return projected{key: e.Key, text: aliased(e.Key, v), shape: schema.At(elem, v)}, nil
	case TupleValue:
		p, ok := NormalizeValidator(v.Validator)
		if !ok {
			return projected{}, unsupported(e.Key, v.Validator)
		}
		return projected{
			key:    e.Key,
			text:   aliased(e.Key, v.Path),
			parser: p,
			shape:  schema.Compatible(schema.At(elem, v.Path), shapeOf(v.Validator)),
		}, nil
	case *Root:
		return nodeEntry(e.Key, v.Node)
	case *Node:
		return nodeEntry(e.Key, v)
	}
	p, ok := NormalizeValidator(e.Value)
	if !ok {
		return projected{}, unsupported(e.Key, e.Value)
	}
	return projected{
		key:    e.Key,
		text:   e.Key,
		parser: p,
		shape:  schema.Compatible(schema.At(elem, e.Key), shapeOf(e.Value)),
	}, nil
}

func nodeEntry(key string, sub *Node) (projected, error) {
	if sub == nil || sub.query == "" {
		return projected{}, &BuildError{Op: "project", Keys: []string{key}, Msg: "sub-query is empty"}
	}
	return projected{key: key, text: aliased(key, sub.query), parser: sub.parser, shape: sub.Shape()}, nil
}

func unsupported(key string, v any) error {
	return &BuildError{Op: "project", Keys: []string{key}, Msg: fmt.Sprintf("unsupported projection value %T", v)}
}

func projectionShape(elem *schema.Shape, fields []projected) *schema.Shape {
	var explicit []schema.Field
	var conds []*ConditionalProjection
	passthrough := false
	for _, f := range fields {
		switch {
		case f.spread:
			passthrough = true
		case f.cond != nil:
			conds = append(conds, f.cond)
		default:
			explicit = append(explicit, schema.Field{Name: f.key, Shape: f.shape})
		}
	}
	obj := schema.Object(explicit...)
	if passthrough {
		obj = schema.Merge(elem, obj)
	}
	for _, c := range conds {
		opts := make([]*schema.Shape, 0, len(c.shapes)+1)
		for _, bs := range c.shapes {
			opts = append(opts, schema.Merge(obj, bs))
		}
		if !c.exhaustive {
			opts = append(opts, obj)
		}
		obj = schema.Union(opts...)
	}
	return obj
}

// objectParser validates one projected record. Pass-through and conditional
// results are merged first so explicit keys win; every failing key is
// reported.
func objectParser(fields []projected, allowNil bool) Parser {
	explicit := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if !f.spread && f.cond == nil {
			explicit[f.key] = struct{}{}
		}
	}
	return func(ctx context.Context, v any) (any, error) {
		if v == nil && allowNil {
			return nil, nil
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, NewIssue(CodeInvalidType, v, map[string]string{"expected": "object"})
		}
		out := make(map[string]any, len(m))
		var errs ErrorCollector
		for _, f := range fields {
			switch {
			case f.spread:
				for k, val := range m {
					out[k] = val
				}
			case f.cond != nil && f.cond.parser == nil:
				for k, val := range m {
					if _, ok := explicit[k]; !ok {
						out[k] = val
					}
				}
			case f.cond != nil:
				res, err := f.cond.parser(ctx, m)
				if err != nil {
					errs.Add(ResultPath(), m, err)
					continue
				}
				if rm, ok := res.(map[string]any); ok {
					for k, val := range rm {
						out[k] = val
					}
				}
			}
		}
		for _, f := range fields {
			if f.spread || f.cond != nil {
				continue
			}
			val, present := m[f.key]
			if f.parser == nil {
				if present {
					out[f.key] = val
				}
				continue
			}
			res, err := f.parser(ctx, val)
			if err != nil {
				errs.Add(ResultPath().Field(f.key), val, err)
				continue
			}
			if present || res != nil {
				out[f.key] = res
			}
		}
		if err := errs.Err(); err != nil {
			return nil, err
		}
		return out, nil
	}
}
