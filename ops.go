package groqb

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/reoring/groqb/schema"
)

// transform appends fragment for an operation that changes the fetched value
// server-side, so any earlier parser no longer applies.
func (n *Node) transform(fragment string, parser Parser, shape *schema.Shape) *Node {
	return &Node{query: n.query + fragment, parser: parser, shape: shape, params: n.params, cfg: n.cfg}
}

// Field selects path: `.path`, or the bare path at the start of a scope or
// right after `->`. When the current result is an array the selection maps
// over its elements, and so does the optional validator.
func (n *Node) Field(path string, validator ...any) *Node {
	frag := path
	if n.query != "" && !strings.HasPrefix(path, "[") && !strings.HasSuffix(n.query, "->") {
		frag = "." + path
	}
	cur := n.Shape()
	shape := schema.At(cur, path)
	if len(validator) == 0 || validator[0] == nil {
		return n.transform(frag, nil, shape)
	}
	v := validator[0]
	p := MustNormalize(v)
	if schema.IsArray(cur) {
		leaf := schema.Compatible(schema.At(cur.Elem, path), shapeOf(v))
		return n.transform(frag, EachParser(p), schema.MapElem(cur, func(*schema.Shape) *schema.Shape { return leaf }))
	}
	return n.transform(frag, p, schema.Compatible(shape, shapeOf(v)))
}

// Filter appends `[expr]` verbatim. The shape is kept as is.
func (n *Node) Filter(expr string) *Node {
	return n.derive("["+expr+"]", nil, n.shape)
}

var filterByExpr = regexp.MustCompile(`^\s*([A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*)\s*==\s*(.+?)\s*$`)

// FilterBy appends `[path == literal]` and narrows the element shape to the
// documents whose field can hold the literal. Other expression forms yield a
// mismatch shape; use Filter for free-form expressions.
func (n *Node) FilterBy(expr string) *Node {
	cur := n.Shape()
	m := filterByExpr.FindStringSubmatch(expr)
	if m == nil {
		return n.derive("["+expr+"]", nil, schema.NewMismatch("unsupported filter expression", `path == literal`, strconv.Quote(expr)))
	}
	field, rhs := m[1], m[2]
	lit, ok := parseLiteral(rhs)
	shape := schema.MapElem(cur, func(elem *schema.Shape) *schema.Shape {
		if at := schema.At(elem, field); at.IsMismatch() {
			return at
		}
		if !ok || strings.Contains(field, ".") {
			return elem
		}
		return schema.Narrow(elem, field, lit)
	})
	return n.derive("["+expr+"]", nil, shape)
}

// parseLiteral reads a GROQ literal: "str", 'str', number, true, false.
func parseLiteral(s string) (any, bool) {
	switch s {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return s[1 : len(s)-1], true
	}
	if uq, err := strconv.Unquote(s); err == nil && strings.HasPrefix(s, `"`) {
		return uq, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}

// FilterByType appends `[_type == "a" || _type == "b"]` and narrows the
// element shape to those document types.
func (n *Node) FilterByType(types ...string) *Node {
	if len(types) == 0 {
		return n.derive("", nil, schema.NewMismatch("filterByType requires at least one type", "a document type", "none"))
	}
	conds := make([]string, 0, len(types))
	for _, t := range types {
		conds = append(conds, "_type == "+strconv.Quote(t))
	}
	frag := "[" + strings.Join(conds, " || ") + "]"

	cur := n.Shape()
	if !schema.IsArray(cur) && !cur.IsUnknown() {
		return n.derive(frag, nil, schema.NewMismatch("filterByType requires an array", "array", cur.String()))
	}
	elem := schema.Elem(cur)
	opts := make([]*schema.Shape, 0, len(types))
	for _, t := range types {
		var o *schema.Shape
		if elem.IsUnknown() {
			o = n.config().registry.OfTypes(t)
		} else {
			o = schema.Narrow(elem, "_type", t)
		}
		if o.IsMismatch() {
			return n.derive(frag, nil, schema.Array(o))
		}
		opts = append(opts, o)
	}
	return n.derive(frag, nil, schema.Array(schema.Union(opts...)))
}

var plainPath = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*$`)

// Order appends ` | order(a asc, b desc)`. Plain-path sort keys are checked
// against the element shape; expressions are taken verbatim.
func (n *Node) Order(fields ...string) *Node {
	if len(fields) == 0 {
		return n.derive("", nil, schema.NewMismatch("order requires at least one sort key", "a sort key", "none"))
	}
	shape := n.shape
	elem := schema.Elem(n.Shape())
	for _, f := range fields {
		parts := strings.Fields(f)
		if len(parts) == 0 {
			continue
		}
		if len(parts) == 2 && parts[1] != "asc" && parts[1] != "desc" {
			shape = schema.NewMismatch("invalid sort direction", "asc | desc", strconv.Quote(parts[1]))
			break
		}
		if !plainPath.MatchString(parts[0]) {
			continue
		}
		if at := schema.At(elem, parts[0]); at.IsMismatch() {
			shape = at
			break
		}
	}
	return n.derive(" | order("+strings.Join(fields, ", ")+")", nil, shape)
}

// Slice appends `[index]`; the result is one (nullable) element. An out of
// range index yields null, which the existing parser lets through.
func (n *Node) Slice(index int) *Node {
	frag := "[" + strconv.Itoa(index) + "]"
	cur := n.Shape()
	switch {
	case schema.IsArray(cur):
		return n.transform(frag, NullableParser(n.parser), cur.Elem.OrNull())
	case cur.IsUnknown():
		return n.transform(frag, NullableParser(n.parser), schema.Unknown())
	}
	return n.derive(frag, nil, schema.NewMismatch("slice requires an array", "array", cur.String()))
}

// SliceRange appends `[start...end]` (end exclusive) or, when inclusive is
// set, `[start..end]`. The result stays an array.
func (n *Node) SliceRange(start, end int, inclusive ...bool) *Node {
	op := "..."
	if len(inclusive) > 0 && inclusive[0] {
		op = ".."
	}
	cur := n.Shape()
	shape := n.shape
	if !schema.IsArray(cur) && !cur.IsUnknown() {
		shape = schema.NewMismatch("slice requires an array", "array", cur.String())
	}
	return n.derive("["+strconv.Itoa(start)+op+strconv.Itoa(end)+"]", nil, shape)
}

// Deref follows references: `->`, or `[]->` for an array of references
// unless the query already ends with `[]`.
func (n *Node) Deref() *Node {
	cur := n.Shape()
	frag := "->"
	if schema.IsArray(cur) && !strings.HasSuffix(n.query, "[]") {
		frag = "[]->"
	}
	return n.transform(frag, nil, n.config().registry.Deref(cur))
}

// Raw appends query verbatim. The shape becomes unknown unless a validator
// declares one; WithShape overrides it.
func (n *Node) Raw(query string, validator ...any) *Node {
	if len(validator) == 0 || validator[0] == nil {
		return n.transform(query, nil, schema.Unknown())
	}
	s := shapeOf(validator[0])
	if s == nil {
		s = schema.Unknown()
	}
	return n.transform(query, MustNormalize(validator[0]), s)
}

// Validate composes validator after the current parser. A validator that
// declares its shape replaces the node's shape when the two agree.
func (n *Node) Validate(validator any) *Node {
	p := MustNormalize(validator)
	shape := n.Shape()
	if vs := shapeOf(validator); vs != nil {
		shape = schema.Compatible(shape, vs)
	}
	return n.derive("", p, shape)
}

// Nullable marks the result as possibly null; an existing parser is skipped
// for nil input. Applying it twice changes nothing.
func (n *Node) Nullable() *Node {
	return n.replace(NullableParser(n.parser), n.Shape().OrNull())
}

// NotNull rejects a null result before the existing parser runs.
func (n *Node) NotNull() *Node {
	expected := n.Shape().NonNull().String()
	reject := func(_ context.Context, v any) (any, error) {
		if v == nil {
			return nil, NewIssue(CodeInvalidType, v, map[string]string{"expected": expected})
		}
		return v, nil
	}
	return n.replace(ChainParsers(reject, n.parser), n.Shape().NonNull())
}

// Count wraps the whole query in `count(...)`.
func (n *Node) Count() *Node {
	shape := schema.Number()
	if cur := n.Shape(); !schema.IsArray(cur) && !cur.IsUnknown() {
		shape = schema.NewMismatch("count requires an array", "array", cur.String())
	}
	return &Node{query: "count(" + n.query + ")", shape: shape, params: n.params, cfg: n.cfg}
}

// Score appends ` | score(exprs...)`; every element gains a numeric `_score`.
func (n *Node) Score(exprs ...string) *Node {
	shape := schema.MapElem(n.Shape(), func(elem *schema.Shape) *schema.Shape {
		return schema.Merge(elem, schema.Object(schema.F("_score", schema.Number())))
	})
	return n.derive(" | score("+strings.Join(exprs, ", ")+")", nil, shape)
}
