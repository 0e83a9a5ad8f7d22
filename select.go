package groqb

import (
	"context"
	"strconv"
	"strings"

	"github.com/reoring/groqb/schema"
)

// Select appends `select(cond => value, ..., default)`. def may be nil, in
// which case the result is null when no condition holds. It panics with a
// *BuildError where SelectE returns one.
func (n *Node) Select(branches []Branch, def *Node) *Node {
	out, err := n.SelectE(branches, def)
	if err != nil {
		panic(err)
	}
	return out
}

// SelectE builds the select. Branches and default must be either all
// validated or all unvalidated.
func (n *Node) SelectE(branches []Branch, def *Node) (*Node, error) {
	scope := n.Sub()
	conds := make([]string, 0, len(branches))
	values := make([]*Node, 0, len(branches))
	for _, b := range branches {
		v, err := selectValue(scope, b.Value)
		if err != nil {
			return nil, err
		}
		conds = append(conds, b.Condition)
		values = append(values, v)
	}
	return n.buildSelect(conds, values, def, false)
}

// SelectByType is Select keyed on `_type`; each branch is built from a scope
// narrowed to its document type. Unvalidated branches are allowed next to
// validated ones.
//
// The parser does not see `_type`, so it cannot tell which branch matched.
// It tries the validated branches in order; when any branch is unvalidated a
// value none of them accepts passes through unchanged, including a value the
// GROQ engine produced from a validated branch.
func (n *Node) SelectByType(branches []TypeBranch, def *Node) *Node {
	out, err := n.SelectByTypeE(branches, def)
	if err != nil {
		panic(err)
	}
	return out
}

func (n *Node) SelectByTypeE(branches []TypeBranch, def *Node) (*Node, error) {
	conds := make([]string, 0, len(branches))
	values := make([]*Node, 0, len(branches))
	for _, b := range branches {
		v, err := selectValue(n.scope(n.narrowType(b.Type)), b.Value)
		if err != nil {
			return nil, err
		}
		conds = append(conds, "_type == "+strconv.Quote(b.Type))
		values = append(values, v)
	}
	return n.buildSelect(conds, values, def, true)
}

func selectValue(scope *Node, value any) (*Node, error) {
	switch v := value.(type) {
	case *Node:
		return v, nil
	case func(sub *Node) *Node:
		return v(scope), nil
	case Projection, []Entry, func(sub *Node) Projection:
		return branchProjection(scope, v, false)
	}
	return nil, &BuildError{Op: "select", Msg: "unsupported branch value"}
}

func (n *Node) buildSelect(conds []string, values []*Node, def *Node, partialOK bool) (*Node, error) {
	parts := make([]string, 0, len(values)+1)
	parsers := make([]Parser, 0, len(values)+1)
	shapes := make([]*schema.Shape, 0, len(values)+1)
	for i, v := range values {
		parts = append(parts, conds[i]+" => "+strings.TrimPrefix(v.query, " "))
		parsers = append(parsers, v.parser)
		shapes = append(shapes, v.Shape())
	}
	var defParser Parser
	if def != nil {
		parts = append(parts, strings.TrimPrefix(def.query, " "))
		defParser = def.parser
		shapes = append(shapes, def.Shape())
	} else {
		shapes = append(shapes, schema.Null())
	}

	all := parsers
	if def != nil {
		all = append(append([]Parser(nil), parsers...), defParser)
	}
	validated := countValidated(all)
	if !partialOK && validated > 0 && validated < len(all) {
		return nil, &BuildError{Op: "select", Msg: "either every branch must be validated or none"}
	}
	var parser Parser
	if validated > 0 {
		parser = selectParser(parsers, defParser, def != nil)
	}
	return n.transform("select("+strings.Join(parts, ", ")+")", parser, schema.Union(shapes...)), nil
}

// selectParser tries each validated branch in order, then the default.
// Unvalidated branches accept whatever no validated branch took; without a
// default a null result is accepted as is.
func selectParser(parsers []Parser, def Parser, hasDefault bool) Parser {
	passthrough := false
	for _, p := range parsers {
		if p == nil {
			passthrough = true
		}
	}
	return func(ctx context.Context, v any) (any, error) {
		for _, p := range parsers {
			if p == nil {
				continue
			}
			if out, err := p(ctx, v); err == nil {
				return out, nil
			}
		}
		switch {
		case def != nil:
			return def(ctx, v)
		case passthrough, hasDefault:
			return v, nil
		case v == nil:
			return nil, nil
		}
		return nil, NewIssue(CodeNoMatch, v, map[string]string{"count": strconv.Itoa(len(parsers))})
	}
}
