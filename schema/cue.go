package schema

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// LoadCUE reads a registry from CUE source. Every field of the top-level
// `documents` struct is a document type; `{"$ref": "person"}` marks a
// reference and `{"$date": true}` a date.
func LoadCUE(src []byte) (*Registry, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("schema: compile cue: %w", err)
	}
	docsVal := v.LookupPath(cue.ParsePath("documents"))
	if !docsVal.Exists() {
		return nil, errors.New("schema: cue source has no documents struct")
	}
	iter, err := docsVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("schema: documents: %w", err)
	}
	var docs []Document
	for iter.Next() {
		name := iter.Label()
		fields, err := cueFields(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("schema: document %q: %w", name, err)
		}
		docs = append(docs, Document{Name: name, Fields: fields})
	}
	return NewRegistry(docs...)
}

func cueFields(v cue.Value) ([]Field, error) {
	iter, err := v.Fields(cue.Optional(true))
	if err != nil {
		return nil, err
	}
	var out []Field
	for iter.Next() {
		name := iter.Label()
		s, err := cueShape(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out = append(out, Field{Name: name, Shape: s, Optional: iter.IsOptional()})
	}
	return out, nil
}

func cueShape(v cue.Value) (*Shape, error) {
	k := v.IncompleteKind()
	if k == cue.NullKind {
		return Null(), nil
	}
	nullable := k&cue.NullKind != 0
	k &^= cue.NullKind

	var s *Shape
	switch {
	case k == cue.BottomKind:
		return nil, fmt.Errorf("invalid value: %v", v.Err())
	case k == cue.TopKind:
		return Unknown(), nil
	case k == cue.StringKind:
		if v.IsConcrete() {
			str, err := v.String()
			if err != nil {
				return nil, err
			}
			s = Literal(str)
		} else {
			s = String()
		}
	case k == cue.BoolKind:
		if b, err := v.Bool(); err == nil && v.IsConcrete() {
			s = Literal(b)
		} else {
			s = Boolean()
		}
	case k == cue.IntKind || k == cue.FloatKind || k == cue.NumberKind:
		if f, err := v.Float64(); err == nil && v.IsConcrete() {
			s = Literal(f)
		} else {
			s = Number()
		}
	case k == cue.ListKind:
		elem := v.LookupPath(cue.MakePath(cue.AnyIndex))
		if !elem.Exists() {
			s = Array(Unknown())
			break
		}
		es, err := cueShape(elem)
		if err != nil {
			return nil, fmt.Errorf("list element: %w", err)
		}
		s = Array(es)
	case k == cue.StructKind:
		if ref := v.LookupPath(cue.ParsePath(`"$ref"`)); ref.Exists() {
			to, err := ref.String()
			if err != nil {
				return nil, fmt.Errorf("$ref must be a concrete string: %w", err)
			}
			s = Reference(to)
			break
		}
		if d := v.LookupPath(cue.ParsePath(`"$date"`)); d.Exists() {
			s = Date()
			break
		}
		fields, err := cueFields(v)
		if err != nil {
			return nil, err
		}
		s = Object(fields...)
	default:
		// Disjunction of kinds, e.g. string | number.
		var opts []*Shape
		for _, pair := range []struct {
			kind  cue.Kind
			shape func() *Shape
		}{
			{cue.StringKind, String},
			{cue.NumberKind, Number},
			{cue.BoolKind, Boolean},
			{cue.StructKind, func() *Shape { return Object() }},
			{cue.ListKind, func() *Shape { return Array(Unknown()) }},
		} {
			if k&pair.kind != 0 {
				opts = append(opts, pair.shape())
			}
		}
		s = Union(opts...)
	}
	if nullable {
		s = s.OrNull()
	}
	return s, nil
}
