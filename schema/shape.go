package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the shapes a query result can take.
type Kind uint8

const (
	KindUnknown Kind = iota // Anything; no checks apply.
	KindNull
	KindString
	KindNumber
	KindBoolean
	KindDate // ISO-8601 string on the wire.
	KindLiteral
	KindObject
	KindArray
	KindReference
	KindUnion
	KindMismatch // Sentinel produced by an invalid selection.
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindLiteral:
		return "literal"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindReference:
		return "reference"
	case KindUnion:
		return "union"
	case KindMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Field is a named member of an object shape.
type Field struct {
	Name     string
	Shape    *Shape
	Optional bool
}

// Mismatch describes why a selection could not be resolved.
type Mismatch struct {
	Message  string
	Expected string
	Actual   string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s (expected %s, actual %s)", m.Message, m.Expected, m.Actual)
}

// Shape describes the value a query produces. Shapes are treated as immutable:
// every helper in this package returns a fresh value instead of editing one.
type Shape struct {
	Kind     Kind
	Nullable bool
	Name     string    // Document type name, when the shape is a registered document.
	Fields   []Field   // KindObject, in declaration order.
	Elem     *Shape    // KindArray.
	Ref      string    // KindReference: the referenced document type.
	Options  []*Shape  // KindUnion.
	Literal  any       // KindLiteral.
	Mismatch *Mismatch // KindMismatch.
}

func Unknown() *Shape { return &Shape{Kind: KindUnknown} }
func Null() *Shape    { return &Shape{Kind: KindNull} }
func String() *Shape  { return &Shape{Kind: KindString} }
func Number() *Shape  { return &Shape{Kind: KindNumber} }
func Boolean() *Shape { return &Shape{Kind: KindBoolean} }
func Date() *Shape    { return &Shape{Kind: KindDate} }

// Literal returns a shape matching exactly v (string, number or bool).
func Literal(v any) *Shape { return &Shape{Kind: KindLiteral, Literal: v} }

// Object returns an object shape with the given fields.
func Object(fields ...Field) *Shape {
	return &Shape{Kind: KindObject, Fields: append([]Field(nil), fields...)}
}

// Array returns an array shape of elem.
func Array(elem *Shape) *Shape {
	if elem == nil {
		elem = Unknown()
	}
	return &Shape{Kind: KindArray, Elem: elem}
}

// Reference returns the marker shape for a reference to document type `to`.
func Reference(to string) *Shape { return &Shape{Kind: KindReference, Ref: to} }

// Union returns a union of opts. Nested unions are flattened, duplicate options
// dropped, a single option is returned as is and an empty union is Unknown.
func Union(opts ...*Shape) *Shape {
	flat := make([]*Shape, 0, len(opts))
	seen := make(map[string]struct{}, len(opts))
	nullable := false
	var add func(o *Shape)
	add = func(o *Shape) {
		switch {
		case o == nil:
			return
		case o.Kind == KindUnion:
			nullable = nullable || o.Nullable
			for _, inner := range o.Options {
				add(inner)
			}
			return
		case o.Kind == KindNull:
			nullable = true
			return
		case o.Nullable:
			nullable = true
			o = o.NonNull()
		}
		key := o.String()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		flat = append(flat, o)
	}
	for _, o := range opts {
		add(o)
	}
	switch len(flat) {
	case 0:
		if nullable {
			return Null()
		}
		return Unknown()
	case 1:
		if nullable {
			return flat[0].OrNull()
		}
		return flat[0]
	}
	return &Shape{Kind: KindUnion, Options: flat, Nullable: nullable}
}

// NewMismatch returns the sentinel shape for an invalid selection.
func NewMismatch(msg, expected, actual string) *Shape {
	return &Shape{Kind: KindMismatch, Mismatch: &Mismatch{Message: msg, Expected: expected, Actual: actual}}
}

// F is shorthand for a required field.
func F(name string, s *Shape) Field { return Field{Name: name, Shape: s} }

// Opt is shorthand for an optional field.
func Opt(name string, s *Shape) Field { return Field{Name: name, Shape: s, Optional: true} }

func (s *Shape) clone() *Shape {
	c := *s
	return &c
}

// OrNull returns a copy of s that also admits null.
func (s *Shape) OrNull() *Shape {
	if s == nil {
		return Null()
	}
	if s.Nullable || s.Kind == KindNull || s.Kind == KindUnknown || s.Kind == KindMismatch {
		return s
	}
	c := s.clone()
	c.Nullable = true
	return c
}

// NonNull returns a copy of s that rejects null.
func (s *Shape) NonNull() *Shape {
	if s == nil || !s.Nullable {
		return s
	}
	c := s.clone()
	c.Nullable = false
	return c
}

// IsMismatch reports whether s is the mismatch sentinel.
func (s *Shape) IsMismatch() bool { return s != nil && s.Kind == KindMismatch }

// IsUnknown reports whether s carries no information.
func (s *Shape) IsUnknown() bool { return s == nil || s.Kind == KindUnknown }

// Lookup finds an object field by name.
func (s *Shape) Lookup(name string) (Field, bool) {
	if s == nil || s.Kind != KindObject {
		return Field{}, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Keys lists the object's field names in declaration order. Unions report the
// keys of every option, first occurrence first.
func (s *Shape) Keys() []string {
	if s == nil {
		return nil
	}
	switch s.Kind {
	case KindObject:
		out := make([]string, 0, len(s.Fields))
		for _, f := range s.Fields {
			out = append(out, f.Name)
		}
		return out
	case KindUnion:
		seen := map[string]struct{}{}
		var out []string
		for _, o := range s.Options {
			for _, k := range o.Keys() {
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
		return out
	case KindReference:
		return []string{"_ref", "_type", "_weak"}
	}
	return nil
}

// String renders s as a compact type expression.
func (s *Shape) String() string {
	if s == nil {
		return "unknown"
	}
	var base string
	switch s.Kind {
	case KindUnknown:
		return "unknown"
	case KindNull:
		return "null"
	case KindMismatch:
		return "mismatch<" + s.Mismatch.Message + ">"
	case KindLiteral:
		switch v := s.Literal.(type) {
		case string:
			base = strconv.Quote(v)
		default:
			base = fmt.Sprint(v)
		}
	case KindObject:
		if s.Name != "" {
			base = s.Name
			break
		}
		parts := make([]string, 0, len(s.Fields))
		for _, f := range s.Fields {
			opt := ""
			if f.Optional {
				opt = "?"
			}
			parts = append(parts, f.Name+opt+": "+f.Shape.String())
		}
		if len(parts) == 0 {
			base = "{}"
		} else {
			base = "{ " + strings.Join(parts, "; ") + " }"
		}
	case KindArray:
		base = "Array<" + s.Elem.String() + ">"
	case KindReference:
		base = "Reference<" + s.Ref + ">"
	case KindUnion:
		parts := make([]string, 0, len(s.Options))
		for _, o := range s.Options {
			parts = append(parts, o.String())
		}
		base = strings.Join(parts, " | ")
	default:
		base = s.Kind.String()
	}
	if s.Nullable {
		return base + " | null"
	}
	return base
}

// referenceObject is what a reference looks like before it is dereferenced.
func referenceObject(r *Shape) *Shape {
	return &Shape{Kind: KindObject, Nullable: r.Nullable, Fields: []Field{
		F("_ref", String()),
		F("_type", Literal("reference")),
		Opt("_weak", Boolean()),
	}}
}
