package schema

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Document declares one document type: its name (the `_type` value) and its
// user-defined fields.
type Document struct {
	Name   string
	Fields []Field
}

// Registry holds the document shapes of one dataset. A Registry is immutable
// after construction and safe for concurrent use. The nil *Registry is valid
// and knows no documents.
type Registry struct {
	order  []string
	byName map[string]*Shape
}

// implicitFields are present on every stored document.
func implicitFields(name string) []Field {
	return []Field{
		F("_id", String()),
		F("_type", Literal(name)),
		F("_rev", String()),
		F("_createdAt", Date()),
		F("_updatedAt", Date()),
	}
}

// NewRegistry builds a registry. Duplicate names and fields that shadow the
// implicit underscore fields are rejected.
func NewRegistry(docs ...Document) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Shape, len(docs))}
	for _, d := range docs {
		if d.Name == "" {
			return nil, fmt.Errorf("schema: document name is required")
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate document %q", d.Name)
		}
		fields := implicitFields(d.Name)
		seen := map[string]struct{}{}
		for _, f := range fields {
			seen[f.Name] = struct{}{}
		}
		for _, f := range d.Fields {
			if _, ok := seen[f.Name]; ok {
				return nil, fmt.Errorf("schema: document %q: duplicate field %q", d.Name, f.Name)
			}
			seen[f.Name] = struct{}{}
			if f.Shape == nil {
				f.Shape = Unknown()
			}
			fields = append(fields, f)
		}
		r.byName[d.Name] = &Shape{Kind: KindObject, Name: d.Name, Fields: fields}
		r.order = append(r.order, d.Name)
	}
	if err := r.checkRefs(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error.
func MustRegistry(docs ...Document) *Registry {
	r, err := NewRegistry(docs...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) checkRefs() error {
	for _, name := range r.order {
		var bad string
		visitRefs(r.byName[name], func(to string) {
			if _, ok := r.byName[to]; !ok && bad == "" {
				bad = to
			}
		}, 0)
		if bad != "" {
			return fmt.Errorf("schema: document %q references unknown type %q", name, bad)
		}
	}
	return nil
}

func visitRefs(s *Shape, fn func(string), depth int) {
	if s == nil || depth > maxPathDepth {
		return
	}
	switch s.Kind {
	case KindReference:
		fn(s.Ref)
	case KindObject:
		for _, f := range s.Fields {
			visitRefs(f.Shape, fn, depth+1)
		}
	case KindArray:
		visitRefs(s.Elem, fn, depth+1)
	case KindUnion:
		for _, o := range s.Options {
			visitRefs(o, fn, depth+1)
		}
	}
}

// Document returns the shape of the named document type.
func (r *Registry) Document(name string) (*Shape, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.byName[name]
	return s, ok
}

// Documents lists the registered type names in registration order.
func (r *Registry) Documents() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.order...)
}

// SortedDocuments lists the registered type names alphabetically.
func (r *Registry) SortedDocuments() []string {
	out := r.Documents()
	sort.Strings(out)
	return out
}

// All is the union of every document shape; Unknown for an empty registry.
func (r *Registry) All() *Shape {
	if r == nil || len(r.order) == 0 {
		return Unknown()
	}
	opts := make([]*Shape, 0, len(r.order))
	for _, n := range r.order {
		opts = append(opts, r.byName[n])
	}
	return Union(opts...)
}

// OfTypes is the union of the named documents. Unknown names yield a mismatch.
func (r *Registry) OfTypes(names ...string) *Shape {
	if r == nil || len(r.order) == 0 {
		return Unknown()
	}
	opts := make([]*Shape, 0, len(names))
	for _, n := range names {
		s, ok := r.byName[n]
		if !ok {
			return NewMismatch(fmt.Sprintf("unknown document type %q", n), "one of: "+joinNames(r.order), strconv.Quote(n))
		}
		opts = append(opts, s)
	}
	return Union(opts...)
}

// Deref resolves references: a reference becomes its document, an array of
// references an array of documents. Anything else is a mismatch.
func (r *Registry) Deref(s *Shape) *Shape {
	if s == nil || s.Kind == KindUnknown {
		return Unknown()
	}
	switch s.Kind {
	case KindMismatch:
		return s
	case KindReference:
		doc, ok := r.Document(s.Ref)
		if !ok {
			if r == nil {
				return Unknown()
			}
			return NewMismatch(fmt.Sprintf("unknown document type %q", s.Ref), "one of: "+joinNames(r.order), strconv.Quote(s.Ref))
		}
		return withNull(doc, s.Nullable)
	case KindArray:
		inner := r.Deref(s.Elem)
		if inner.Kind == KindMismatch {
			return inner
		}
		return withNull(Array(inner), s.Nullable)
	case KindUnion:
		out := make([]*Shape, 0, len(s.Options))
		for _, o := range s.Options {
			d := r.Deref(o)
			if d.Kind == KindMismatch {
				return d
			}
			out = append(out, d)
		}
		u := Union(out...)
		return withNull(u, s.Nullable)
	}
	return NewMismatch("only references can be dereferenced", "reference", s.String())
}

func joinNames(names []string) string { return strings.Join(names, " | ") }
