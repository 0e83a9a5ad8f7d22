package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// segment is one step of a field path: a.b, a[], a[2].
type segment struct {
	name  string
	each  bool
	index int
	isIdx bool
}

func (s segment) String() string {
	switch {
	case s.each:
		return "[]"
	case s.isIdx:
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.name
}

// parsePath splits "a.b[].c[0]" into segments. Malformed brackets are kept as
// part of the field name so that lookups fail with a mismatch instead of an
// error.
func parsePath(path string) []segment {
	var out []segment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			continue
		}
		name := part
		var tail []segment
		for strings.HasSuffix(name, "]") {
			open := strings.LastIndex(name, "[")
			if open < 0 {
				break
			}
			inner := name[open+1 : len(name)-1]
			switch {
			case inner == "":
				tail = append([]segment{{each: true}}, tail...)
			default:
				n, err := strconv.Atoi(inner)
				if err != nil {
					return append(out, segment{name: part})
				}
				tail = append([]segment{{index: n, isIdx: true}}, tail...)
			}
			name = name[:open]
		}
		if name != "" {
			out = append(out, segment{name: name})
		}
		out = append(out, tail...)
	}
	return out
}

// Paths lists every path reachable on s: object keys joined with ".", and the
// "[]" form for arrays (which maps over the elements). References are leaves.
func Paths(s *Shape) []string {
	var out []string
	seen := map[string]struct{}{}
	collectPaths("", s, &out, seen, 0)
	return out
}

const maxPathDepth = 12

func collectPaths(prefix string, s *Shape, out *[]string, seen map[string]struct{}, depth int) {
	if s == nil || depth > maxPathDepth {
		return
	}
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		*out = append(*out, p)
	}
	switch s.Kind {
	case KindObject:
		for _, f := range s.Fields {
			p := f.Name
			if prefix != "" {
				p = prefix + "." + f.Name
			}
			add(p)
			collectPaths(p, f.Shape, out, seen, depth+1)
		}
	case KindArray:
		p := prefix + "[]"
		if prefix == "" {
			return
		}
		add(p)
		collectPaths(p, s.Elem, out, seen, depth+1)
	case KindUnion:
		for _, o := range s.Options {
			collectPaths(prefix, o, out, seen, depth)
		}
	}
}

// At resolves the shape found at path on s. Field access on an array maps over
// its elements, "[]" flattens, "[n]" picks one (nullable) element. Unknown keys
// yield a mismatch shape naming the keys that do exist.
func At(s *Shape, path string) *Shape {
	segs := parsePath(path)
	if len(segs) == 0 {
		return s
	}
	out, _ := at(s, segs, "")
	return out
}

// at returns the resolved shape and whether it came out of a "[]" traversal,
// in which case nested arrays are flattened by the caller.
func at(s *Shape, segs []segment, walked string) (*Shape, bool) {
	if len(segs) == 0 {
		return s, false
	}
	if s == nil || s.Kind == KindUnknown {
		return Unknown(), false
	}
	if s.Kind == KindMismatch {
		return s, false
	}
	seg, rest := segs[0], segs[1:]
	here := joinWalked(walked, seg)

	switch {
	case seg.each:
		if s.Kind != KindArray {
			return NewMismatch(fmt.Sprintf("%q is not an array", orRoot(walked)), "array", s.String()), false
		}
		inner, flat := at(s.Elem, rest, here)
		if inner.Kind == KindMismatch {
			return inner, false
		}
		if flat && inner.Kind == KindArray {
			inner = inner.Elem
		}
		return withNull(Array(inner), s.Nullable), true
	case seg.isIdx:
		if s.Kind != KindArray {
			return NewMismatch(fmt.Sprintf("%q is not an array", orRoot(walked)), "array", s.String()), false
		}
		return at(s.Elem.OrNull(), rest, here)
	}

	switch s.Kind {
	case KindArray:
		inner, flat := at(s.Elem, segs, walked)
		if inner.Kind == KindMismatch {
			return inner, false
		}
		if flat && inner.Kind == KindArray {
			inner = inner.Elem
		}
		return withNull(Array(inner), s.Nullable), flat
	case KindUnion:
		var found []*Shape
		var firstMiss *Shape
		missing := false
		for _, o := range s.Options {
			r, _ := at(o, segs, walked)
			if r.Kind == KindMismatch {
				if firstMiss == nil {
					firstMiss = r
				}
				missing = true
				continue
			}
			found = append(found, r)
		}
		if len(found) == 0 {
			if firstMiss != nil {
				return NewMismatch(firstMiss.Mismatch.Message, strings.Join(s.Keys(), " | "), firstMiss.Mismatch.Actual), false
			}
			return Unknown(), false
		}
		u := Union(found...)
		if missing || s.Nullable {
			u = u.OrNull()
		}
		return u, false
	case KindReference:
		return at(referenceObject(s), segs, walked)
	case KindObject:
		f, ok := s.Lookup(seg.name)
		if !ok {
			keys := s.Keys()
			expected := "one of: " + strings.Join(keys, " | ")
			if len(keys) == 0 {
				expected = "no fields"
			}
			return NewMismatch(fmt.Sprintf("field %q does not exist on %s", here, describe(s)), expected, strconv.Quote(seg.name)), false
		}
		fs := f.Shape
		if fs == nil {
			fs = Unknown()
		}
		if f.Optional || s.Nullable {
			fs = fs.OrNull()
		}
		return at(fs, rest, here)
	}
	return NewMismatch(fmt.Sprintf("cannot access %q on %s", seg.name, s.Kind), "object", s.String()), false
}

func joinWalked(walked string, seg segment) string {
	if seg.each || seg.isIdx || walked == "" {
		return walked + seg.String()
	}
	return walked + "." + seg.String()
}

func orRoot(walked string) string {
	if walked == "" {
		return "@"
	}
	return walked
}

func describe(s *Shape) string {
	if s.Name != "" {
		return strconv.Quote(s.Name)
	}
	return "object"
}

func withNull(s *Shape, nullable bool) *Shape {
	if nullable {
		return s.OrNull()
	}
	return s
}

// IsArray reports whether s is an array shape.
func IsArray(s *Shape) bool { return s != nil && s.Kind == KindArray }

// Elem unwraps an array shape; other shapes are returned unchanged.
func Elem(s *Shape) *Shape {
	if IsArray(s) {
		return s.Elem
	}
	if s == nil {
		return Unknown()
	}
	return s
}

// MapElem applies fn to the element of an array shape, or to s itself.
func MapElem(s *Shape, fn func(*Shape) *Shape) *Shape {
	if IsArray(s) {
		return withNull(Array(fn(s.Elem)), s.Nullable)
	}
	return fn(s)
}

// Merge overlays the fields of overlay onto base. Unions distribute over their
// options. Merging onto a non-object yields a mismatch.
func Merge(base, overlay *Shape) *Shape {
	if base == nil || base.Kind == KindUnknown {
		if overlay == nil {
			return Unknown()
		}
		return overlay
	}
	if base.Kind == KindMismatch {
		return base
	}
	if overlay == nil || overlay.Kind == KindUnknown {
		return base
	}
	if overlay.Kind == KindMismatch {
		return overlay
	}
	if base.Kind == KindUnion {
		out := make([]*Shape, 0, len(base.Options))
		for _, o := range base.Options {
			out = append(out, Merge(o, overlay))
		}
		return Union(out...)
	}
	if overlay.Kind == KindUnion {
		out := make([]*Shape, 0, len(overlay.Options))
		for _, o := range overlay.Options {
			out = append(out, Merge(base, o))
		}
		return Union(out...)
	}
	if base.Kind == KindReference {
		base = referenceObject(base)
	}
	if base.Kind != KindObject || overlay.Kind != KindObject {
		return NewMismatch("only objects can be merged", "object", base.String())
	}
	fields := make([]Field, 0, len(base.Fields)+len(overlay.Fields))
	for _, f := range base.Fields {
		if _, over := overlay.Lookup(f.Name); over {
			continue
		}
		fields = append(fields, f)
	}
	fields = append(fields, overlay.Fields...)
	return &Shape{Kind: KindObject, Fields: fields}
}

// Narrow restricts s to values whose field equals lit. Union options that
// cannot carry lit are dropped; a matching object field becomes the literal.
func Narrow(s *Shape, field string, lit any) *Shape {
	if s == nil || s.Kind == KindUnknown || s.Kind == KindMismatch {
		return s
	}
	switch s.Kind {
	case KindUnion:
		var kept []*Shape
		for _, o := range s.Options {
			n := Narrow(o, field, lit)
			if n.Kind == KindMismatch {
				continue
			}
			kept = append(kept, n)
		}
		if len(kept) == 0 {
			return NewMismatch(fmt.Sprintf("no option has %s == %v", field, lit), strings.Join(s.Keys(), " | "), fmt.Sprint(lit))
		}
		return Union(kept...)
	case KindObject:
		f, ok := s.Lookup(field)
		if !ok {
			return NewMismatch(fmt.Sprintf("field %q does not exist on %s", field, describe(s)), "one of: "+strings.Join(s.Keys(), " | "), strconv.Quote(field))
		}
		if !Accepts(f.Shape, Literal(lit)) {
			return NewMismatch(fmt.Sprintf("%s can never equal %v", field, lit), f.Shape.String(), fmt.Sprint(lit))
		}
		c := s.clone()
		c.Fields = make([]Field, len(s.Fields))
		copy(c.Fields, s.Fields)
		for i := range c.Fields {
			if c.Fields[i].Name == field {
				c.Fields[i] = Field{Name: field, Shape: Literal(lit)}
			}
		}
		return c
	}
	return s
}

// Accepts reports whether a value described by got can appear where want is
// declared. Unknown on either side is accepted.
func Accepts(want, got *Shape) bool {
	if want == nil || got == nil || want.Kind == KindUnknown || got.Kind == KindUnknown {
		return true
	}
	if want.Kind == KindMismatch || got.Kind == KindMismatch {
		return false
	}
	if got.Kind == KindNull {
		return want.Nullable || want.Kind == KindNull
	}
	if got.Kind == KindUnion {
		for _, o := range got.Options {
			if !Accepts(want, o) {
				return false
			}
		}
		return true
	}
	if want.Kind == KindUnion {
		for _, o := range want.Options {
			if Accepts(o, got) {
				return true
			}
		}
		return false
	}
	switch want.Kind {
	case KindLiteral:
		return got.Kind == KindLiteral && fmt.Sprint(got.Literal) == fmt.Sprint(want.Literal)
	case KindString, KindDate:
		if got.Kind == KindLiteral {
			_, ok := got.Literal.(string)
			return ok
		}
		return got.Kind == KindString || got.Kind == KindDate
	case KindNumber:
		if got.Kind == KindLiteral {
			switch got.Literal.(type) {
			case int, int64, float64, float32, int32:
				return true
			}
			return false
		}
		return got.Kind == KindNumber
	case KindBoolean:
		if got.Kind == KindLiteral {
			_, ok := got.Literal.(bool)
			return ok
		}
		return got.Kind == KindBoolean
	case KindArray:
		return got.Kind == KindArray && Accepts(want.Elem, got.Elem)
	case KindObject:
		return got.Kind == KindObject || got.Kind == KindReference
	case KindReference:
		return got.Kind == KindReference || got.Kind == KindObject
	case KindNull:
		return got.Kind == KindNull
	}
	return false
}

// Compatible checks a validator's declared output against the shape the query
// produces for the same value. The validator wins when they agree; otherwise
// the mismatch sentinel is returned.
func Compatible(declared, validator *Shape) *Shape {
	if validator == nil || validator.Kind == KindUnknown {
		if declared == nil {
			return Unknown()
		}
		return declared
	}
	if declared == nil || declared.Kind == KindUnknown {
		return validator
	}
	if declared.Kind == KindMismatch {
		return declared
	}
	if Accepts(validator, declared.NonNull()) || Accepts(declared, validator) {
		return validator
	}
	return NewMismatch("validator does not match the selected value", declared.String(), validator.String())
}

// LocatedMismatch is a mismatch found while walking a shape.
type LocatedMismatch struct {
	Path string
	Mismatch
}

// Mismatches walks s and reports every mismatch sentinel with its location.
func Mismatches(s *Shape) []LocatedMismatch {
	var out []LocatedMismatch
	walkMismatches("", s, &out, 0)
	return out
}

func walkMismatches(path string, s *Shape, out *[]LocatedMismatch, depth int) {
	if s == nil || depth > maxPathDepth {
		return
	}
	switch s.Kind {
	case KindMismatch:
		p := path
		if p == "" {
			p = "@"
		}
		*out = append(*out, LocatedMismatch{Path: p, Mismatch: *s.Mismatch})
	case KindObject:
		for _, f := range s.Fields {
			p := f.Name
			if path != "" {
				p = path + "." + f.Name
			}
			walkMismatches(p, f.Shape, out, depth+1)
		}
	case KindArray:
		walkMismatches(path+"[]", s.Elem, out, depth+1)
	case KindUnion:
		for _, o := range s.Options {
			walkMismatches(path, o, out, depth+1)
		}
	}
}
