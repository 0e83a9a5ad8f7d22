package groqb

import (
	"strconv"
	"strings"
)

// Path locates a value inside a query result. Paths are values: Field and Index
// return extended copies and never modify the receiver.
type Path struct {
	parts []pathPart
}

type pathPart struct {
	key   string
	index int
	isIdx bool
}

// ResultPath is the empty path; it renders as "result".
func ResultPath() Path { return Path{} }

func (p Path) Field(name string) Path {
	if name == "" {
		return p
	}
	return Path{parts: append(append([]pathPart{}, p.parts...), pathPart{key: name})}
}

func (p Path) Index(i int) Path {
	return Path{parts: append(append([]pathPart{}, p.parts...), pathPart{index: i, isIdx: true})}
}

// Join appends q's segments to p.
func (p Path) Join(q Path) Path {
	if len(q.parts) == 0 {
		return p
	}
	if len(p.parts) == 0 {
		return q
	}
	return Path{parts: append(append([]pathPart{}, p.parts...), q.parts...)}
}

// IsRoot reports whether p has no segments.
func (p Path) IsRoot() bool { return len(p.parts) == 0 }

// String renders JS-style: result, result.author.name, result[0].id. Keys that
// are not identifiers use bracket notation.
func (p Path) String() string {
	b := strings.Builder{}
	b.WriteString("result")
	for _, s := range p.parts {
		switch {
		case s.isIdx:
			b.WriteString("[" + strconv.Itoa(s.index) + "]")
		case isIdent(s.key):
			b.WriteString("." + s.key)
		default:
			b.WriteString("[" + strconv.Quote(s.key) + "]")
		}
	}
	return b.String()
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
