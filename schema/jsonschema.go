package schema

import (
	js "github.com/reoring/groqb/jsonschema"
)

// JSONSchema exports s. References export as their {_ref, _type} object and a
// mismatch as an empty schema annotated with its message.
func (s *Shape) JSONSchema() *js.Schema {
	out := toJSONSchema(s, 0)
	if s != nil && s.Name != "" {
		out.Title = s.Name
	}
	out.Schema = js.Draft
	return out
}

func toJSONSchema(s *Shape, depth int) *js.Schema {
	if s == nil || depth > maxPathDepth {
		return &js.Schema{}
	}
	var out *js.Schema
	switch s.Kind {
	case KindUnknown:
		return &js.Schema{}
	case KindMismatch:
		return &js.Schema{Description: "mismatch: " + s.Mismatch.Message}
	case KindNull:
		return &js.Schema{Type: "null"}
	case KindString:
		out = &js.Schema{Type: "string"}
	case KindNumber:
		out = &js.Schema{Type: "number"}
	case KindBoolean:
		out = &js.Schema{Type: "boolean"}
	case KindDate:
		out = &js.Schema{Type: "string", Format: "date-time"}
	case KindLiteral:
		out = &js.Schema{Const: s.Literal}
	case KindArray:
		out = &js.Schema{Type: "array", Items: toJSONSchema(s.Elem, depth+1)}
	case KindReference:
		ref := referenceObject(s)
		ref.Nullable = false
		out = toJSONSchema(ref, depth+1)
		out.Description = "reference to " + s.Ref
	case KindObject:
		out = &js.Schema{Type: "object", Properties: make(map[string]*js.Schema, len(s.Fields))}
		for _, f := range s.Fields {
			out.Properties[f.Name] = toJSONSchema(f.Shape, depth+1)
			if !f.Optional {
				out.Required = append(out.Required, f.Name)
			}
		}
	case KindUnion:
		out = &js.Schema{}
		for _, o := range s.Options {
			out.AnyOf = append(out.AnyOf, toJSONSchema(o, depth+1))
		}
	default:
		return &js.Schema{}
	}
	if s.Nullable {
		return js.Nullable(out)
	}
	return out
}
