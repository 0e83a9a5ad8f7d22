package jsonschema

// Schema is a minimal JSON Schema representation used when exporting document
// shapes. Only the keywords a GROQ result can need are modelled.
type Schema struct {
	// Core
	Schema      string `json:"$schema,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Type        any    `json:"type,omitempty"` // string, or []string when nullable
	Format      string `json:"format,omitempty"`
	Const       any    `json:"const,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`

	// Union
	AnyOf []*Schema `json:"anyOf,omitempty"`
}

// Draft is the dialect stamped on top-level exports.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Nullable returns s widened to also accept null.
func Nullable(s *Schema) *Schema {
	if s == nil {
		return &Schema{Type: "null"}
	}
	if t, ok := s.Type.(string); ok && s.Const == nil {
		c := *s
		c.Type = []string{t, "null"}
		return &c
	}
	return &Schema{AnyOf: []*Schema{s, {Type: "null"}}}
}
