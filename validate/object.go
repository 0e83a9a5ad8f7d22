package validate

import (
	"context"

	"github.com/reoring/groqb"
	"github.com/reoring/groqb/schema"
)

// FieldDef is one key of an Object validator.
type FieldDef struct {
	name   string
	parser groqb.Parser
	shape  *schema.Shape
}

// Field declares key name validated by v (any form groqb.NormalizeValidator
// accepts). It panics on an unsupported validator.
func Field(name string, v any) FieldDef {
	s, _ := v.(groqb.Shaped)
	var shape *schema.Shape
	if s != nil {
		shape = s.Shape()
	}
	return FieldDef{name: name, parser: groqb.MustNormalize(v), shape: shape}
}

// ObjectSchema validates maps key by key. Missing keys reach their validator
// as nil and unknown keys are dropped.
type ObjectSchema struct {
	fields []FieldDef
}

// Object returns an object validator with fields in declaration order.
func Object(fields ...FieldDef) ObjectSchema {
	return ObjectSchema{fields: append([]FieldDef(nil), fields...)}
}

func (o ObjectSchema) Parse(ctx context.Context, v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, invalidType(v, "object")
	}
	out := make(map[string]any, len(o.fields))
	var errs groqb.ErrorCollector
	for _, f := range o.fields {
		raw, present := m[f.name]
		r, err := f.parser(ctx, raw)
		if err != nil {
			errs.Add(groqb.ResultPath().Field(f.name), raw, err)
			continue
		}
		if present || r != nil {
			out[f.name] = r
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (o ObjectSchema) ParseAny(ctx context.Context, v any) (any, error) {
	out, err := o.Parse(ctx, v)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (o ObjectSchema) Shape() *schema.Shape {
	fields := make([]schema.Field, 0, len(o.fields))
	for _, f := range o.fields {
		s := f.shape
		if s == nil {
			s = schema.Unknown()
		}
		fields = append(fields, schema.Field{Name: f.name, Shape: s, Optional: s.Nullable})
	}
	return schema.Object(fields...)
}
