// Package validate provides the built-in validators used with projections,
// fields and Node.Validate. Each validator parses raw JSON-decoded data into a
// typed Go value and declares the shape it produces, so a query's result shape
// follows the validators attached to it.
//
//	q.Star().FilterByType("person").Project(groqb.Projection{
//		{Key: "name", Value: validate.String()},
//		{Key: "age", Value: validate.Nullable[float64](validate.Number().Min(0))},
//	})
//
// Failures are *groqb.ValidationError values whose paths are relative to the
// validated value; the caller rebases them.
package validate

import (
	"context"

	"github.com/reoring/groqb"
	"github.com/reoring/groqb/schema"
)

// Schema is a typed validator.
type Schema[T any] interface {
	Parse(ctx context.Context, v any) (T, error)
	ParseAny(ctx context.Context, v any) (any, error)
	Shape() *schema.Shape
}

// Validator is the generic Schema implementation behind the function-based
// constructors.
type Validator[T any] struct {
	parse func(context.Context, any) (T, error)
	shape *schema.Shape
}

// New wraps parse as a validator declaring shape (nil means unknown).
func New[T any](shape *schema.Shape, parse func(ctx context.Context, v any) (T, error)) Validator[T] {
	if shape == nil {
		shape = schema.Unknown()
	}
	return Validator[T]{parse: parse, shape: shape}
}

// Func adapts a plain function.
func Func[T any](fn func(v any) (T, error)) Validator[T] {
	return New(nil, func(_ context.Context, v any) (T, error) { return fn(v) })
}

func (v Validator[T]) Parse(ctx context.Context, in any) (T, error) { return v.parse(ctx, in) }

func (v Validator[T]) ParseAny(ctx context.Context, in any) (any, error) {
	out, err := v.parse(ctx, in)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (v Validator[T]) Shape() *schema.Shape { return v.shape }

// Unknown accepts anything unchanged.
func Unknown() Validator[any] {
	return New(schema.Unknown(), func(_ context.Context, v any) (any, error) { return v, nil })
}

func invalidType(v any, expected string) error {
	return groqb.NewIssue(groqb.CodeInvalidType, v, map[string]string{"expected": expected})
}
