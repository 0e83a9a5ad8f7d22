package validate

import (
	"context"

	"github.com/reoring/groqb/schema"
)

// NullableSchema lets null through and validates everything else with the
// wrapped schema. Parse yields a nil pointer for null; ParseAny yields an
// untyped nil or the inner value.
type NullableSchema[T any] struct {
	inner Schema[T]
}

// Nullable wraps s so that null is accepted.
func Nullable[T any](s Schema[T]) NullableSchema[T] { return NullableSchema[T]{inner: s} }

// Optional is Nullable: GROQ reports a missing attribute as null.
func Optional[T any](s Schema[T]) NullableSchema[T] { return Nullable(s) }

func (n NullableSchema[T]) Parse(ctx context.Context, v any) (*T, error) {
	if v == nil {
		return nil, nil
	}
	out, err := n.inner.Parse(ctx, v)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (n NullableSchema[T]) ParseAny(ctx context.Context, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	return n.inner.ParseAny(ctx, v)
}

func (n NullableSchema[T]) Shape() *schema.Shape { return n.inner.Shape().OrNull() }

// Default replaces null with def before validating with s.
func Default[T any](s Schema[T], def T) Validator[T] {
	return New(s.Shape().NonNull(), func(ctx context.Context, v any) (T, error) {
		if v == nil {
			return def, nil
		}
		return s.Parse(ctx, v)
	})
}
