package validate

import (
	"context"
	"strconv"

	"github.com/reoring/groqb"
	"github.com/reoring/groqb/schema"
)

// ArraySchema validates every element with elem and reports failures under
// their index.
type ArraySchema[E any] struct {
	elem           Schema[E]
	min, max       int
	hasMin, hasMax bool
}

// Array returns an array validator over elem.
func Array[E any](elem Schema[E]) ArraySchema[E] { return ArraySchema[E]{elem: elem} }

func (s ArraySchema[E]) Min(n int) ArraySchema[E] { s.min, s.hasMin = n, true; return s }
func (s ArraySchema[E]) Max(n int) ArraySchema[E] { s.max, s.hasMax = n, true; return s }

func (s ArraySchema[E]) Parse(ctx context.Context, v any) ([]E, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, invalidType(v, "array")
	}
	if s.hasMin && len(arr) < s.min {
		return nil, groqb.NewIssue(groqb.CodeTooShort, v, map[string]string{"min": strconv.Itoa(s.min), "unit": "items"})
	}
	if s.hasMax && len(arr) > s.max {
		return nil, groqb.NewIssue(groqb.CodeTooLong, v, map[string]string{"max": strconv.Itoa(s.max), "unit": "items"})
	}
	out := make([]E, len(arr))
	var errs groqb.ErrorCollector
	for i, el := range arr {
		r, err := s.elem.Parse(ctx, el)
		if err != nil {
			errs.Add(groqb.ResultPath().Index(i), el, err)
			continue
		}
		out[i] = r
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s ArraySchema[E]) ParseAny(ctx context.Context, v any) (any, error) {
	typed, err := s.Parse(ctx, v)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(typed))
	for i, el := range typed {
		out[i] = el
	}
	return out, nil
}

func (s ArraySchema[E]) Shape() *schema.Shape { return schema.Array(s.elem.Shape()) }
