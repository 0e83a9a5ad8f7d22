package validate

import (
	"context"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/reoring/groqb"
	"github.com/reoring/groqb/schema"
)

// StringSchema validates strings, optionally bounded in length (runes).
type StringSchema struct {
	min, max       int
	hasMin, hasMax bool
}

// String returns the string validator.
func String() StringSchema { return StringSchema{} }

func (s StringSchema) Min(n int) StringSchema { s.min, s.hasMin = n, true; return s }
func (s StringSchema) Max(n int) StringSchema { s.max, s.hasMax = n, true; return s }

func (s StringSchema) Parse(_ context.Context, v any) (string, error) {
	str, ok := v.(string)
	if !ok {
		return "", invalidType(v, "string")
	}
	n := utf8.RuneCountInString(str)
	if s.hasMin && n < s.min {
		return "", groqb.NewIssue(groqb.CodeTooShort, v, map[string]string{"min": strconv.Itoa(s.min), "unit": "characters"})
	}
	if s.hasMax && n > s.max {
		return "", groqb.NewIssue(groqb.CodeTooLong, v, map[string]string{"max": strconv.Itoa(s.max), "unit": "characters"})
	}
	return str, nil
}

func (s StringSchema) ParseAny(ctx context.Context, v any) (any, error) {
	out, err := s.Parse(ctx, v)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (StringSchema) Shape() *schema.Shape { return schema.String() }

// NumberSchema validates numbers and returns them as float64.
type NumberSchema struct {
	min, max       float64
	hasMin, hasMax bool
}

// Number accepts every Go numeric type and json.Number-like values.
func Number() NumberSchema { return NumberSchema{} }

func (s NumberSchema) Min(n float64) NumberSchema { s.min, s.hasMin = n, true; return s }
func (s NumberSchema) Max(n float64) NumberSchema { s.max, s.hasMax = n, true; return s }

func (s NumberSchema) Parse(_ context.Context, v any) (float64, error) {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return 0, invalidType(v, "number")
	}
	if s.hasMin && f < s.min {
		return 0, groqb.NewIssue(groqb.CodeTooSmall, v, map[string]string{"min": formatFloat(s.min)})
	}
	if s.hasMax && f > s.max {
		return 0, groqb.NewIssue(groqb.CodeTooBig, v, map[string]string{"max": formatFloat(s.max)})
	}
	return f, nil
}

func (s NumberSchema) ParseAny(ctx context.Context, v any) (any, error) {
	out, err := s.Parse(ctx, v)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (NumberSchema) Shape() *schema.Shape { return schema.Number() }

// Int accepts integral numbers.
func Int() Validator[int64] {
	return New(schema.Number(), func(_ context.Context, v any) (int64, error) {
		f, ok := toFloat(v)
		if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
			return 0, invalidType(v, "integer")
		}
		return int64(f), nil
	})
}

// Boolean accepts true and false.
func Boolean() Validator[bool] {
	return New(schema.Boolean(), func(_ context.Context, v any) (bool, error) {
		b, ok := v.(bool)
		if !ok {
			return false, invalidType(v, "boolean")
		}
		return b, nil
	})
}

// Date parses ISO-8601 strings (RFC3339, with or without fractional seconds,
// or a bare YYYY-MM-DD) into time.Time.
func Date() Validator[time.Time] {
	return New(schema.Date(), func(_ context.Context, v any) (time.Time, error) {
		switch t := v.(type) {
		case time.Time:
			return t, nil
		case string:
			if tm, err := parseDate(t); err == nil {
				return tm, nil
			}
			return time.Time{}, groqb.NewIssue(groqb.CodeInvalidDate, v, nil)
		}
		return time.Time{}, invalidType(v, "date string")
	})
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err == nil {
		return t, nil
	}
	if t2, err2 := time.Parse(time.RFC3339, s); err2 == nil {
		return t2, nil
	}
	if t3, err3 := time.Parse(time.DateOnly, s); err3 == nil {
		return t3, nil
	}
	return time.Time{}, err
}

// Literal accepts exactly want. Numbers compare by value across Go types.
func Literal[T comparable](want T) Validator[T] {
	return New(schema.Literal(literalShapeValue(want)), func(_ context.Context, v any) (T, error) {
		if got, ok := v.(T); ok && got == want {
			return want, nil
		}
		if wf, ok := toFloat(want); ok {
			if gf, ok := toFloat(v); ok && gf == wf {
				return want, nil
			}
		}
		var zero T
		return zero, groqb.NewIssue(groqb.CodeInvalidLiteral, v, map[string]string{"expected": groqb.DescribeValue(want)})
	})
}

func literalShapeValue(v any) any {
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}

type floater interface{ Float64() (float64, error) }

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case floater:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
