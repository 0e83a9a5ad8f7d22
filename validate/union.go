package validate

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/reoring/groqb"
	"github.com/reoring/groqb/schema"
)

type option struct {
	parser groqb.Parser
	shape  *schema.Shape
}

func toOption(v any) option {
	o := option{parser: groqb.MustNormalize(v), shape: schema.Unknown()}
	if s, ok := v.(groqb.Shaped); ok {
		o.shape = s.Shape()
	}
	return o
}

// Union tries each validator in order; the first success wins.
func Union(validators ...any) Validator[any] {
	opts := make([]option, 0, len(validators))
	shapes := make([]*schema.Shape, 0, len(validators))
	for _, v := range validators {
		o := toOption(v)
		opts = append(opts, o)
		shapes = append(shapes, o.shape)
	}
	return New(schema.Union(shapes...), func(ctx context.Context, v any) (any, error) {
		for _, o := range opts {
			if out, err := o.parser(ctx, v); err == nil {
				return out, nil
			}
		}
		return nil, groqb.NewIssue(groqb.CodeNoMatch, v, map[string]string{"count": strconv.Itoa(len(opts))})
	})
}

// DiscriminatedUnion picks the validator for an object by the string value of
// key.
func DiscriminatedUnion(key string, variants map[string]any) Validator[any] {
	tags := make([]string, 0, len(variants))
	for tag := range variants {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	mapping := make(map[string]option, len(variants))
	shapes := make([]*schema.Shape, 0, len(variants))
	for _, tag := range tags {
		o := toOption(variants[tag])
		mapping[tag] = o
		shapes = append(shapes, o.shape)
	}
	quoted := make([]string, len(tags))
	for i, t := range tags {
		quoted[i] = strconv.Quote(t)
	}
	expected := strings.Join(quoted, " | ")

	return New(schema.Union(shapes...), func(ctx context.Context, v any) (any, error) {
		m, ok := v.(map[string]any)
		if !ok {
			return nil, invalidType(v, "object")
		}
		tag, _ := m[key].(string)
		o, ok := mapping[tag]
		if !ok {
			err := groqb.NewIssue(groqb.CodeDiscriminator, m[key], map[string]string{"key": key, "expected": expected})
			err.Issues[0].Path = groqb.ResultPath().Field(key)
			return nil, err
		}
		return o.parser(ctx, v)
	})
}
