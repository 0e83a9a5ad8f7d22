package validate_test

import (
	"context"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/groqb"
	"github.com/reoring/groqb/validate"
)

func issues(t *testing.T, err error) []groqb.Issue {
	t.Helper()
	ve, ok := groqb.AsValidationError(err)
	require.True(t, ok, "expected *groqb.ValidationError, got %v", err)
	return ve.Issues
}

func TestString(t *testing.T) {
	ctx := context.Background()
	s := validate.String().Min(2).Max(4)

	got, err := s.Parse(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	tests := []struct {
		in   any
		code string
		msg  string
	}{
		{123.0, groqb.CodeInvalidType, "Expected string, received 123"},
		{"a", groqb.CodeTooShort, `Expected at least 2 characters, received "a"`},
		{"abcde", groqb.CodeTooLong, `Expected at most 4 characters, received "abcde"`},
		{nil, groqb.CodeInvalidType, "Expected string, received null"},
	}
	for _, tt := range tests {
		_, err := s.Parse(ctx, tt.in)
		is := issues(t, err)
		require.Len(t, is, 1)
		assert.Equal(t, tt.code, is[0].Code)
		assert.Equal(t, tt.msg, is[0].Message)
		assert.True(t, is[0].Path.IsRoot())
	}

	// Length counts runes.
	_, err = s.Parse(ctx, "日本語")
	assert.NoError(t, err)
}

func TestNumber(t *testing.T) {
	ctx := context.Background()
	n := validate.Number().Min(0).Max(10)

	for _, in := range []any{3.5, 3, int64(3), uint8(3), json.Number("3")} {
		_, err := n.Parse(ctx, in)
		assert.NoError(t, err, "%T", in)
	}

	_, err := n.Parse(ctx, -1.0)
	assert.Equal(t, "Expected a number >= 0, received -1", issues(t, err)[0].Message)
	_, err = n.Parse(ctx, 11.0)
	assert.Equal(t, groqb.CodeTooBig, issues(t, err)[0].Code)
	_, err = n.Parse(ctx, "3")
	assert.Equal(t, groqb.CodeInvalidType, issues(t, err)[0].Code)
}

func TestInt(t *testing.T) {
	ctx := context.Background()
	got, err := validate.Int().Parse(ctx, 42.0)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)

	_, err = validate.Int().Parse(ctx, 4.2)
	assert.Equal(t, "Expected integer, received 4.2", issues(t, err)[0].Message)
}

func TestBoolean(t *testing.T) {
	got, err := validate.Boolean().Parse(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = validate.Boolean().Parse(context.Background(), "true")
	assert.Error(t, err)
}

func TestDate(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-01T10:20:30Z", time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"2024-03-01T10:20:30.5Z", time.Date(2024, 3, 1, 10, 20, 30, 5e8, time.UTC)},
		{"2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := validate.Date().Parse(ctx, tt.in)
		require.NoError(t, err, tt.in)
		assert.True(t, tt.want.Equal(got), tt.in)
	}

	_, err := validate.Date().Parse(ctx, "yesterday")
	assert.Equal(t, `Invalid date, received "yesterday"`, issues(t, err)[0].Message)
	_, err = validate.Date().Parse(ctx, 1.0)
	assert.Equal(t, groqb.CodeInvalidType, issues(t, err)[0].Code)
	assert.Equal(t, "date", validate.Date().Shape().String())
}

func TestLiteral(t *testing.T) {
	ctx := context.Background()
	_, err := validate.Literal("cat").Parse(ctx, "cat")
	assert.NoError(t, err)

	_, err = validate.Literal("cat").Parse(ctx, "dog")
	assert.Equal(t, `Expected "cat", received "dog"`, issues(t, err)[0].Message)

	got, err := validate.Literal(1).Parse(ctx, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Equal(t, "1", validate.Literal(1).Shape().String())
}

func TestArray(t *testing.T) {
	ctx := context.Background()
	a := validate.Array[string](validate.String()).Min(1)

	got, err := a.Parse(ctx, []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = a.Parse(ctx, []any{"a", 1.0, "c", true})
	is := issues(t, err)
	require.Len(t, is, 2)
	assert.Equal(t, "result[1]", is[0].Path.String())
	assert.Equal(t, "result[3]", is[1].Path.String())

	_, err = a.Parse(ctx, []any{})
	assert.Equal(t, "Expected at least 1 items, received array", issues(t, err)[0].Message)
	_, err = a.Parse(ctx, "a")
	assert.Equal(t, groqb.CodeInvalidType, issues(t, err)[0].Code)

	assert.Equal(t, "Array<string>", a.Shape().String())
}

func TestObject(t *testing.T) {
	ctx := context.Background()
	o := validate.Object(
		validate.Field("name", validate.String()),
		validate.Field("age", validate.Nullable[float64](validate.Number())),
		validate.Field("tags", validate.Array[string](validate.String())),
	)

	got, err := o.Parse(ctx, map[string]any{"name": "Ann", "tags": []any{"x"}, "extra": 1.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ann", "tags": []any{"x"}}, got)

	_, err = o.Parse(ctx, map[string]any{"name": 1.0, "tags": []any{"x", 2.0}})
	is := issues(t, err)
	require.Len(t, is, 2)
	assert.Equal(t, "result.name", is[0].Path.String())
	assert.Equal(t, "result.tags[1]", is[1].Path.String())

	shape := o.Shape()
	age, ok := shape.Lookup("age")
	require.True(t, ok)
	assert.True(t, age.Optional)
	assert.Equal(t, "number | null", age.Shape.String())
}

func TestNullableAndDefault(t *testing.T) {
	ctx := context.Background()
	n := validate.Nullable[string](validate.String())

	p, err := n.Parse(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = n.Parse(ctx, "x")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "x", *p)

	anyOut, err := n.ParseAny(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, anyOut)
	assert.Equal(t, "string | null", n.Shape().String())

	d := validate.Default[string](validate.String(), "anon")
	got, err := d.Parse(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "anon", got)
	assert.Equal(t, "string", d.Shape().String())
}

func TestUnion(t *testing.T) {
	ctx := context.Background()
	u := validate.Union(validate.String(), validate.Number())

	got, err := u.Parse(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got)

	got, err = u.Parse(ctx, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	_, err = u.Parse(ctx, true)
	assert.Equal(t, "Expected one of 2 alternatives, received true", issues(t, err)[0].Message)
	assert.Equal(t, "string | number", u.Shape().String())
}

func TestDiscriminatedUnion(t *testing.T) {
	ctx := context.Background()
	u := validate.DiscriminatedUnion("_type", map[string]any{
		"cat": validate.Object(validate.Field("_type", validate.Literal("cat")), validate.Field("lives", validate.Number())),
		"dog": validate.Object(validate.Field("_type", validate.Literal("dog")), validate.Field("good", validate.Boolean())),
	})

	got, err := u.Parse(ctx, map[string]any{"_type": "dog", "good": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"_type": "dog", "good": true}, got)

	_, err = u.Parse(ctx, map[string]any{"_type": "cat", "lives": "nine"})
	is := issues(t, err)
	assert.Equal(t, "result.lives", is[0].Path.String())

	_, err = u.Parse(ctx, map[string]any{"_type": "cow"})
	is = issues(t, err)
	require.Len(t, is, 1)
	assert.Equal(t, groqb.CodeDiscriminator, is[0].Code)
	assert.Equal(t, "result._type", is[0].Path.String())
	assert.Equal(t, `Expected _type to be one of "cat" | "dog", received "cow"`, is[0].Message)
}

func TestFuncAndUnknown(t *testing.T) {
	ctx := context.Background()
	f := validate.Func(func(v any) (int, error) { return 7, nil })
	got, err := f.Parse(ctx, "anything")
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.True(t, f.Shape().IsUnknown())

	out, err := validate.Unknown().ParseAny(ctx, map[string]any{"a": 1.0})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, out)
}
