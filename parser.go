package groqb

import (
	"context"
	"fmt"
	"reflect"

	"github.com/reoring/groqb/schema"
)

// Parser is the normalized validator signature shared by every node.
type Parser func(ctx context.Context, v any) (any, error)

// AnyParser is implemented by validators that already speak the untyped form.
type AnyParser interface {
	ParseAny(ctx context.Context, v any) (any, error)
}

// Shaped is implemented by validators that declare the shape they produce.
type Shaped interface {
	Shape() *schema.Shape
}

var (
	ctxType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// NormalizeValidator turns any supported validator form into a Parser:
// Parser, func(any) (any, error), func(context.Context, any) (any, error),
// AnyParser, a function with a typed input/output, or a value with a method
// Parse(context.Context, any) (T, error).
func NormalizeValidator(v any) (Parser, bool) {
	switch fn := v.(type) {
	case nil:
		return nil, false
	case Parser:
		return fn, fn != nil
	case func(context.Context, any) (any, error):
		return fn, fn != nil
	case func(any) (any, error):
		if fn == nil {
			return nil, false
		}
		return func(_ context.Context, in any) (any, error) { return fn(in) }, true
	case AnyParser:
		return fn.ParseAny, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func {
		if rv.IsNil() {
			return nil, false
		}
		return funcParser(rv)
	}
	if m := rv.MethodByName("Parse"); m.IsValid() {
		return funcParser(m)
	}
	return nil, false
}

// funcParser adapts func([ctx,] In) (Out, error) through reflection.
func funcParser(fn reflect.Value) (Parser, bool) {
	t := fn.Type()
	if t.NumOut() != 2 || t.Out(1) != errorType {
		return nil, false
	}
	withCtx := false
	switch {
	case t.NumIn() == 2 && t.In(0) == ctxType:
		withCtx = true
	case t.NumIn() == 1:
	default:
		return nil, false
	}
	inType := t.In(t.NumIn() - 1)
	return func(ctx context.Context, in any) (any, error) {
		arg, err := argValue(inType, in)
		if err != nil {
			return nil, err
		}
		args := []reflect.Value{arg}
		if withCtx {
			args = []reflect.Value{reflect.ValueOf(&ctx).Elem(), arg}
		}
		out := fn.Call(args)
		if e, _ := out[1].Interface().(error); e != nil {
			return nil, e
		}
		return out[0].Interface(), nil
	}, true
}

func argValue(t reflect.Type, in any) (reflect.Value, error) {
	if in == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, NewIssue(CodeInvalidType, in, map[string]string{"expected": t.String()})
	}
	rv := reflect.ValueOf(in)
	if rv.Type().AssignableTo(t) {
		if t.Kind() == reflect.Interface {
			v := reflect.New(t).Elem()
			v.Set(rv)
			return v, nil
		}
		return rv, nil
	}
	return reflect.Value{}, NewIssue(CodeInvalidType, in, map[string]string{"expected": t.String()})
}

// MustNormalize is NormalizeValidator that panics on unsupported input.
func MustNormalize(v any) Parser {
	p, ok := NormalizeValidator(v)
	if !ok {
		panic(&BuildError{Op: "validate", Msg: fmt.Sprintf("unsupported validator %T", v)})
	}
	return p
}

// ChainParsers runs a, then b on a's output. Either may be nil.
func ChainParsers(a, b Parser) Parser {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v any) (any, error) {
		mid, err := a(ctx, v)
		if err != nil {
			return nil, err
		}
		return b(ctx, mid)
	}
}

// NullableParser lets nil through untouched and hands everything else to p.
func NullableParser(p Parser) Parser {
	if p == nil {
		return nil
	}
	return func(ctx context.Context, v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		return p(ctx, v)
	}
}

// EachParser applies p to every element of an array input, collecting issues
// under their index. Non-array inputs go to p directly.
func EachParser(p Parser) Parser {
	if p == nil {
		return nil
	}
	return func(ctx context.Context, v any) (any, error) {
		arr, ok := v.([]any)
		if !ok {
			return p(ctx, v)
		}
		out := make([]any, len(arr))
		var errs ErrorCollector
		for i, el := range arr {
			r, err := p(ctx, el)
			if err != nil {
				errs.Add(ResultPath().Index(i), el, err)
				continue
			}
			out[i] = r
		}
		if err := errs.Err(); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// shapeOf reports the shape a validator declares, or nil.
func shapeOf(v any) *schema.Shape {
	if s, ok := v.(Shaped); ok {
		return s.Shape()
	}
	return nil
}
