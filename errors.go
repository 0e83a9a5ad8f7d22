package groqb

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/reoring/groqb/i18n"
	"github.com/reoring/groqb/schema"
)

// Issue codes (exported consts for IDE completion)
const (
	CodeInvalidType    = "invalid_type"
	CodeInvalidLiteral = "invalid_literal"
	CodeInvalidDate    = "invalid_date"
	CodeTooSmall       = "too_small"
	CodeTooBig         = "too_big"
	CodeTooShort       = "too_short"
	CodeTooLong        = "too_long"
	CodeNoMatch        = "no_match"
	CodeCustom         = "custom"
	CodeDiscriminator  = "invalid_union_discriminator"
)

// Issue represents a single validation failure.
type Issue struct {
	Path    Path   // Location relative to the validated value.
	Code    string // One of the codes listed above.
	Message string
	Value   any   // The offending input value.
	Cause   error // Optional: underlying error.
}

// ValidationError aggregates every failing leaf of one validation pass.
type ValidationError struct {
	Issues []Issue
}

// Error renders a header followed by one "path: message" line per issue, e.g.
//
//	1 Parsing Error:
//	result[0].id: Expected string, received 123
func (e *ValidationError) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "0 Parsing Errors"
	}
	b := &strings.Builder{}
	n := len(e.Issues)
	if n == 1 {
		b.WriteString("1 Parsing Error:")
	} else {
		fmt.Fprintf(b, "%d Parsing Errors:", n)
	}
	for _, it := range e.Issues {
		fmt.Fprintf(b, "\n%s: %s", it.Path, it.Message)
	}
	return b.String()
}

// Add records err at path. A *ValidationError is rebased under path; any other
// error becomes a single custom issue carrying value.
func (e *ValidationError) Add(path Path, value any, err error) {
	if err == nil {
		return
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		for _, it := range ve.Issues {
			it.Path = path.Join(it.Path)
			e.Issues = append(e.Issues, it)
		}
		return
	}
	e.Issues = append(e.Issues, Issue{Path: path, Code: CodeCustom, Message: err.Error(), Value: value, Cause: err})
}

// Len is the number of collected issues.
func (e *ValidationError) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Issues)
}

// Err returns nil when nothing was collected, or a copy of e.
func (e *ValidationError) Err() error {
	if e.Len() == 0 {
		return nil
	}
	return &ValidationError{Issues: append([]Issue(nil), e.Issues...)}
}

// ErrorCollector gathers (path, value, err) triples across a tree walk.
type ErrorCollector = ValidationError

// Rebase moves every issue of err under prefix. Plain errors become one issue
// at prefix. Nil in, nil out.
func Rebase(err error, prefix Path) *ValidationError {
	if err == nil {
		return nil
	}
	var c ErrorCollector
	c.Add(prefix, nil, err)
	return &c
}

// AsValidationError extracts a *ValidationError using errors.As internally.
func AsValidationError(err error) (*ValidationError, bool) {
	if err == nil {
		return nil, false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// NewIssue builds a single-issue error at the root of the validated value.
// The message comes from the i18n dictionary with data plus the rendered
// received value.
func NewIssue(code string, value any, data map[string]string) *ValidationError {
	d := make(map[string]string, len(data)+1)
	for k, v := range data {
		d[k] = v
	}
	d["received"] = DescribeValue(value)
	return &ValidationError{Issues: []Issue{{Path: ResultPath(), Code: code, Message: i18n.T(code, d), Value: value}}}
}

// DescribeValue renders v the way it appears in issue messages: strings quoted,
// numbers bare, containers by kind.
func DescribeValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(t)
	case fmt.Stringer:
		return t.String()
	case map[string]any:
		return "object"
	case []any:
		return "array"
	}
	return fmt.Sprintf("%T", v)
}

// BuildError reports a chain that cannot be constructed: a missing validator
// under validation-required mode, partially validated conditional branches or
// an unsupported projection value.
type BuildError struct {
	Op   string   // Operation name, e.g. "project".
	Keys []string // Offending projection keys, when relevant.
	Msg  string
}

func (e *BuildError) Error() string {
	if len(e.Keys) == 0 {
		return "groqb: " + e.Op + ": " + e.Msg
	}
	return fmt.Sprintf("groqb: %s: %s: %s", e.Op, e.Msg, strings.Join(quoteAll(e.Keys), ", "))
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strconv.Quote(s)
	}
	return out
}

// ShapeError lists the mismatches found on a node's result shape.
type ShapeError struct {
	Query      string
	Mismatches []schema.LocatedMismatch
}

func (e *ShapeError) Error() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "groqb: %d shape mismatch(es) in %q", len(e.Mismatches), e.Query)
	for _, m := range e.Mismatches {
		fmt.Fprintf(b, "\n%s: %s", m.Path, m.Mismatch)
	}
	return b.String()
}
