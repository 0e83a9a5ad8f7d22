// Package fixture answers GROQ queries from canned results, for tests and
// offline tooling.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/reoring/groqb"
)

// ErrNoFixture is returned for a query no fixture matches.
var ErrNoFixture = errors.New("fixture: no fixture for query")

// Fixture is one canned answer. A nil Params matches any parameters.
type Fixture struct {
	Query  string         `yaml:"query"`
	Params map[string]any `yaml:"params"`
	Result any            `yaml:"result"`
	Error  string         `yaml:"error"`
}

// Call records one execution.
type Call struct {
	Query  string
	Params map[string]any
}

// Executor matches queries by exact text.
type Executor struct {
	mu       sync.Mutex
	fixtures []Fixture
	calls    []Call
}

// New returns an executor serving fixtures in order; the first match wins.
func New(fixtures ...Fixture) *Executor {
	out := make([]Fixture, len(fixtures))
	for i, f := range fixtures {
		f.Params = normalizeMap(f.Params)
		f.Result = normalize(f.Result)
		out[i] = f
	}
	return &Executor{fixtures: out}
}

// LoadYAML reads a list of fixtures:
//
//	- query: '*[_type == "person"] { name }'
//	  result:
//	    - name: Ada
func LoadYAML(r io.Reader) (*Executor, error) {
	var fs []Fixture
	if err := yaml.NewDecoder(r).Decode(&fs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("fixture: decode yaml: %w", err)
	}
	return New(fs...), nil
}

// Execute implements groqb.Executor.
func (e *Executor) Execute(_ context.Context, query string, opts groqb.RunOptions) (any, error) {
	params := normalizeMap(opts.Parameters)
	e.mu.Lock()
	e.calls = append(e.calls, Call{Query: query, Params: params})
	e.mu.Unlock()
	for _, f := range e.fixtures {
		if f.Query != query {
			continue
		}
		if f.Params != nil && !reflect.DeepEqual(f.Params, params) {
			continue
		}
		if f.Error != "" {
			return nil, errors.New(f.Error)
		}
		return f.Result, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoFixture, query)
}

// Calls lists every execution so far.
func (e *Executor) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

func normalizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out, _ := normalize(m).(map[string]any)
	return out
}

// normalize makes YAML-decoded values look JSON-decoded: numbers as float64,
// maps keyed by string.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = normalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = normalize(vv)
		}
		return out
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	}
	return v
}
