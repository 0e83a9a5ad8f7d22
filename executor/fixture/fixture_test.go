package fixture_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/groqb"
	"github.com/reoring/groqb/executor/fixture"
)

const fixturesYAML = `
- query: '*[_type == "person"] { name, age }'
  result:
    - name: Ann
      age: 30
- query: '*[_type == "person"][name == $name][0]'
  params:
    name: Bo
  result:
    name: Bo
- query: '*[_type == "person"][name == $name][0]'
  result: null
- query: 'count(*)'
  error: upstream unavailable
`

func load(t *testing.T) *fixture.Executor {
	t.Helper()
	fx, err := fixture.LoadYAML(strings.NewReader(fixturesYAML))
	require.NoError(t, err)
	return fx
}

func TestExecute_NormalizesNumbers(t *testing.T) {
	fx := load(t)
	res, err := fx.Execute(context.Background(), `*[_type == "person"] { name, age }`, groqb.RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"name": "Ann", "age": 30.0}}, res)
}

func TestExecute_MatchesParams(t *testing.T) {
	fx := load(t)
	q := `*[_type == "person"][name == $name][0]`

	res, err := fx.Execute(context.Background(), q, groqb.RunOptions{Parameters: map[string]any{"name": "Bo"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Bo"}, res)

	res, err = fx.Execute(context.Background(), q, groqb.RunOptions{Parameters: map[string]any{"name": "Cy"}})
	require.NoError(t, err)
	assert.Nil(t, res)

	calls := fx.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, map[string]any{"name": "Cy"}, calls[1].Params)
}

func TestExecute_Errors(t *testing.T) {
	fx := load(t)
	_, err := fx.Execute(context.Background(), "count(*)", groqb.RunOptions{})
	assert.EqualError(t, err, "upstream unavailable")

	_, err = fx.Execute(context.Background(), "*", groqb.RunOptions{})
	assert.True(t, errors.Is(err, fixture.ErrNoFixture))
}

func TestNew_IntParams(t *testing.T) {
	fx := fixture.New(fixture.Fixture{Query: "*[0...$n]", Params: map[string]any{"n": 2}, Result: []any{1, 2}})
	res, err := fx.Execute(context.Background(), "*[0...$n]", groqb.RunOptions{Parameters: map[string]any{"n": int64(2)}})
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 2.0}, res)
}

func TestLoadYAML_Invalid(t *testing.T) {
	_, err := fixture.LoadYAML(strings.NewReader("query: x"))
	assert.ErrorContains(t, err, "fixture: decode yaml")

	fx, err := fixture.LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, fx.Calls())
}
