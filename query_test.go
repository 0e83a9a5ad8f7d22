package groqb_test

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/groqb"
	"github.com/reoring/groqb/schema"
	"github.com/reoring/groqb/validate"
)

func testRegistry() *schema.Registry {
	return schema.MustRegistry(
		schema.Document{Name: "person", Fields: []schema.Field{
			schema.F("name", schema.String()),
			schema.F("age", schema.Number()),
			schema.F("friends", schema.Array(schema.Reference("person"))),
			schema.Opt("pet", schema.Reference("pet")),
		}},
		schema.Document{Name: "pet", Fields: []schema.Field{
			schema.F("name", schema.String()),
			schema.F("species", schema.Union(schema.Literal("cat"), schema.Literal("dog"))),
		}},
	)
}

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestQueryText_Golden(t *testing.T) {
	q := groqb.New(testRegistry())
	people := q.Star().FilterByType("person")

	tests := []struct {
		name string
		node *groqb.Node
	}{
		{"star", q.Star()},
		{"filter_by_type", people},
		{"filter_by_types", q.Star().FilterByType("person", "pet")},
		{"project_fields", people.Project(groqb.Projection{{Key: "name", Value: true}, {Key: "age", Value: true}})},
		{"project_alias", people.Project(groqb.Projection{{Key: "fullName", Value: "name"}, {Key: "name", Value: "name"}})},
		{"project_spread", q.Star().Project(groqb.Projection{{Key: groqb.Spread, Value: true}, {Key: "label", Value: "name"}})},
		{"order_slice_range", people.Order("name asc", "age desc").SliceRange(0, 10)},
		{"slice_inclusive", people.SliceRange(0, 10, true)},
		{"slice_one", people.Slice(0)},
		{"deref", people.ProjectFn(func(sub *groqb.Node) groqb.Projection {
			return groqb.Projection{{Key: "friendNames", Value: sub.Field("friends[]").Deref().Field("name")}}
		})},
		{"deref_single", people.ProjectFn(func(sub *groqb.Node) groqb.Projection {
			return groqb.Projection{{Key: "petName", Value: sub.Field("pet").Deref().Field("name")}}
		})},
		{"conditional_by_type", q.Star().ProjectFn(func(sub *groqb.Node) groqb.Projection {
			return groqb.Projection{
				{Key: "_id", Value: true},
				sub.ConditionalByType([]groqb.TypeBranch{
					{Type: "person", Value: groqb.Projection{{Key: "name", Value: true}}},
					{Type: "pet", Value: groqb.Projection{{Key: "species", Value: true}}},
				}),
			}
		})},
		{"select", people.ProjectFn(func(sub *groqb.Node) groqb.Projection {
			return groqb.Projection{{Key: "label", Value: sub.Select(
				[]groqb.Branch{{Condition: "age > 18", Value: sub.Value("adult")}},
				sub.Value("minor"),
			)}}
		})},
		{"count", q.Star().FilterByType("pet").Count()},
		{"score", people.Score(`name match "A*"`)},
		{"filter_param", people.Filter("name == " + groqb.Var("name"))},
		{"filter_by", q.Star().FilterBy(`_type == "pet"`).FilterBy(`species == "cat"`)},
		{"indent", groqb.New(testRegistry(), groqb.WithIndent("  ")).Star().FilterByType("person").
			Project(groqb.Projection{{Key: "name", Value: true}, {Key: "age", Value: true}})},
	}
	g := newGolden(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.Assert(t, tt.name, []byte(tt.node.Query()))
		})
	}
}

func TestNode_Immutable(t *testing.T) {
	q := groqb.New(testRegistry())
	base := q.Star().FilterByType("person")
	before := base.Query()

	a := base.Order("name asc")
	b := base.Order("age desc")
	c := base.Project(groqb.Projection{{Key: "name", Value: validate.String()}})

	assert.Equal(t, before, base.Query())
	assert.Nil(t, base.Parser(), "projecting must not attach a parser to the source node")
	assert.Equal(t, before+" | order(name asc)", a.Query())
	assert.Equal(t, before+" | order(age desc)", b.Query())
	assert.NotNil(t, c.Parser())

	// Declaring parameters on a derived root leaves the original untouched.
	withParams := q.Parameters(groqb.Param{Name: "slug", Shape: schema.String()})
	assert.Empty(t, q.Params())
	assert.Len(t, withParams.Params(), 1)
}

func TestNode_Concurrent(t *testing.T) {
	base := groqb.New(testRegistry()).Star().FilterByType("person")
	done := make(chan string, 8)
	for i := range 8 {
		go func() {
			done <- base.SliceRange(0, i).Query()
		}()
	}
	seen := map[string]bool{}
	for range 8 {
		seen[<-done] = true
	}
	assert.Len(t, seen, 8)
	assert.Equal(t, `*[_type == "person"]`, base.Query())
}

func TestShapes(t *testing.T) {
	q := groqb.New(testRegistry())
	people := q.Star().FilterByType("person")

	assert.Equal(t, "Array<person>", people.Shape().String())
	assert.Equal(t, "person | null", people.Slice(0).Shape().String())
	assert.Equal(t, "Array<person>", people.SliceRange(0, 2).Shape().String())
	assert.Equal(t, "number", people.Count().Shape().String())
	assert.Equal(t, "Array<string>", people.Field("name").Shape().String())

	projected := people.Project(groqb.Projection{{Key: "name", Value: true}, {Key: "years", Value: "age"}})
	assert.Equal(t, "Array<{ name: string; years: number }>", projected.Shape().String())

	deref := people.ProjectFn(func(sub *groqb.Node) groqb.Projection {
		return groqb.Projection{{Key: "pet", Value: sub.Field("pet").Deref()}}
	})
	assert.Equal(t, "Array<{ pet: pet | null }>", deref.Shape().String())

	scored := people.Score("name match $q")
	_, ok := schema.Elem(scored.Shape()).Lookup("_score")
	assert.True(t, ok)

	cats := q.Star().FilterByType("pet").FilterBy(`species == "cat"`)
	assert.Equal(t, `"cat"`, schema.At(schema.Elem(cats.Shape()), "species").String())
}

func TestMismatch_DoesNotPanic(t *testing.T) {
	q := groqb.New(testRegistry())
	people := q.Star().FilterByType("person")

	tests := []struct {
		name string
		node *groqb.Node
		want string
	}{
		{"unknown field", people.Field("nope"), `field "nope" does not exist on "person"`},
		{"unknown type", q.Star().FilterByType("car"), "no option has _type == car"},
		{"projection key", people.Project(groqb.Projection{{Key: "nope", Value: true}}), `field "nope" does not exist`},
		{"validator", people.Project(groqb.Projection{{Key: "age", Value: validate.String()}}), "validator does not match the selected value"},
		{"order key", people.Order("nope asc"), `field "nope" does not exist`},
		{"order direction", people.Order("name sideways"), "invalid sort direction"},
		{"deref non-reference", people.Field("name").Deref(), "only references can be dereferenced"},
		{"count non-array", people.Slice(0).Count(), "count requires an array"},
		{"filter form", people.FilterBy("age > 3"), "unsupported filter expression"},
		{"fragment", q.Fragment("car"), `unknown document type "car"`},
		{"param", q.Param("missing"), `parameter "missing" is not declared`},
		{"no types", people.FilterByType(), "filterByType requires at least one type"},
		{"no sort keys", people.Order(), "order requires at least one sort key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := tt.node.Mismatches()
			require.NotEmpty(t, ms)
			assert.Contains(t, ms[0].Message, tt.want)

			err := tt.node.Check()
			var se *groqb.ShapeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.node.Query(), se.Query)
		})
	}

	assert.NoError(t, people.Field("name").Check())
	assert.Equal(t, people.Query(), people.FilterByType().Query())
	assert.Equal(t, people.Query(), people.Order().Query())
	assert.Error(t, groqb.New(nil).Star().Order().Check())
}

func TestNode_ZeroValue(t *testing.T) {
	var n groqb.Node
	r := groqb.Root{Node: &n}
	assert.NotPanics(t, func() {
		assert.Nil(t, n.Registry())
		assert.Equal(t, "*", r.Star().Query())
		assert.Equal(t, `[_type == "a"]`, n.FilterByType("a").Query())
		assert.Equal(t, "ref->", n.Field("ref").Deref().Query())

		p, err := r.Star().ProjectE(groqb.Projection{{Key: "a", Value: true}})
		require.NoError(t, err)
		assert.Equal(t, "* { a }", p.Query())

		_, err = n.Sub().ConditionalByTypeE([]groqb.TypeBranch{
			{Type: "a", Value: groqb.Projection{{Key: "name", Value: validate.String()}}},
		})
		require.NoError(t, err)
	})
}

func TestUnknownRegistry_AllowsAnything(t *testing.T) {
	q := groqb.New(nil)
	n := q.Star().FilterByType("anything").Field("whatever").Slice(0)
	assert.NoError(t, n.Check())
	assert.True(t, n.Shape().IsUnknown())
	assert.Equal(t, `*[_type == "anything"].whatever[0]`, n.Query())
}

func TestFragment(t *testing.T) {
	q := groqb.New(testRegistry())
	frag := q.Fragment("person").Project(groqb.Projection{{Key: "name", Value: true}})
	assert.Equal(t, " { name }", frag.Query())
	assert.Equal(t, "{ name: string }", frag.Shape().String())
}

func TestParameters(t *testing.T) {
	q := groqb.New(testRegistry()).Parameters(
		groqb.Param{Name: "slug", Shape: schema.String()},
		groqb.Param{Name: "limit", Shape: schema.Number(), Optional: true},
	)
	assert.Equal(t, "$slug", q.Param("slug").Query())
	assert.Equal(t, "string", q.Param("slug").Shape().String())
	assert.Equal(t, "number | null", q.Param("limit").Shape().String())

	n := q.Star().FilterByType("person")
	require.Len(t, n.Params(), 2)
	assert.Equal(t, "slug", n.Params()[0].Name)
}

func TestValue(t *testing.T) {
	q := groqb.New(nil)
	assert.Equal(t, `"x"`, q.Value("x").Query())
	assert.Equal(t, "3", q.Value(3).Query())
	assert.Equal(t, "null", q.Value(nil).Query())
	assert.Equal(t, `"x"`, q.Value("x").Shape().String())
}
