package schema_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/groqb/schema"
)

func TestNewRegistry_ImplicitFields(t *testing.T) {
	reg := schema.MustRegistry(schema.Document{Name: "tag", Fields: []schema.Field{schema.F("label", schema.String())}})
	tag := doc(t, reg, "tag")
	assert.Equal(t, []string{"_id", "_type", "_rev", "_createdAt", "_updatedAt", "label"}, tag.Keys())
	assert.Equal(t, "tag", tag.String())
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name string
		docs []schema.Document
		want string
	}{
		{
			name: "duplicate document",
			docs: []schema.Document{{Name: "a"}, {Name: "a"}},
			want: `duplicate document "a"`,
		},
		{
			name: "shadowed implicit field",
			docs: []schema.Document{{Name: "a", Fields: []schema.Field{schema.F("_id", schema.Number())}}},
			want: `duplicate field "_id"`,
		},
		{
			name: "unknown reference",
			docs: []schema.Document{{Name: "a", Fields: []schema.Field{schema.F("b", schema.Array(schema.Reference("ghost")))}}},
			want: `references unknown type "ghost"`,
		},
		{
			name: "missing name",
			docs: []schema.Document{{}},
			want: "document name is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.NewRegistry(tt.docs...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistry_NilIsEmpty(t *testing.T) {
	var reg *schema.Registry
	_, ok := reg.Document("x")
	assert.False(t, ok)
	assert.Empty(t, reg.Documents())
	assert.True(t, reg.All().IsUnknown())
	assert.True(t, reg.OfTypes("x").IsUnknown())
	assert.True(t, reg.Deref(schema.Reference("x")).IsUnknown())
}

func TestRegistry_Deref(t *testing.T) {
	reg := testRegistry(t)

	one := reg.Deref(schema.Reference("person"))
	assert.Equal(t, "person", one.Name)

	many := reg.Deref(schema.Array(schema.Reference("person")))
	assert.Equal(t, "Array<person>", many.String())

	optional := reg.Deref(schema.Reference("person").OrNull())
	assert.True(t, optional.Nullable)

	notRef := reg.Deref(schema.String())
	require.True(t, notRef.IsMismatch())
	assert.Equal(t, "only references can be dereferenced", notRef.Mismatch.Message)
}

func TestRegistry_OfTypes(t *testing.T) {
	reg := testRegistry(t)
	assert.Equal(t, "person | pet", reg.OfTypes("person", "pet").String())
	assert.Equal(t, []string{"person", "pet"}, reg.SortedDocuments())

	bad := reg.OfTypes("car")
	require.True(t, bad.IsMismatch())
	assert.Equal(t, "one of: person | pet", bad.Mismatch.Expected)
}

func TestLoadYAML(t *testing.T) {
	f, err := os.Open("testdata/blog.yaml")
	require.NoError(t, err)
	defer f.Close()

	reg, err := schema.LoadYAML(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"author", "post"}, reg.Documents())

	author := doc(t, reg, "author")
	bio, _ := author.Lookup("bio")
	assert.True(t, bio.Optional)
	assert.Equal(t, "string | null", schema.At(author, "avatar").String())

	post := doc(t, reg, "post")
	assert.Equal(t, `"draft" | "published"`, schema.At(post, "status").String())
	assert.Equal(t, "Array<string>", schema.At(post, "tags").String())
	assert.Equal(t, "date | null", schema.At(post, "publishedAt").String())
	assert.Equal(t, "Reference<author>", schema.At(post, "author").String())
	assert.Equal(t, "Array<Reference<post>>", schema.At(post, "related").String())
	assert.Equal(t, "boolean | null", schema.At(post, "seo.noindex").String())

	keys := post.Keys()
	assert.Equal(t, "title", keys[5], "declaration order follows the file")
}

func TestLoadYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "", "empty YAML document"},
		{"unknown key", "docs: []", "field docs not found"},
		{"unknown type", "documents:\n  - name: a\n    fields:\n      x: strnig\n", `unknown type "strnig"`},
		{"reference without target", "documents:\n  - name: a\n    fields:\n      x: {type: reference}\n", `reference requires "to"`},
		{"dangling reference", "documents:\n  - name: a\n    fields:\n      x: {type: reference, to: b}\n", `unknown type "b"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.LoadYAML(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadCUE(t *testing.T) {
	src, err := os.ReadFile("testdata/blog.cue")
	require.NoError(t, err)

	reg, err := schema.LoadCUE(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"author", "post"}, reg.Documents())

	author := doc(t, reg, "author")
	bio, ok := author.Lookup("bio")
	require.True(t, ok)
	assert.True(t, bio.Optional)
	assert.Equal(t, "string | null", schema.At(author, "avatar").String())

	post := doc(t, reg, "post")
	assert.Equal(t, schema.KindNumber, schema.At(post, "views").Kind)
	assert.Equal(t, schema.KindBoolean, schema.At(post, "featured").Kind)
	assert.Equal(t, `"article"`, schema.At(post, "kind").String())
	assert.Equal(t, "date | null", schema.At(post, "publishedAt").String())
	assert.Equal(t, "Reference<author>", schema.At(post, "author").String())
	assert.True(t, schema.IsArray(schema.At(post, "tags")))
}

func TestLoadCUE_Errors(t *testing.T) {
	_, err := schema.LoadCUE([]byte("documents: {"))
	require.Error(t, err)

	_, err = schema.LoadCUE([]byte("types: {}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no documents struct")
}
