package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/groqb/i18n"
)

const blogYAML = `documents:
  - name: author
    fields:
      name: string
      bio: string?
  - name: post
    fields:
      title: string
      author: {type: reference, to: author}
      seo:
        type: object
        fields:
          noindex: boolean
`

const fixturesYAML = `- query: '*[_type == "author"][name == $name] { name }'
  params:
    name: Ada
  result:
    - name: Ada
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(func() { i18n.SetLanguage("en") })
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestSchemaShow(t *testing.T) {
	file := writeFile(t, "blog.yaml", blogYAML)
	out, _, err := execute(t, "schema", "show", file)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "author\n"))
	assert.Contains(t, out, "  bio?: string")
	assert.Contains(t, out, "\npost\n")
	assert.Contains(t, out, "  author: Reference<author>\n")
}

func TestSchemaPaths(t *testing.T) {
	file := writeFile(t, "blog.yaml", blogYAML)
	out, _, err := execute(t, "schema", "paths", file, "post")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "_id", lines[0])
	assert.Contains(t, lines, "title")
	assert.Contains(t, lines, "seo.noindex")

	_, _, err = execute(t, "schema", "paths", file, "comment")
	assert.EqualError(t, err, `unknown document type "comment" (have author, post)`)
}

func TestSchemaJSONSchema(t *testing.T) {
	file := writeFile(t, "blog.yaml", blogYAML)
	out, _, err := execute(t, "schema", "jsonschema", file, "author")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, "author", doc["title"])
	assert.Contains(t, doc["properties"], "bio")
}

func TestLoadSchemaFile_UnsupportedExtension(t *testing.T) {
	_, err := LoadSchemaFile(writeFile(t, "blog.json", "{}"))
	assert.ErrorContains(t, err, "unsupported schema file")
}

func TestQuery_Fixtures(t *testing.T) {
	fx := writeFile(t, "fixtures.yaml", fixturesYAML)
	out, _, err := execute(t, "query", "--fixtures", fx, "-p", "name=Ada",
		`*[_type == "author"][name == $name] { name }`)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"name": "Ada"}]`, out)
}

func TestQuery_NoFixtureMatch(t *testing.T) {
	fx := writeFile(t, "fixtures.yaml", fixturesYAML)
	_, _, err := execute(t, "query", "--fixtures", fx, "*")
	assert.ErrorContains(t, err, "no fixture for query")
}

func TestRoot_InvalidLogFormat(t *testing.T) {
	_, _, err := execute(t, "--log-format", "xml", "schema", "show", "x.yaml")
	assert.EqualError(t, err, `invalid log format "xml": must be one of [text json]`)
}

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"name=Ada", "$limit=3", "tags=[\"a\"]", "flag=true", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":  "Ada",
		"limit": 3.0,
		"tags":  []any{"a"},
		"flag":  true,
		"empty": "",
	}, got)

	_, err = parseParams([]string{"novalue"})
	assert.EqualError(t, err, `invalid --param "novalue": want name=value`)
	_, err = parseParams([]string{"=x"})
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig("", nil)
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.Dataset)
		assert.Equal(t, "2021-10-21", cfg.APIVersion)
		assert.Zero(t, cfg.RateLimit)
	})

	t.Run("file then env then flags", func(t *testing.T) {
		file := writeFile(t, "groqb.yaml", "project_id: fromfile\ndataset: staging\nrate_limit: 2.5\n")
		t.Setenv("GROQB_DATASET", "fromenv")
		t.Setenv("GROQB_TOKEN", "tok")

		cmd := NewQueryCommand(&RootOptions{})
		require.NoError(t, cmd.ParseFlags([]string{"--project", "fromflag", "--cdn"}))

		cfg, err := LoadConfig(file, cmd)
		require.NoError(t, err)
		assert.Equal(t, "fromflag", cfg.ProjectID)
		assert.Equal(t, "fromenv", cfg.Dataset)
		assert.Equal(t, "tok", cfg.Token)
		assert.True(t, cfg.UseCDN)
		assert.Equal(t, 2.5, cfg.RateLimit)

		hc := cfg.httpConfig()
		assert.Equal(t, "fromflag", hc.ProjectID)
		assert.True(t, hc.UseCDN)
	})

	t.Run("bad file", func(t *testing.T) {
		_, err := LoadConfig(writeFile(t, "groqb.yaml", "project_id: [unterminated"), nil)
		assert.ErrorContains(t, err, "read config")
	})
}
