package template

import (
	"encoding/json"
	"errors"
	iofs "io/fs"
	"os"
	"testing"

	"github.com/santiagomed/devspark/internal/fs"
	"github.com/santiagomed/devspark/internal/logger"
	"github.com/santiagomed/devspark/internal/plan"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMissingKeys(t *testing.T) {
	ctx := ContextFromMap(map[string]any{"project_name": "Foo"})
	assert.Equal(t, "Hello Foo, ", ctx.Render("Hello {{project_name}}, {{missing}}"))
}

func TestRenderFiltersAndConditionals(t *testing.T) {
	ctx := NewContext("My App", map[string]string{"database": "postgres", "author": ""})
	tests := []struct {
		in, want string
	}{
		{"{{ project_name | upper }}", "MY APP"},
		{"{{ project_name | snake }}", "my_app"},
		{"{{ project_name | kebab }}", "my-app"},
		{"{{ title \"hello world\" }}", "Hello World"},
		{"{{ default \"anonymous\" author }}", "anonymous"},
		{"{{if database}}db={{database}}{{else}}none{{end}}", "db=postgres"},
		{"{{if cache}}cached{{end}}", ""},
		{"{{ replace \" \" \"\" project_name }}", "MyApp"},
		{"{{ .project_name }}", "My App"},
		{"plain text", "plain text"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ctx.Render(tt.in), tt.in)
	}
}

func TestRenderNeverLeavesPlaceholders(t *testing.T) {
	ctx := NewContext("demo", nil)
	assert.Equal(t, "a  b", ctx.Render("a {{ if }} b"))
	assert.Equal(t, "demo ", ctx.Render("{{project_name}} {{ unknown_func arg }}"))
	assert.Equal(t, "x", ctx.Render("x{{/* note */}}"))
}

func TestRenderKeepsBracesInValues(t *testing.T) {
	ctx := Context{"description": "renders {{user}} greetings"}
	assert.Equal(t, "renders {{user}} greetings", ctx.Render("{{description}}"))
	assert.Equal(t, "RENDERS {{USER}} GREETINGS", ctx.Render("{{ description | upper }}"))
	// the fallback path substitutes once and does not rescan values
	assert.Equal(t, "renders {{user}} greetings ", ctx.Render("{{description}} {{ unknown_func arg }}"))
}

func TestContextFromMap(t *testing.T) {
	ctx := ContextFromMap(map[string]any{"a": nil, "b": 3, "c": true, "d": "s"})
	assert.Equal(t, Context{"a": "", "b": "3", "c": "true", "d": "s"}, ctx)
}

func TestSubstituteJSONKeepsValidity(t *testing.T) {
	ctx := NewContext(`say "hi"`, map[string]string{"description": "line1\nline2"})
	out, err := SubstituteJSON(`{"name":"{{project_name}}","description":"{{description}}","private":true,"keywords":["{{project_name}}",1]}`, ctx)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, `say "hi"`, parsed["name"])
	assert.Equal(t, "line1\nline2", parsed["description"])
	assert.Equal(t, true, parsed["private"])
	assert.Equal(t, "{\n  \"name\": \"say \\\"hi\\\"\",\n  \"description\": \"line1\\nline2\",\n  \"private\": true,\n  \"keywords\": [\n    \"say \\\"hi\\\"\",\n    1\n  ]\n}\n", out)
}

const nodeTemplate = `{
  "name": "node-api",
  "language": "javascript",
  "directory_structure": ["src", "scripts"],
  "files_to_create": {
    "package.json": {"name": "{{project_name}}", "version": "1.0.0", "description": "{{description}}"},
    "src/index.js": "console.log('{{project_name}}');\n",
    "scripts/setup": "#!/bin/sh\necho {{project_name}}\n",
    "run.sh": "#!/bin/sh\nnode src/index.js\n",
    "README.md": "# {{project_name}}\n{{if description}}{{description}}{{end}}"
  }
}`

func newStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/templates/node-api.json", []byte(nodeTemplate), 0644))
	require.NoError(t, afero.WriteFile(mem, "/templates/notes.txt", []byte("ignored"), 0644))
	return NewStore(mem, "/templates"), mem
}

func TestStoreListAndLoad(t *testing.T) {
	store, mem := newStore(t)
	require.NoError(t, afero.WriteFile(mem, "/templates/flask.json", []byte(`{"files":[],"directories":[]}`), 0644))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"flask", "node-api"}, names)

	def, err := store.Load("node-api")
	require.NoError(t, err)
	assert.Equal(t, "javascript", def.Language)
	require.Len(t, def.FilesToCreate, 5)
	assert.Equal(t, "package.json", def.FilesToCreate[0].Path)
	assert.Equal(t, "README.md", def.FilesToCreate[4].Path)
	assert.JSONEq(t, nodeTemplate, def.String())

	flask, err := store.Load("flask")
	require.NoError(t, err)
	assert.Equal(t, "flask", flask.Name)
}

func TestStoreLoadMissing(t *testing.T) {
	store, _ := newStore(t)
	_, err := store.Load("rails")
	assert.True(t, errors.Is(err, iofs.ErrNotExist))

	_, err = store.Load("../secrets")
	assert.ErrorContains(t, err, "invalid template name")
}

func TestStoreListMissingDir(t *testing.T) {
	names, err := NewStore(afero.NewMemMapFs(), "/none").List()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestParseRejectsShapeless(t *testing.T) {
	_, err := Parse("x", []byte(`{"name": "x"}`))
	assert.Error(t, err)
	_, err = Parse("x", []byte(`{nope`))
	assert.Error(t, err)
}

func TestSubstitute(t *testing.T) {
	store, _ := newStore(t)
	def, err := store.Load("node-api")
	require.NoError(t, err)

	doc, err := Substitute(def, NewContext("shop", map[string]string{"description": `A "quoted" shop`}))
	require.NoError(t, err)
	pairs := doc.Pairs()

	var pkg map[string]string
	require.NoError(t, json.Unmarshal([]byte(pairs["package.json"]), &pkg))
	assert.Equal(t, "shop", pkg["name"])
	assert.Equal(t, `A "quoted" shop`, pkg["description"])
	assert.Equal(t, "console.log('shop');\n", pairs["src/index.js"])
	assert.Equal(t, "# shop\nA \"quoted\" shop", pairs["README.md"])
	assert.Equal(t, []string{"src", "scripts"}, doc.Directories)
}

func TestSubstituteCurrentShapeManifestString(t *testing.T) {
	def, err := Parse("py", []byte(`{
		"files": [{"path": "app.json", "content": "{\"name\": \"{{project_name}}\"}"}],
		"directories": [{"path": "{{project_name}}_pkg", "files": [{"path": "__init__.py", "content": "# {{project_name}}"}]}]
	}`))
	require.NoError(t, err)

	doc, err := Substitute(def, NewContext("demo", nil))
	require.NoError(t, err)
	assert.Equal(t, plan.SchemaCurrent, doc.Source)
	assert.Equal(t, "{\n  \"name\": \"demo\"\n}\n", doc.Pairs()["app.json"])
	assert.Equal(t, "# demo", doc.Pairs()["demo_pkg/__init__.py"])
}

func TestCreateProjectFromTemplate(t *testing.T) {
	store, mem := newStore(t)
	m := fs.NewMaterializer(fs.NewFileSystem(mem), logger.NewNullLogger())

	report, err := CreateProjectFromTemplate(store, m, "node-api", "/work", "shop", nil, nil)
	require.NoError(t, err)
	assert.True(t, report.OK())

	content, err := afero.ReadFile(mem, "/work/shop/src/index.js")
	require.NoError(t, err)
	assert.Equal(t, "console.log('shop');\n", string(content))

	if posix {
		for _, p := range []string{"/work/shop/run.sh", "/work/shop/scripts/setup"} {
			info, err := mem.Stat(p)
			require.NoError(t, err)
			assert.Equal(t, os.FileMode(0755), info.Mode().Perm(), p)
		}
		info, err := mem.Stat("/work/shop/README.md")
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	}
}

func TestCreateProjectFromTemplateLeavesContextAlone(t *testing.T) {
	store, mem := newStore(t)
	m := fs.NewMaterializer(fs.NewFileSystem(mem), nil)
	ctx := Context{"author": "ana"}

	_, err := CreateProjectFromTemplate(store, m, "node-api", "/work", "shop", ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, Context{"author": "ana"}, ctx)
}

func TestCreateProjectFromMissingTemplate(t *testing.T) {
	store, mem := newStore(t)
	m := fs.NewMaterializer(fs.NewFileSystem(mem), nil)
	_, err := CreateProjectFromTemplate(store, m, "rails", "/work", "shop", nil, nil)
	assert.ErrorIs(t, err, iofs.ErrNotExist)
	exists, _ := afero.DirExists(mem, "/work/shop")
	assert.False(t, exists)
}

func TestSaveRoundTrip(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "/tpl")
	doc := plan.Document{
		Directories: []string{"src"},
		Files:       []plan.File{{Path: "src/main.go", Content: "package main // {{project_name}}\n"}},
	}
	def, err := FromDocument("go-cli", "Go CLI", "go", doc)
	require.NoError(t, err)
	_, err = store.Save(def)
	require.NoError(t, err)

	loaded, err := store.Load("go-cli")
	require.NoError(t, err)
	assert.Equal(t, "go", loaded.Language)
	out, err := Substitute(loaded, NewContext("tool", nil))
	require.NoError(t, err)
	assert.Equal(t, "package main // tool\n", out.Pairs()["src/main.go"])
}
