package core

import (
	"strings"
	"testing"

	"github.com/santiagomed/devspark/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScaffoldPrompt(t *testing.T) {
	r := &ProjectRequest{Name: "inventory", Type: "web app", Language: "Python", Extra: map[string]string{"zeta": "1", "alpha": "2"}}
	p := ScaffoldPrompt(r)

	assert.True(t, strings.HasPrefix(p, "Create a project structure for a web app project named inventory using Python as the primary language."))
	assert.Contains(t, p, `"files": [`)
	assert.Contains(t, p, `"directories": [`)
	assert.NotContains(t, p, "files_to_create")
	for _, want := range []string{"Configuration files", "Test directory structure", "Documentation files"} {
		assert.Contains(t, p, want)
	}
	assert.Less(t, strings.Index(p, "alpha: 2"), strings.Index(p, "zeta: 1"))

	for i := 0; i < 10; i++ {
		assert.Equal(t, p, ScaffoldPrompt(r))
	}
}

func TestReviewPrompt(t *testing.T) {
	p := ReviewPrompt("key: value", "yaml")
	assert.True(t, strings.HasPrefix(p, "Review this yaml configuration file"))
	assert.Contains(t, p, "key: value\n")
	assert.Contains(t, p, `"best_practices"`)
	assert.Contains(t, p, `{"severity": "high|medium|low", "message": "description"}`)
}

func TestFileType(t *testing.T) {
	tests := map[string]string{
		"Dockerfile":           "Dockerfile",
		"build/dockerfile":     "Dockerfile",
		"config.yaml":          "yaml",
		"/etc/nginx/site.CONF": "CONF",
		"Makefile":             "unknown",
		".env":                 "env",
	}
	for path, want := range tests {
		assert.Equal(t, want, FileType(path), path)
	}
}

func TestWantsDatabase(t *testing.T) {
	for _, d := range []string{"Add a Postgres DATABASE", "use sqlalchemy", "MongoDB models", "an ORM layer", "MySQL support"} {
		assert.True(t, WantsDatabase(d), d)
	}
	for _, d := range []string{"add authentication", "dark mode", ""} {
		assert.False(t, WantsDatabase(d), d)
	}
}

func loadDef(t *testing.T) *template.Definition {
	t.Helper()
	def, err := template.Parse("flask", []byte(`{"directory_structure": ["app"], "files_to_create": {"app/__init__.py": "# {{project_name}}"}}`))
	require.NoError(t, err)
	return def
}

func TestTemplateCustomizationPrompt(t *testing.T) {
	def := loadDef(t)
	p := TemplateCustomizationPrompt(&ProjectRequest{Name: "blog", Type: "web app", Language: "Python"}, def)

	assert.Contains(t, p, def.String())
	assert.Contains(t, p, `"directory_structure"`)
	assert.Contains(t, p, "Do not add explanations")
	assert.NotContains(t, p, "Database integration")
}

func TestAICustomizationPrompt(t *testing.T) {
	def := loadDef(t)
	py := &ProjectRequest{Name: "blog", Type: "web app", Language: "Python"}
	js := &ProjectRequest{Name: "blog", Type: "web app", Language: "TypeScript"}
	rb := &ProjectRequest{Name: "blog", Type: "web app", Language: "Ruby"}

	p := AICustomizationPrompt(py, def, "Add a database for posts")
	assert.Contains(t, p, "Add a database for posts")
	assert.Contains(t, p, "SQLAlchemy")
	assert.Contains(t, p, def.String())

	assert.Contains(t, AICustomizationPrompt(js, def, "store users in mongo"), "Mongoose")
	generic := AICustomizationPrompt(rb, def, "use an ORM")
	assert.Contains(t, generic, "Database integration")
	assert.NotContains(t, generic, "SQLAlchemy")
	assert.NotContains(t, AICustomizationPrompt(py, def, "add a login page"), "Database integration")

	assert.Equal(t, p, AICustomizationPrompt(py, def, "Add a database for posts"))
}

func TestTemplateContext(t *testing.T) {
	r := &ProjectRequest{Name: "blog", Type: "web app", Language: "Python", Description: "d", Extra: map[string]string{"project_name": "other", "db": "pg"}}
	ctx := r.TemplateContext()
	assert.Equal(t, "blog", ctx["project_name"])
	assert.Equal(t, "pg", ctx["db"])
	assert.Equal(t, "Python", ctx["language"])
	assert.Equal(t, "web app", ctx["project_type"])
}
