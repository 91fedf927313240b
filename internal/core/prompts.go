package core

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/santiagomed/devspark/internal/template"
)

func writeDetails(b *strings.Builder, r *ProjectRequest) {
	fmt.Fprintf(b, "Project name: %s\n", r.Name)
	fmt.Fprintf(b, "Project type: %s\n", r.Type)
	fmt.Fprintf(b, "Primary language: %s\n", r.Language)
	if r.Description != "" {
		fmt.Fprintf(b, "Description: %s\n", r.Description)
	}
	for _, k := range r.ExtraKeys() {
		fmt.Fprintf(b, "%s: %s\n", k, r.Extra[k])
	}
}

const currentSchemaExample = `{
  "files": [
    {"path": "README.md", "content": "file content"}
  ],
  "directories": [
    {"path": "src", "files": [{"path": "main.py", "content": "file content"}]}
  ]
}`

const legacySchemaExample = `{
  "directory_structure": ["list", "of", "directories"],
  "files_to_create": {
    "file/path": "file content",
    "another/file": "content"
  }
}`

const reviewSchemaExample = `{
  "issues": [
    {"severity": "high|medium|low", "message": "description"}
  ],
  "suggestions": ["list of suggestions"],
  "best_practices": ["list of best practices being followed"]
}`

// ScaffoldPrompt asks for a complete project structure in the current plan
// schema.
func ScaffoldPrompt(r *ProjectRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a project structure for a %s project named %s using %s as the primary language.\n\n", r.Type, r.Name, r.Language)
	writeDetails(&b, r)
	b.WriteString("\nProvide the response as a single JSON object in the following format:\n")
	b.WriteString(currentSchemaExample)
	b.WriteString("\n\nInclude:\n")
	b.WriteString("- Standard project structure\n")
	b.WriteString("- Configuration files\n")
	b.WriteString("- Basic implementation files\n")
	b.WriteString("- Test directory structure\n")
	b.WriteString("- Documentation files\n\n")
	b.WriteString("All paths must be relative to the project root and must not start with the project name. ")
	b.WriteString("File contents must be JSON strings. Respond with the JSON object only.\n")
	return b.String()
}

// FileType names the kind of configuration file at path: its extension, or
// Dockerfile.
func FileType(path string) string {
	base := filepath.Base(path)
	if strings.EqualFold(base, "dockerfile") {
		return "Dockerfile"
	}
	if ext := strings.TrimPrefix(filepath.Ext(base), "."); ext != "" {
		return ext
	}
	return "unknown"
}

// ReviewPrompt asks for a review of a configuration file.
func ReviewPrompt(content, fileType string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Review this %s configuration file for best practices, security issues, and potential improvements:\n\n", fileType)
	b.WriteString(content)
	if !strings.HasSuffix(content, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\nProvide the response as a single JSON object in the following format:\n")
	b.WriteString(reviewSchemaExample)
	b.WriteString("\n")
	return b.String()
}

func writeTemplateTask(b *strings.Builder, r *ProjectRequest, def *template.Definition) {
	fmt.Fprintf(b, "You are customizing the project template %q for a new project.\n\n", def.Name)
	writeDetails(b, r)
	b.WriteString("\nThe template is the following JSON document:\n")
	b.WriteString(def.String())
	b.WriteString("\n")
}

func writeTemplateRules(b *strings.Builder) {
	b.WriteString("\nReturn the complete modified project as a single JSON object in the following format:\n")
	b.WriteString(legacySchemaExample)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Return every file of the project, not only the changed ones.\n")
	b.WriteString("- Keep {{placeholder}} expressions that should still be filled in.\n")
	b.WriteString("- All paths are relative to the project root.\n")
	b.WriteString("- Respond with the JSON object only. Do not add explanations, comments or markdown before or after it.\n")
}

// TemplateCustomizationPrompt embeds def verbatim and asks for the adapted
// project in the legacy plan schema.
func TemplateCustomizationPrompt(r *ProjectRequest, def *template.Definition) string {
	var b strings.Builder
	writeTemplateTask(&b, r, def)
	b.WriteString("\nAdapt the template to the project details above.\n")
	writeTemplateRules(&b)
	return b.String()
}

var databaseTerms = []string{"database", "db", "sql", "mongo", "mongoose", "orm", "sqlalchemy"}

// WantsDatabase reports whether a customization description mentions a
// database, by case-insensitive substring match.
func WantsDatabase(description string) bool {
	d := strings.ToLower(description)
	for _, t := range databaseTerms {
		if strings.Contains(d, t) {
			return true
		}
	}
	return false
}

func databaseGuidance(language string) string {
	switch strings.ToLower(language) {
	case "python":
		return `Database integration:
- Use SQLAlchemy for models and sessions.
- Add the database packages to requirements.txt.
- Put models in their own module and read the connection URL from configuration or the environment.
- Add tests that use a separate test database.
`
	case "javascript", "typescript", "node", "nodejs", "node.js":
		return `Database integration:
- Use Mongoose for MongoDB models and connections.
- Add the database packages to package.json dependencies.
- Put models in their own directory and read the connection string from the environment.
- Add tests that use a separate test database.
`
	default:
		return `Database integration:
- Use the standard database library or ORM for the language.
- Declare the database dependencies in the project's manifest.
- Keep models and connection setup in their own modules, configured from the environment.
`
	}
}

// AICustomizationPrompt is TemplateCustomizationPrompt plus a free-text
// description of the wanted changes. Descriptions that mention databases get
// integration guidance for the project's language.
func AICustomizationPrompt(r *ProjectRequest, def *template.Definition, description string) string {
	var b strings.Builder
	writeTemplateTask(&b, r, def)
	b.WriteString("\nApply the following customization:\n")
	b.WriteString(strings.TrimSpace(description))
	b.WriteString("\n")
	if WantsDatabase(description) {
		b.WriteString("\n")
		b.WriteString(databaseGuidance(r.Language))
	}
	writeTemplateRules(&b)
	return b.String()
}
