package core

import (
	"fmt"
	"sort"

	"github.com/santiagomed/devspark/internal/fs"
	"github.com/santiagomed/devspark/internal/template"
)

// ProjectRequest describes the project the user asked for. It is read-only
// once a pipeline starts.
type ProjectRequest struct {
	Name        string            `mapstructure:"name" json:"name"`
	Type        string            `mapstructure:"type" json:"type"`
	Language    string            `mapstructure:"language" json:"language"`
	Description string            `mapstructure:"description" json:"description,omitempty"`
	Extra       map[string]string `mapstructure:"extra" json:"extra,omitempty"`
}

// DefaultRequest returns a ProjectRequest with default values.
func DefaultRequest() *ProjectRequest {
	return &ProjectRequest{
		Name:     "my-project",
		Type:     "web app",
		Language: "Python",
	}
}

func (r *ProjectRequest) Validate() error {
	if !fs.IsValidProjectName(r.Name) {
		return fmt.Errorf("invalid project name %q", r.Name)
	}
	if r.Type == "" || r.Language == "" {
		return fmt.Errorf("project type and language are required")
	}
	return nil
}

// ExtraKeys returns the keys of Extra in sorted order.
func (r *ProjectRequest) ExtraKeys() []string {
	keys := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// TemplateContext exposes the request to template placeholders. Extra
// fields never override the built-in names.
func (r *ProjectRequest) TemplateContext() template.Context {
	ctx := template.NewContext(r.Name, r.Extra)
	ctx["project_type"] = r.Type
	ctx["language"] = r.Language
	ctx["description"] = r.Description
	return ctx
}
