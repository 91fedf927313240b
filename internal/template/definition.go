// Package template loads project templates and turns them into plans.
package template

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santiagomed/devspark/internal/plan"
	"github.com/tidwall/gjson"
)

// Entry is a template file. Content is raw JSON: usually a string, but a
// manifest may be given as a structured value.
type Entry struct {
	Path    string          `json:"path"`
	Content json.RawMessage `json:"content"`
}

type DirEntry struct {
	Path  string  `json:"path"`
	Files []Entry `json:"files"`
}

// EntryMap is the legacy files_to_create mapping, kept in document order.
type EntryMap []Entry

func (m *EntryMap) UnmarshalJSON(b []byte) error {
	res := gjson.ParseBytes(b)
	if res.Type == gjson.Null {
		return nil
	}
	if !res.IsObject() {
		return fmt.Errorf("files_to_create must be an object")
	}
	out := EntryMap{}
	res.ForEach(func(key, value gjson.Result) bool {
		out = append(out, Entry{Path: key.String(), Content: json.RawMessage(value.Raw)})
		return true
	})
	*m = out
	return nil
}

func (m EntryMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Path)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if len(e.Content) == 0 {
			buf.WriteString(`""`)
			continue
		}
		buf.Write(e.Content)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Definition is a named project template in either plan shape.
type Definition struct {
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	Language           string     `json:"language,omitempty"`
	DirectoryStructure []string   `json:"directory_structure,omitempty"`
	FilesToCreate      EntryMap   `json:"files_to_create,omitempty"`
	Files              []Entry    `json:"files,omitempty"`
	Directories        []DirEntry `json:"directories,omitempty"`

	// Raw is the document as read from disk.
	Raw []byte `json:"-"`
}

// Parse decodes a template document. Its entries must use at least one of
// the plan shapes.
func Parse(name string, b []byte) (*Definition, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("template %s is not valid JSON", name)
	}
	var def Definition
	if err := json.Unmarshal(b, &def); err != nil {
		return nil, fmt.Errorf("template %s: %w", name, err)
	}
	keys := gjson.GetManyBytes(b, "directory_structure", "files_to_create", "files", "directories")
	found := false
	for _, k := range keys {
		found = found || k.Exists()
	}
	if !found {
		return nil, fmt.Errorf("template %s has neither files/directories nor directory_structure/files_to_create", name)
	}
	if def.Name == "" {
		def.Name = name
	}
	def.Raw = append([]byte(nil), b...)
	return &def, nil
}

// FromDocument builds a template from a plan, storing it in the legacy shape.
func FromDocument(name, description, language string, doc plan.Document) (*Definition, error) {
	def := &Definition{
		Name:               name,
		Description:        description,
		Language:           language,
		DirectoryStructure: append([]string{}, doc.Directories...),
		FilesToCreate:      EntryMap{},
	}
	for _, f := range doc.Files {
		c, err := json.Marshal(f.Content)
		if err != nil {
			return nil, err
		}
		def.FilesToCreate = append(def.FilesToCreate, Entry{Path: f.Path, Content: c})
	}
	b, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return nil, err
	}
	def.Raw = b
	return def, nil
}

// String returns the template document for embedding in prompts.
func (d *Definition) String() string {
	if len(d.Raw) > 0 {
		return string(d.Raw)
	}
	b, _ := json.MarshalIndent(d, "", "  ")
	return string(b)
}
