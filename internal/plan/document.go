// Package plan holds the canonical project plan and the normalizer that turns
// model output into one.
//
// Plans arrive in two wire shapes. The legacy shape lists directory paths in
// "directory_structure" and maps file paths to contents in "files_to_create".
// The current shape lists root files in "files" and nested directories, each
// with its own relative "files", in "directories". Both decode into the same
// Document; Legacy and Current render it back into either shape.
package plan

import (
	"path"
	"strings"
)

type Schema int

const (
	SchemaCurrent Schema = iota
	SchemaLegacy
)

func (s Schema) String() string {
	switch s {
	case SchemaLegacy:
		return "legacy"
	default:
		return "current"
	}
}

// Keys returns the two top-level keys that identify s.
func (s Schema) Keys() [2]string {
	if s == SchemaLegacy {
		return [2]string{"directory_structure", "files_to_create"}
	}
	return [2]string{"files", "directories"}
}

// Other returns the opposite schema.
func (s Schema) Other() Schema {
	if s == SchemaLegacy {
		return SchemaCurrent
	}
	return SchemaLegacy
}

// File is a file to write. In a Document, Path is relative to the project
// root; inside a current-shape Directory it is relative to that directory.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type Directory struct {
	Path  string `json:"path"`
	Files []File `json:"files"`
}

// Document is the canonical plan: ordered directory paths and ordered files,
// all relative to the project root.
type Document struct {
	Directories []string
	Files       []File
	Source      Schema
}

// LegacyPlan is the legacy wire shape.
type LegacyPlan struct {
	DirectoryStructure []string `json:"directory_structure"`
	FilesToCreate      FileMap  `json:"files_to_create"`
}

// CurrentPlan is the current wire shape.
type CurrentPlan struct {
	Files       []File      `json:"files"`
	Directories []Directory `json:"directories"`
}

func FromLegacy(l LegacyPlan) Document {
	doc := Document{Source: SchemaLegacy}
	doc.Directories = append(doc.Directories, l.DirectoryStructure...)
	doc.Files = append(doc.Files, l.FilesToCreate...)
	return doc
}

func FromCurrent(c CurrentPlan) Document {
	doc := Document{Source: SchemaCurrent}
	doc.Files = append(doc.Files, c.Files...)
	for _, d := range c.Directories {
		doc.Directories = append(doc.Directories, d.Path)
		for _, f := range d.Files {
			doc.Files = append(doc.Files, File{Path: joinPath(d.Path, f.Path), Content: f.Content})
		}
	}
	return doc
}

// Legacy renders the document in the legacy shape.
func (d Document) Legacy() LegacyPlan {
	return LegacyPlan{
		DirectoryStructure: append([]string{}, d.Directories...),
		FilesToCreate:      append(FileMap{}, d.Files...),
	}
}

// Current renders the document in the current shape. Files are grouped under
// their parent directory; parents that were never listed explicitly are
// appended after the listed ones in order of first use.
func (d Document) Current() CurrentPlan {
	c := CurrentPlan{Files: []File{}, Directories: []Directory{}}
	index := make(map[string]int)
	addDir := func(p string) int {
		if i, ok := index[p]; ok {
			return i
		}
		index[p] = len(c.Directories)
		c.Directories = append(c.Directories, Directory{Path: p, Files: []File{}})
		return index[p]
	}
	for _, dir := range d.Directories {
		addDir(dir)
	}
	for _, f := range d.Files {
		dir, name := splitPath(f.Path)
		if dir == "" {
			c.Files = append(c.Files, f)
			continue
		}
		i := addDir(dir)
		c.Directories[i].Files = append(c.Directories[i].Files, File{Path: name, Content: f.Content})
	}
	return c
}

// View returns the document in the requested shape.
func (d Document) View(s Schema) any {
	if s == SchemaLegacy {
		return d.Legacy()
	}
	return d.Current()
}

// Pairs maps each file path to its content. Later entries win.
func (d Document) Pairs() map[string]string {
	m := make(map[string]string, len(d.Files))
	for _, f := range d.Files {
		m[f.Path] = f.Content
	}
	return m
}

// Merge appends other's entries after d's.
func (d Document) Merge(other Document) Document {
	out := Document{Source: d.Source}
	out.Directories = append(append(out.Directories, d.Directories...), other.Directories...)
	out.Files = append(append(out.Files, d.Files...), other.Files...)
	return out
}

// IsEmpty reports whether the document has nothing to create.
func (d Document) IsEmpty() bool {
	return len(d.Directories) == 0 && len(d.Files) == 0
}

func joinPath(dir, name string) string {
	dir = strings.TrimSuffix(toSlash(dir), "/")
	name = strings.TrimPrefix(toSlash(name), "./")
	if dir == "" || dir == "." {
		return name
	}
	return dir + "/" + name
}

func splitPath(p string) (string, string) {
	p = toSlash(p)
	dir, name := path.Split(p)
	dir = strings.TrimSuffix(dir, "/")
	if dir == "." {
		dir = ""
	}
	return dir, name
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
