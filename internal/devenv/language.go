package devenv

import (
	"path/filepath"
	"strings"

	"github.com/santiagomed/devspark/internal/fs"
)

// Language is the toolchain family a project is set up for.
type Language string

const (
	Python  Language = "python"
	Node    Language = "node"
	Go      Language = "go"
	Unknown Language = ""
)

var languageAliases = map[string]Language{
	"python":     Python,
	"py":         Python,
	"javascript": Node,
	"typescript": Node,
	"js":         Node,
	"ts":         Node,
	"node":       Node,
	"nodejs":     Node,
	"node.js":    Node,
	"go":         Go,
	"golang":     Go,
}

// ParseLanguage maps a free-form language name onto a Language. Anything it
// does not recognise is Unknown.
func ParseLanguage(s string) Language {
	return languageAliases[strings.ToLower(strings.TrimSpace(s))]
}

// DetectLanguage guesses the language of the project in dir from its
// manifests, defaulting to Python.
func DetectLanguage(fsys *fs.FileSystem, dir string) Language {
	switch {
	case fsys.Exists(filepath.Join(dir, "go.mod")):
		return Go
	case fsys.Exists(filepath.Join(dir, "package.json")):
		return Node
	default:
		return Python
	}
}
