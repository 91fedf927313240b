package devenv

import (
	"path/filepath"
	"strings"

	"github.com/santiagomed/devspark/internal/fs"
)

var commonIgnores = []string{".DS_Store", ".idea/", ".vscode/", "*.log", ".env"}

var languageIgnores = map[Language][]string{
	Python: {"__pycache__/", "*.py[cod]", "venv/", ".venv/", ".pytest_cache/", ".mypy_cache/", ".coverage", "dist/", "build/", "*.egg-info/"},
	Node:   {"node_modules/", "dist/", "coverage/", "npm-debug.log*", ".npm/"},
	Go:     {"bin/", "*.test", "*.out", "vendor/"},
}

// IgnorePatterns returns the .gitignore lines for lang.
func IgnorePatterns(lang Language) []string {
	return append(append([]string{}, languageIgnores[lang]...), commonIgnores...)
}

// WriteGitignore adds the patterns for lang to dir/.gitignore. Lines already
// present are kept where they are and never duplicated. It reports how many
// lines were added.
func WriteGitignore(fsys *fs.FileSystem, dir string, lang Language) (int, error) {
	p := filepath.Join(dir, ".gitignore")
	existing := ""
	if fsys.Exists(p) {
		var err error
		if existing, err = fsys.ReadFile(p); err != nil {
			return 0, err
		}
	}
	merged, added := mergeLines(existing, IgnorePatterns(lang))
	if added == 0 {
		return 0, nil
	}
	return added, fsys.WriteFile(p, merged)
}

func mergeLines(existing string, lines []string) (string, int) {
	seen := map[string]bool{}
	var out []string
	if existing != "" {
		for _, l := range strings.Split(strings.TrimRight(existing, "\n"), "\n") {
			seen[strings.TrimSpace(l)] = true
			out = append(out, l)
		}
	}
	added := 0
	for _, l := range lines {
		if seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
		added++
	}
	return strings.Join(out, "\n") + "\n", added
}
