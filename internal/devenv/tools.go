package devenv

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santiagomed/devspark/internal/fs"
)

const flake8Config = `[flake8]
max-line-length = 88
extend-ignore = E203
exclude = .git,__pycache__,build,dist
`

const mypyConfig = `[mypy]
python_version = 3.8
warn_return_any = True
warn_unused_configs = True
disallow_untyped_defs = True
`

func pyprojectDefaults() map[string]any {
	return map[string]any{
		"tool": map[string]any{
			"black": map[string]any{
				"line-length": int64(88),
				"include":     `\.pyi?$`,
				"exclude":     `/(\.git|\.hg|\.mypy_cache|\.tox|\.venv|_build|buck-out|build|dist)/`,
			},
			"isort": map[string]any{
				"profile":           "black",
				"multi_line_output": int64(3),
			},
		},
	}
}

// SetupDevTools writes the Python linter and formatter configs into dir.
// With merge set, settings already in an existing file win and only what is
// missing is added; without it the files are replaced.
func SetupDevTools(fsys *fs.FileSystem, dir string, merge bool) ([]string, error) {
	var written []string
	for _, f := range []struct{ name, content string }{
		{".flake8", flake8Config},
		{"mypy.ini", mypyConfig},
	} {
		p := filepath.Join(dir, f.name)
		content := f.content
		if merge && fsys.Exists(p) {
			existing, err := fsys.ReadFile(p)
			if err != nil {
				return written, err
			}
			content = MergeINI(existing, f.content)
		}
		if err := fsys.WriteFile(p, content); err != nil {
			return written, err
		}
		written = append(written, p)
	}

	p := filepath.Join(dir, "pyproject.toml")
	existing := ""
	if merge && fsys.Exists(p) {
		var err error
		if existing, err = fsys.ReadFile(p); err != nil {
			return written, err
		}
	}
	content, err := MergeTOML(existing, pyprojectDefaults())
	if err != nil {
		return written, fmt.Errorf("error merging %s: %w", p, err)
	}
	if err := fsys.WriteFile(p, content); err != nil {
		return written, err
	}
	return append(written, p), nil
}

// MergeTOML adds every key of defaults missing from the existing document
// and re-encodes it. Tables merge recursively.
func MergeTOML(existing string, defaults map[string]any) (string, error) {
	doc := map[string]any{}
	if strings.TrimSpace(existing) != "" {
		if _, err := toml.Decode(existing, &doc); err != nil {
			return "", err
		}
	}
	fillMissing(doc, defaults)

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func fillMissing(dst, src map[string]any) {
	for k, v := range src {
		cur, ok := dst[k]
		if !ok {
			dst[k] = v
			continue
		}
		curTable, ok1 := cur.(map[string]any)
		srcTable, ok2 := v.(map[string]any)
		if ok1 && ok2 {
			fillMissing(curTable, srcTable)
		}
	}
}

type iniSection struct {
	header string
	lines  []string
	added  bool
}

func parseINI(s string) []*iniSection {
	sections := []*iniSection{{}}
	if strings.TrimSpace(s) == "" {
		return sections
	}
	for _, line := range strings.Split(strings.TrimRight(s, "\n"), "\n") {
		if t := strings.TrimSpace(line); strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]") {
			sections = append(sections, &iniSection{header: t})
			continue
		}
		cur := sections[len(sections)-1]
		cur.lines = append(cur.lines, line)
	}
	return sections
}

func iniKey(line string) string {
	t := strings.TrimSpace(line)
	if t == "" || strings.HasPrefix(t, "#") || strings.HasPrefix(t, ";") {
		return ""
	}
	if i := strings.IndexAny(t, "=:"); i > 0 {
		return strings.ToLower(strings.TrimSpace(t[:i]))
	}
	return ""
}

// MergeINI adds the sections and keys of update that existing lacks.
// Existing values, comments and order are preserved.
func MergeINI(existing, update string) string {
	sections := parseINI(existing)
	index := map[string]*iniSection{}
	for _, s := range sections {
		index[s.header] = s
	}

	for _, u := range parseINI(update) {
		cur, ok := index[u.header]
		if !ok {
			if u.header == "" && len(u.lines) == 0 {
				continue
			}
			u.added = true
			sections = append(sections, u)
			index[u.header] = u
			continue
		}
		have := map[string]bool{}
		for _, l := range cur.lines {
			have[iniKey(l)] = true
		}
		var missing []string
		for _, l := range u.lines {
			if k := iniKey(l); k != "" && !have[k] {
				missing = append(missing, l)
			}
		}
		// keep trailing blank lines after the new keys
		end := len(cur.lines)
		for end > 0 && strings.TrimSpace(cur.lines[end-1]) == "" {
			end--
		}
		cur.lines = append(append(append([]string{}, cur.lines[:end]...), missing...), cur.lines[end:]...)
	}

	var b strings.Builder
	for _, s := range sections {
		if s.header == "" && len(s.lines) == 0 {
			continue
		}
		if s.added && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n\n") {
			b.WriteString("\n")
		}
		if s.header != "" {
			b.WriteString(s.header + "\n")
		}
		for _, l := range s.lines {
			b.WriteString(l + "\n")
		}
	}
	return b.String()
}
