package template

import (
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/santiagomed/devspark/internal/fs"
	"github.com/santiagomed/devspark/internal/logger"
	"github.com/spf13/afero"
)

// Store is a directory of <name>.json templates.
type Store struct {
	fs  afero.Fs
	dir string
}

func NewStore(fs afero.Fs, dir string) *Store {
	return &Store{fs: fs, dir: dir}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid template name %q", name)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Load reads the named template. A missing template wraps fs.ErrNotExist.
func (s *Store) Load(name string) (*Definition, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	b, err := afero.ReadFile(s.fs, p)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return nil, fmt.Errorf("template %q not found in %s: %w", name, s.dir, iofs.ErrNotExist)
		}
		return nil, fmt.Errorf("error reading template %s: %w", p, err)
	}
	return Parse(name, b)
}

// List returns the available template names, sorted. A missing directory has
// no templates.
func (s *Store) List() ([]string, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if errors.Is(err, iofs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("error listing templates in %s: %w", s.dir, err)
	}
	names := []string{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names, nil
}

// Save writes def as <dir>/<name>.json.
func (s *Store) Save(def *Definition) (string, error) {
	p, err := s.path(def.Name)
	if err != nil {
		return "", err
	}
	b, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error encoding template %s: %w", def.Name, err)
	}
	if err := s.fs.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("error creating template directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, p, append(b, '\n'), 0644); err != nil {
		return "", fmt.Errorf("error writing template %s: %w", p, err)
	}
	return p, nil
}

var posix = runtime.GOOS != "windows"

// CreateProjectFromTemplate loads the named template, substitutes ctx into
// it and materializes the result under basePath/projectName. On POSIX
// systems shell scripts and files under bin/ or scripts/ become executable.
func CreateProjectFromTemplate(store *Store, m *fs.Materializer, name, basePath, projectName string, ctx Context, l logger.Logger) (*fs.Report, error) {
	if l == nil {
		l = logger.NewNullLogger()
	}
	def, err := store.Load(name)
	if err != nil {
		return nil, err
	}
	vars := make(Context, len(ctx)+1)
	for k, v := range ctx {
		vars[k] = v
	}
	if vars["project_name"] == "" {
		vars["project_name"] = projectName
	}

	doc, err := Substitute(def, vars)
	if err != nil {
		return nil, err
	}
	report, err := m.Materialize(basePath, projectName, doc)
	if err != nil {
		return nil, err
	}
	PostProcess(m.FileSystem(), report, l)
	return report, nil
}

// PostProcess marks written scripts executable.
func PostProcess(fsys *fs.FileSystem, report *fs.Report, l logger.Logger) {
	if !posix || report == nil {
		return
	}
	for _, p := range report.Written {
		if !isScript(p) {
			continue
		}
		if err := fsys.MakeExecutable(p); err != nil {
			l.Warn(err.Error())
			continue
		}
		l.Debug(fmt.Sprintf("marked %s executable", p))
	}
}

func isScript(p string) bool {
	p = filepath.ToSlash(p)
	if strings.HasSuffix(p, ".sh") {
		return true
	}
	parent := filepath.Base(filepath.Dir(p))
	return parent == "bin" || parent == "scripts"
}
