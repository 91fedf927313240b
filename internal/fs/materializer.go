package fs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/santiagomed/devspark/internal/logger"
	"github.com/santiagomed/devspark/internal/plan"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/tidwall/gjson"
)

// ManifestNames are files whose JSON content is re-indented before writing.
var ManifestNames = map[string]bool{
	"package.json":    true,
	"composer.json":   true,
	"tsconfig.json":   true,
	"jsconfig.json":   true,
	"manifest.json":   true,
	"app.json":        true,
	"deno.json":       true,
	"dev_config.json": true,
}

// IsManifest reports whether p names a manifest file.
func IsManifest(p string) bool {
	return ManifestNames[path.Base(filepath.ToSlash(p))]
}

// CanonicalJSON re-indents valid JSON with two spaces, keeping key order.
// Invalid JSON is returned unchanged.
func CanonicalJSON(content string) (string, bool) {
	if !gjson.Valid(content) {
		return content, false
	}
	var compact, out bytes.Buffer
	if err := json.Compact(&compact, []byte(content)); err != nil {
		return content, false
	}
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return content, false
	}
	out.WriteByte('\n')
	return out.String(), true
}

// Renderer resolves placeholders in paths and contents at write time.
type Renderer interface {
	Render(text string) string
}

type Failure struct {
	Path string
	Err  error
}

// Report lists what a materialization did. Paths are absolute on the
// target filesystem.
type Report struct {
	Root        string
	Directories []string
	Written     []string
	Unchanged   []string
	Failed      []Failure
}

func (r *Report) OK() bool { return len(r.Failed) == 0 }

type options struct {
	skipUnchanged bool
	renderer      Renderer
}

type Option func(*options)

// SkipUnchanged leaves files alone whose trimmed content already matches.
func SkipUnchanged() Option {
	return func(o *options) { o.skipUnchanged = true }
}

func WithRenderer(r Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// Materializer writes plan documents to a filesystem.
type Materializer struct {
	fs     *FileSystem
	logger logger.Logger
}

func NewMaterializer(fs *FileSystem, l logger.Logger) *Materializer {
	if l == nil {
		l = logger.NewNullLogger()
	}
	return &Materializer{fs: fs, logger: l}
}

func (m *Materializer) FileSystem() *FileSystem { return m.fs }

// Root returns basePath/projectName.
func Root(basePath, projectName string) string {
	return filepath.Join(basePath, projectName)
}

// Resolve maps a plan path onto the target filesystem. A path whose first
// segment is the project name already includes the project directory, so it
// is taken relative to basePath.
func Resolve(basePath, projectName, p string) (string, error) {
	clean := SanitizeFilePath(p)
	if clean == "" {
		return "", fmt.Errorf("empty path %q", p)
	}
	first, _, _ := strings.Cut(clean, "/")
	if first == projectName {
		return filepath.Join(basePath, filepath.FromSlash(clean)), nil
	}
	return filepath.Join(Root(basePath, projectName), filepath.FromSlash(clean)), nil
}

// Materialize creates basePath/projectName and every directory and file of
// doc beneath it. Failing to create the root aborts; any other failure is
// logged, recorded in the report and skipped.
func (m *Materializer) Materialize(basePath, projectName string, doc plan.Document, opts ...Option) (*Report, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	root := Root(basePath, projectName)
	l := m.logger.WithField("root", root)
	if err := m.fs.Fs.MkdirAll(root, 0755); err != nil {
		l.Error(fmt.Sprintf("failed to create project root: %v", err))
		return nil, fmt.Errorf("failed to create project root %s: %w", root, err)
	}
	report := &Report{Root: root}

	for _, dir := range doc.Directories {
		if o.renderer != nil {
			dir = o.renderer.Render(dir)
		}
		// ".", "" and "/" name the root, which already exists
		if SanitizeFilePath(dir) == "" {
			continue
		}
		target, err := Resolve(basePath, projectName, dir)
		if err != nil {
			m.fail(report, l, dir, err)
			continue
		}
		if err := m.fs.Fs.MkdirAll(target, 0755); err != nil {
			m.fail(report, l, target, err)
			continue
		}
		report.Directories = append(report.Directories, target)
		l.Debug(fmt.Sprintf("created directory %s", target))
	}

	for _, f := range doc.Files {
		p, content := f.Path, f.Content
		if o.renderer != nil {
			p = o.renderer.Render(p)
			content = o.renderer.Render(content)
		}
		target, err := Resolve(basePath, projectName, p)
		if err != nil {
			m.fail(report, l, p, err)
			continue
		}
		if IsManifest(target) {
			if canonical, ok := CanonicalJSON(content); ok {
				content = canonical
			} else {
				l.Warn(fmt.Sprintf("%s is not valid JSON, writing it as text", target))
			}
		}

		if o.skipUnchanged && m.fs.Exists(target) {
			existing, err := m.fs.ReadFile(target)
			if err == nil && strings.TrimSpace(existing) == strings.TrimSpace(content) {
				report.Unchanged = append(report.Unchanged, target)
				l.Debug(fmt.Sprintf("unchanged %s", target))
				continue
			}
			if err == nil {
				l.Info(fmt.Sprintf("updating %s: %s", target, DiffSummary(existing, content)))
			}
		}

		if err := m.fs.WriteFile(target, content); err != nil {
			m.fail(report, l, target, err)
			continue
		}
		report.Written = append(report.Written, target)
		l.Debug(fmt.Sprintf("wrote %s (%d bytes)", target, len(content)))
	}

	l.Info(fmt.Sprintf("materialized %d directories and %d files (%d unchanged, %d failed)",
		len(report.Directories), len(report.Written), len(report.Unchanged), len(report.Failed)))
	return report, nil
}

// Update re-materializes doc over an existing project, skipping files whose
// content did not change.
func (m *Materializer) Update(basePath, projectName string, doc plan.Document, opts ...Option) (*Report, error) {
	return m.Materialize(basePath, projectName, doc, append(opts, SkipUnchanged())...)
}

func (m *Materializer) fail(r *Report, l logger.Logger, p string, err error) {
	l.Error(fmt.Sprintf("skipping %s: %v", p, err))
	r.Failed = append(r.Failed, Failure{Path: p, Err: err})
}

// DiffSummary counts inserted and deleted characters between two versions.
func DiffSummary(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(before, after, false))
	var ins, del int
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			ins += len(d.Text)
		case diffmatchpatch.DiffDelete:
			del += len(d.Text)
		}
	}
	return fmt.Sprintf("+%d/-%d chars", ins, del)
}
