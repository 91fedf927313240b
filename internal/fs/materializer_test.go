package fs

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/santiagomed/devspark/internal/logger"
	"github.com/santiagomed/devspark/internal/plan"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMaterializer() (*Materializer, *FileSystem) {
	fs := NewMemoryFileSystem()
	return NewMaterializer(fs, logger.NewNullLogger()), fs
}

func TestMaterializeReadme(t *testing.T) {
	m, fs := newMaterializer()
	doc, err := plan.Decode([]byte(`{"files":[{"path":"README.md","content":"# X"}],"directories":[]}`))
	require.NoError(t, err)

	report, err := m.Materialize("/tmp/t", "Demo", doc)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, filepath.Join("/tmp/t", "Demo"), report.Root)

	content, err := fs.ReadFile(filepath.Join("/tmp/t", "Demo", "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# X", content)
}

func TestMaterializeBothShapes(t *testing.T) {
	m, fs := newMaterializer()
	doc, err := plan.Decode([]byte(`{
		"directory_structure": ["data"],
		"files_to_create": {"src/main.py": "print()"},
		"files": [{"path": "README.md", "content": "r"}],
		"directories": [{"path": "tests", "files": [{"path": "test_main.py", "content": "t"}]}]
	}`))
	require.NoError(t, err)

	_, err = m.Materialize("/w", "app", doc)
	require.NoError(t, err)
	assert.True(t, fs.IsDir("/w/app/data"))
	assert.True(t, fs.IsDir("/w/app/tests"))
	assert.True(t, fs.Exists("/w/app/src/main.py"))
	assert.True(t, fs.Exists("/w/app/README.md"))
	assert.True(t, fs.Exists("/w/app/tests/test_main.py"))
}

func TestMaterializeProjectNamePrefix(t *testing.T) {
	m, fs := newMaterializer()
	doc := plan.Document{
		Directories: []string{"shop/src"},
		Files: []plan.File{
			{Path: "shop/src/index.js", Content: "a"},
			{Path: "shopping/list.txt", Content: "b"},
		},
	}
	_, err := m.Materialize("/w", "shop", doc)
	require.NoError(t, err)

	assert.True(t, fs.IsDir("/w/shop/src"))
	assert.False(t, fs.Exists("/w/shop/shop"))
	assert.True(t, fs.Exists("/w/shop/src/index.js"))
	assert.True(t, fs.Exists("/w/shop/shopping/list.txt"))
}

func TestMaterializeKeepsInsideRoot(t *testing.T) {
	m, fs := newMaterializer()
	doc := plan.Document{Files: []plan.File{{Path: "../../etc/passwd", Content: "x"}}}
	_, err := m.Materialize("/w", "app", doc)
	require.NoError(t, err)
	assert.True(t, fs.Exists("/w/app/etc/passwd"))
	assert.False(t, fs.Exists("/etc/passwd"))
}

func TestMaterializeCanonicalizesManifest(t *testing.T) {
	m, fs := newMaterializer()
	doc := plan.Document{Files: []plan.File{
		{Path: "package.json", Content: `{"name":"demo","scripts":{"start":"node index.js"},"version":"1.0.0"}`},
		{Path: "web/tsconfig.json", Content: `{"compilerOptions": {`},
		{Path: "data.json", Content: `{"a":1}`},
	}}
	_, err := m.Materialize("/w", "demo", doc)
	require.NoError(t, err)

	pkg, err := fs.ReadFile("/w/demo/package.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"demo\",\n  \"scripts\": {\n    \"start\": \"node index.js\"\n  },\n  \"version\": \"1.0.0\"\n}\n", pkg)

	broken, err := fs.ReadFile("/w/demo/web/tsconfig.json")
	require.NoError(t, err)
	assert.Equal(t, `{"compilerOptions": {`, broken)

	plain, err := fs.ReadFile("/w/demo/data.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, plain)
}

func TestMaterializeIsIdempotent(t *testing.T) {
	m, fs := newMaterializer()
	doc := plan.Document{
		Directories: []string{"src"},
		Files: []plan.File{
			{Path: "src/app.py", Content: "v1"},
			{Path: "package.json", Content: `{"b":1,"a":2}`},
		},
	}
	snapshot := func() map[string]string {
		out := map[string]string{}
		for _, p := range []string{"/w/p/src/app.py", "/w/p/package.json"} {
			c, err := fs.ReadFile(p)
			require.NoError(t, err)
			out[p] = c
		}
		return out
	}

	_, err := m.Materialize("/w", "p", doc)
	require.NoError(t, err)
	first := snapshot()
	_, err = m.Materialize("/w", "p", doc)
	require.NoError(t, err)
	assert.Equal(t, first, snapshot())
}

func TestMaterializeOverwritesExisting(t *testing.T) {
	m, fs := newMaterializer()
	require.NoError(t, fs.WriteFile("/w/p/a.txt", "old"))
	_, err := m.Materialize("/w", "p", plan.Document{Files: []plan.File{{Path: "a.txt", Content: "new"}}})
	require.NoError(t, err)
	c, _ := fs.ReadFile("/w/p/a.txt")
	assert.Equal(t, "new", c)
}

func TestUpdateSkipsUnchanged(t *testing.T) {
	m, fs := newMaterializer()
	require.NoError(t, fs.WriteFile("/w/p/same.txt", "content\n"))
	require.NoError(t, fs.WriteFile("/w/p/changed.txt", "before"))

	doc := plan.Document{Files: []plan.File{
		{Path: "same.txt", Content: "  content  "},
		{Path: "changed.txt", Content: "after"},
		{Path: "new.txt", Content: "fresh"},
	}}
	report, err := m.Update("/w", "p", doc)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join("/w/p", "same.txt")}, report.Unchanged)
	assert.ElementsMatch(t, []string{filepath.Join("/w/p", "changed.txt"), filepath.Join("/w/p", "new.txt")}, report.Written)

	same, _ := fs.ReadFile("/w/p/same.txt")
	assert.Equal(t, "content\n", same)
	changed, _ := fs.ReadFile("/w/p/changed.txt")
	assert.Equal(t, "after", changed)
}

func TestMaterializeSkipsFailedEntries(t *testing.T) {
	fs := NewFileSystem(failingFs{Fs: afero.NewMemMapFs(), fail: "bad.txt"})
	m := NewMaterializer(fs, logger.NewNullLogger())

	doc := plan.Document{Files: []plan.File{
		{Path: "bad.txt", Content: "x"},
		{Path: "good.txt", Content: "y"},
		{Path: "./", Content: "z"},
	}}
	report, err := m.Materialize("/w", "p", doc)
	require.NoError(t, err)
	assert.False(t, report.OK())
	require.Len(t, report.Failed, 2)
	assert.Contains(t, report.Failed[0].Err.Error(), "disk full")
	assert.True(t, fs.Exists("/w/p/good.txt"))
}

func TestMaterializeRootFailureIsFatal(t *testing.T) {
	fs := NewFileSystem(afero.NewReadOnlyFs(afero.NewMemMapFs()))
	m := NewMaterializer(fs, logger.NewNullLogger())

	report, err := m.Materialize("/w", "p", plan.Document{Files: []plan.File{{Path: "a", Content: "b"}}})
	assert.Nil(t, report)
	assert.ErrorContains(t, err, "failed to create project root")
}

type upperRenderer struct{}

func (upperRenderer) Render(s string) string {
	return strings.ReplaceAll(s, "{{name}}", "demo")
}

func TestMaterializeWithRenderer(t *testing.T) {
	m, fs := newMaterializer()
	doc := plan.Document{Files: []plan.File{{Path: "cmd/{{name}}/main.go", Content: "// {{name}}"}}}
	_, err := m.Materialize("/w", "demo", doc, WithRenderer(upperRenderer{}))
	require.NoError(t, err)
	c, err := fs.ReadFile("/w/demo/cmd/demo/main.go")
	require.NoError(t, err)
	assert.Equal(t, "// demo", c)
}

func TestDiffSummary(t *testing.T) {
	assert.Equal(t, "+0/-0 chars", DiffSummary("same", "same"))
	assert.Equal(t, "+3/-0 chars", DiffSummary("abc", "abcdef"))
}

func TestMaterializeRootDirectoryEntries(t *testing.T) {
	m, fs := newMaterializer()
	doc, err := plan.Decode([]byte(`{"files":[],"directories":[
		{"path":".","files":[{"path":"README.md","content":"# X"}]},
		{"path":"","files":[]},
		{"path":"/","files":[]},
		{"path":"src","files":[]}
	]}`))
	require.NoError(t, err)

	report, err := m.Materialize("/tmp/t", "Demo", doc)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Empty(t, report.Failed)
	assert.Equal(t, []string{filepath.Join("/tmp/t", "Demo", "src")}, report.Directories)
	assert.Equal(t, []string{filepath.Join("/tmp/t", "Demo", "README.md")}, report.Written)
	assert.True(t, fs.Exists("/tmp/t/Demo/README.md"))
}
