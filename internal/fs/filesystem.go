package fs

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// FileSystem wraps the Afero Fs interface
type FileSystem struct {
	Fs afero.Fs
}

// NewFileSystem wraps an existing afero filesystem
func NewFileSystem(fs afero.Fs) *FileSystem {
	return &FileSystem{Fs: fs}
}

// NewMemoryFileSystem creates a new in-memory file system
func NewMemoryFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewMemMapFs(),
	}
}

// NewOsFileSystem creates a new OS-based file system
func NewOsFileSystem() *FileSystem {
	return &FileSystem{
		Fs: afero.NewOsFs(),
	}
}

// WriteFile creates a new file with the given content or overwrites an existing file with the content
func (fs *FileSystem) WriteFile(path string, content string) error {
	if err := fs.Fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("error creating directory %s: %w", filepath.Dir(path), err)
	}
	if err := afero.WriteFile(fs.Fs, path, []byte(content), 0644); err != nil {
		return fmt.Errorf("error writing file %s: %w", path, err)
	}
	return nil
}

// ReadFile returns the content of path
func (fs *FileSystem) ReadFile(path string) (string, error) {
	b, err := afero.ReadFile(fs.Fs, path)
	if err != nil {
		return "", fmt.Errorf("error reading file %s: %w", path, err)
	}
	return string(b), nil
}

// Exists reports whether path exists
func (fs *FileSystem) Exists(path string) bool {
	ok, err := afero.Exists(fs.Fs, path)
	return err == nil && ok
}

// IsDir checks if a path is a directory
func (fs *FileSystem) IsDir(path string) bool {
	info, err := fs.Fs.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// MakeExecutable adds the execute bits to path
func (fs *FileSystem) MakeExecutable(path string) error {
	info, err := fs.Fs.Stat(path)
	if err != nil {
		return fmt.Errorf("error reading mode of %s: %w", path, err)
	}
	if err := fs.Fs.Chmod(path, info.Mode().Perm()|0111); err != nil {
		return fmt.Errorf("error making %s executable: %w", path, err)
	}
	return nil
}

// WriteToZip archives every entry under root into w, with paths relative to root
func (fs *FileSystem) WriteToZip(root string, w io.Writer) error {
	zipWriter := zip.NewWriter(w)

	fileCount := 0
	err := afero.Walk(fs.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		// Skip root directory
		if rel == "." {
			return nil
		}
		zipPath := filepath.ToSlash(rel)

		if info.IsDir() {
			if _, err := zipWriter.Create(zipPath + "/"); err != nil {
				return fmt.Errorf("error creating zip entry for directory %s: %w", zipPath, err)
			}
			return nil
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return fmt.Errorf("error creating zip header for %s: %w", zipPath, err)
		}
		header.Name = zipPath
		header.Method = zip.Deflate
		writer, err := zipWriter.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("error creating zip entry for file %s: %w", zipPath, err)
		}

		file, err := fs.Fs.Open(path)
		if err != nil {
			return fmt.Errorf("error opening file %s: %w", path, err)
		}
		defer file.Close()

		if _, err := io.Copy(writer, file); err != nil {
			return fmt.Errorf("error writing file %s to zip: %w", path, err)
		}

		fileCount++
		return nil
	})
	if err != nil {
		return fmt.Errorf("error walking file system: %w", err)
	}

	if fileCount == 0 {
		return fmt.Errorf("no files to zip")
	}

	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("error closing zip writer: %w", err)
	}
	return nil
}

// ListFiles returns the tree under root as nested maps; files map to nil
func (fs *FileSystem) ListFiles(root string) (map[string]interface{}, error) {
	structure := make(map[string]interface{})

	err := afero.Walk(fs.Fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return err
		}

		parts := strings.Split(filepath.ToSlash(rel), "/")
		current := structure
		for i, part := range parts {
			if i == len(parts)-1 {
				if info.IsDir() {
					if _, exists := current[part]; !exists {
						current[part] = make(map[string]interface{})
					}
				} else {
					current[part] = nil
				}
				continue
			}
			next, ok := current[part].(map[string]interface{})
			if !ok {
				next = make(map[string]interface{})
				current[part] = next
			}
			current = next
		}
		return nil
	})

	return structure, err
}

// Tree renders the result of ListFiles as an indented listing
func Tree(structure map[string]interface{}) string {
	var b strings.Builder
	writeTree(&b, structure, "")
	return b.String()
}

func writeTree(b *strings.Builder, node map[string]interface{}, indent string) {
	names := make([]string, 0, len(node))
	for name := range node {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		child, isDir := node[name].(map[string]interface{})
		if isDir {
			fmt.Fprintf(b, "%s%s/\n", indent, name)
			writeTree(b, child, indent+"  ")
			continue
		}
		fmt.Fprintf(b, "%s%s\n", indent, name)
	}
}
