package devenv

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/santiagomed/devspark/internal/fs"
)

const DevConfigFile = "dev_config.json"

// DefaultDevConfig is written under the caller's values when no config
// exists yet.
func DefaultDevConfig() map[string]any {
	return map[string]any{
		"development_mode": true,
		"debug_level":      "DEBUG",
		"auto_reload":      true,
		"test_database":    "sqlite:///test.db",
		"mock_services":    true,
	}
}

// CreateDevConfig writes dir/dev_config.json. With merge set and a config
// already present, values overlay the existing keys; otherwise they overlay
// DefaultDevConfig. An existing file that is not a JSON object is an error
// and is left untouched.
func CreateDevConfig(fsys *fs.FileSystem, dir string, values map[string]any, merge bool) (map[string]any, error) {
	p := filepath.Join(dir, DevConfigFile)
	base := DefaultDevConfig()
	if merge && fsys.Exists(p) {
		content, err := fsys.ReadFile(p)
		if err != nil {
			return nil, err
		}
		existing := map[string]any{}
		if err := json.Unmarshal([]byte(content), &existing); err != nil {
			return nil, fmt.Errorf("failed to parse existing config %s: %w", p, err)
		}
		base = existing
	}
	for k, v := range values {
		base[k] = v
	}

	b, err := json.MarshalIndent(base, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("error encoding %s: %w", p, err)
	}
	if err := fsys.WriteFile(p, string(b)+"\n"); err != nil {
		return nil, err
	}
	return base, nil
}
