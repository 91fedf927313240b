package devenv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/santiagomed/devspark/internal/fs"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

type Level string

const (
	LevelInfo       Level = "info"
	LevelSuggestion Level = "suggestion"
	LevelWarning    Level = "warning"
	LevelError      Level = "error"
)

type Finding struct {
	Level   Level  `json:"type"`
	Message string `json:"message"`
}

func info(format string, args ...any) Finding {
	return Finding{Level: LevelInfo, Message: fmt.Sprintf(format, args...)}
}

func suggest(format string, args ...any) Finding {
	return Finding{Level: LevelSuggestion, Message: fmt.Sprintf(format, args...)}
}

func warn(format string, args ...any) Finding {
	return Finding{Level: LevelWarning, Message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) Finding {
	return Finding{Level: LevelError, Message: fmt.Sprintf(format, args...)}
}

// LocalChecks inspects dir without running anything.
func LocalChecks(fsys *fs.FileSystem, dir string) []Finding {
	var findings []Finding
	at := func(name string) string { return filepath.Join(dir, name) }

	example, env := at(".env.example"), at(".env")
	switch {
	case !fsys.Exists(example):
		findings = append(findings, info("No '.env.example' file found, skipping .env check."))
	case !fsys.Exists(env):
		findings = append(findings, suggest("'.env.example' exists but '.env' file is missing. Consider creating a .env file for your local environment variables."))
	default:
		findings = append(findings, info("'.env' file found."))
		if missing, err := missingEnvKeys(fsys, example, env); err != nil {
			findings = append(findings, warn("Could not compare .env with .env.example: %v", err))
		} else if len(missing) > 0 {
			findings = append(findings, suggest("'.env' is missing keys from '.env.example': %s", strings.Join(missing, ", ")))
		}
	}

	if stat, err := fsys.Fs.Stat(at("requirements.txt")); err == nil {
		findings = append(findings, info("'requirements.txt' found. Size: %d bytes.", stat.Size()))
	} else {
		findings = append(findings, info("'requirements.txt' not found."))
	}

	if fsys.IsDir(at(".git")) {
		findings = append(findings, info("Project appears to be a Git repository."))
	} else {
		findings = append(findings, suggest("Project does not appear to be a Git repository. Consider 'git init'."))
	}

	if fsys.Exists(at("requirements.txt")) && !fsys.IsDir(at("venv")) && !fsys.IsDir(at(".venv")) {
		findings = append(findings, warn("Virtual environment not found. Run 'devspark init --setup' or create one with 'python3 -m venv venv'."))
	}

	if !anyExists(fsys, dir, "README.md", "README.rst", "README.txt", "README") {
		findings = append(findings, suggest("No README found. Consider documenting the project."))
	}
	if !anyExists(fsys, dir, "LICENSE", "LICENSE.md", "LICENSE.txt") {
		findings = append(findings, suggest("No LICENSE file found."))
	}

	findings = append(findings, SyntaxChecks(fsys, dir)...)
	return findings
}

func anyExists(fsys *fs.FileSystem, dir string, names ...string) bool {
	for _, n := range names {
		if fsys.Exists(filepath.Join(dir, n)) {
			return true
		}
	}
	return false
}

func missingEnvKeys(fsys *fs.FileSystem, example, env string) ([]string, error) {
	read := func(p string) (map[string]string, error) {
		f, err := fsys.Fs.Open(p)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return godotenv.Parse(f)
	}
	want, err := read(example)
	if err != nil {
		return nil, err
	}
	have, err := read(env)
	if err != nil {
		return nil, err
	}
	var missing []string
	for k := range want {
		if _, ok := have[k]; !ok {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// SyntaxChecks parses the JSON, YAML and TOML files directly under dir and
// reports the ones that do not parse.
func SyntaxChecks(fsys *fs.FileSystem, dir string) []Finding {
	entries, err := afero.ReadDir(fsys.Fs, dir)
	if err != nil {
		return []Finding{fail("Could not read %s: %v", dir, err)}
	}
	var findings []Finding
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		parse := syntaxCheckers[strings.ToLower(filepath.Ext(e.Name()))]
		if parse == nil {
			continue
		}
		content, err := fsys.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			findings = append(findings, fail("%v", err))
			continue
		}
		if err := parse(content); err != nil {
			findings = append(findings, fail("'%s' has invalid syntax: %v", e.Name(), err))
		}
	}
	return findings
}

var syntaxCheckers = map[string]func(string) error{
	".json": func(s string) error {
		if !gjson.Valid(s) {
			return fmt.Errorf("not valid JSON")
		}
		return nil
	},
	".yaml": checkYAML,
	".yml":  checkYAML,
	".toml": func(s string) error {
		var v map[string]any
		_, err := toml.Decode(s, &v)
		return err
	},
}

func checkYAML(s string) error {
	dec := yaml.NewDecoder(strings.NewReader(s))
	for {
		var v yaml.Node
		if err := dec.Decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// EnvironmentChecks inspects the host toolchain through r.
func EnvironmentChecks(ctx context.Context, r Runner, dir string, lang Language) []Finding {
	var findings []Finding
	run := func(name string, args ...string) (string, bool) {
		res, err := r.Run(ctx, Command{Name: name, Args: args, Dir: dir})
		if err != nil || res.ExitCode != 0 {
			return "", false
		}
		return strings.TrimSpace(res.Stdout + res.Stderr), true
	}

	switch lang {
	case Node:
		if v, ok := run("node", "--version"); ok {
			findings = append(findings, info("Node version: %s", v))
		} else {
			findings = append(findings, fail("Could not determine Node version"))
		}
	case Go:
		if v, ok := run("go", "version"); ok {
			findings = append(findings, info("Go version: %s", v))
		} else {
			findings = append(findings, fail("Could not determine Go version"))
		}
	default:
		if v, ok := run("python3", "--version"); ok {
			findings = append(findings, info("Python version: %s", v))
		} else {
			findings = append(findings, fail("Could not determine Python version"))
		}
	}

	if _, ok := run("git", "config", "--list"); !ok {
		findings = append(findings, warn("Git configuration not found or incomplete"))
	}
	return findings
}

// RunChecks combines the environment checks, when r is set, with the local
// checks.
func RunChecks(ctx context.Context, fsys *fs.FileSystem, r Runner, dir string, lang Language) []Finding {
	var findings []Finding
	if r != nil {
		findings = append(findings, EnvironmentChecks(ctx, r, dir, lang)...)
	}
	return append(findings, LocalChecks(fsys, dir)...)
}
