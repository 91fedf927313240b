package devenv

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/santiagomed/devspark/internal/fs"
	"github.com/santiagomed/devspark/internal/logger"
)

// PythonDevPackages are installed into a Python project's virtualenv.
var PythonDevPackages = []string{"pytest", "pytest-cov", "flake8", "black", "mypy", "isort", "pre-commit"}

func venvBin(dir, name string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(dir, "venv", "Scripts", name+".exe")
	}
	return filepath.Join(dir, "venv", "bin", name)
}

// InstallCommands lists the commands that install dir's dependencies for
// lang. Manifests that are absent are skipped.
func InstallCommands(fsys *fs.FileSystem, dir string, lang Language) []Command {
	var cmds []Command
	switch lang {
	case Python:
		python := venvBin(dir, "python")
		if !fsys.IsDir(filepath.Join(dir, "venv")) {
			cmds = append(cmds, Command{Name: "python3", Args: []string{"-m", "venv", "venv"}, Dir: dir})
		}
		cmds = append(cmds, Command{Name: python, Args: []string{"-m", "pip", "install", "--upgrade", "pip"}, Dir: dir})
		if fsys.Exists(filepath.Join(dir, "requirements.txt")) {
			cmds = append(cmds, Command{Name: python, Args: []string{"-m", "pip", "install", "-r", "requirements.txt"}, Dir: dir})
		}
		cmds = append(cmds, Command{Name: python, Args: append([]string{"-m", "pip", "install"}, PythonDevPackages...), Dir: dir})
	case Node:
		if fsys.Exists(filepath.Join(dir, "package.json")) {
			cmds = append(cmds, Command{Name: "npm", Args: []string{"install"}, Dir: dir})
		}
	case Go:
		if fsys.Exists(filepath.Join(dir, "go.mod")) {
			cmds = append(cmds, Command{Name: "go", Args: []string{"mod", "tidy"}, Dir: dir})
		}
	}
	return cmds
}

// SetupOptions selects the steps of Setup.
type SetupOptions struct {
	Language     Language
	Gitignore    bool
	GitInit      bool
	Hooks        bool
	DevTools     bool
	Install      bool
	MergeConfigs bool
}

// DefaultSetupOptions enables every step for lang.
func DefaultSetupOptions(lang Language) SetupOptions {
	return SetupOptions{
		Language:     lang,
		Gitignore:    true,
		GitInit:      true,
		Hooks:        true,
		DevTools:     lang == Python,
		Install:      true,
		MergeConfigs: true,
	}
}

// Setup prepares a freshly materialized project. Steps that touch only the
// filesystem always run; git and dependency installation need a Runner.
func Setup(ctx context.Context, fsys *fs.FileSystem, r Runner, dir string, o SetupOptions, l logger.Logger) error {
	if l == nil {
		l = logger.NewNullLogger()
	}
	l = l.WithField("dir", dir)

	if o.Gitignore {
		n, err := WriteGitignore(fsys, dir, o.Language)
		if err != nil {
			return fmt.Errorf("error writing .gitignore: %w", err)
		}
		l.Info(fmt.Sprintf("added %d .gitignore patterns", n))
	}
	if o.DevTools {
		if _, err := SetupDevTools(fsys, dir, o.MergeConfigs); err != nil {
			return fmt.Errorf("error configuring development tools: %w", err)
		}
	}
	if o.GitInit && r != nil && !fsys.IsDir(filepath.Join(dir, ".git")) {
		if err := RunAll(ctx, r, []Command{{Name: "git", Args: []string{"init"}, Dir: dir}}, l); err != nil {
			return fmt.Errorf("error initializing git repository: %w", err)
		}
	}
	if o.Hooks && fsys.IsDir(filepath.Join(dir, ".git")) {
		if _, err := SetupGitHooks(fsys, dir, o.Language); err != nil {
			return fmt.Errorf("error setting up git hooks: %w", err)
		}
	}
	if o.Install && r != nil {
		if err := RunAll(ctx, r, InstallCommands(fsys, dir, o.Language), l); err != nil {
			return fmt.Errorf("error installing dependencies: %w", err)
		}
	}
	return nil
}
