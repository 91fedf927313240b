package devenv

import (
	"fmt"
	"path/filepath"

	"github.com/santiagomed/devspark/internal/fs"
)

type hookCheck struct {
	command string
	failure string
}

var preCommitChecks = map[Language][]hookCheck{
	Python: {
		{"python -m pytest", "Tests must pass before commit!"},
		{"flake8 .", "Code must pass linting before commit!"},
	},
	Node: {
		{"npm test --silent", "Tests must pass before commit!"},
	},
	Go: {
		{"go vet ./...", "Code must pass go vet before commit!"},
		{"go test ./...", "Tests must pass before commit!"},
	},
}

var prePushChecks = map[Language][]hookCheck{
	Python: {{"python -m pytest --cov", "Full test suite must pass before push!"}},
	Node:   {{"npm test", "Full test suite must pass before push!"}},
	Go:     {{"go test -race ./...", "Full test suite must pass before push!"}},
}

func hookScript(comment string, checks []hookCheck) string {
	s := "#!/bin/sh\n# " + comment + "\n"
	for _, c := range checks {
		s += fmt.Sprintf("%s\nif [ $? -ne 0 ]; then\n    echo \"%s\"\n    exit 1\nfi\n", c.command, c.failure)
	}
	return s
}

// SetupGitHooks writes executable pre-commit and pre-push hooks into
// dir/.git/hooks. The project must already be a git repository. Languages
// without checks get no hooks.
func SetupGitHooks(fsys *fs.FileSystem, dir string, lang Language) ([]string, error) {
	gitDir := filepath.Join(dir, ".git")
	if !fsys.IsDir(gitDir) {
		return nil, fmt.Errorf("%s is not a git repository", dir)
	}
	hooks := []struct {
		name    string
		comment string
		checks  []hookCheck
	}{
		{"pre-commit", "Run checks before commit", preCommitChecks[lang]},
		{"pre-push", "Run full test suite before push", prePushChecks[lang]},
	}

	var written []string
	for _, h := range hooks {
		if len(h.checks) == 0 {
			continue
		}
		p := filepath.Join(gitDir, "hooks", h.name)
		if err := fsys.WriteFile(p, hookScript(h.comment, h.checks)); err != nil {
			return written, err
		}
		if err := fsys.MakeExecutable(p); err != nil {
			return written, err
		}
		written = append(written, p)
	}
	return written, nil
}
