// Package devenv prepares and inspects a project's development environment:
// dev config, ignore files, git hooks, tool configs, dependency installation
// and local health checks.
package devenv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/santiagomed/devspark/internal/logger"
)

// Command is a program invocation. It never goes through a shell.
type Command struct {
	Name string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is what a finished command produced. A non-zero ExitCode is not an
// error from Run.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes commands. Tests substitute a scripted implementation.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

const DefaultCommandTimeout = 10 * time.Minute

// ExecRunner runs commands on the host with os/exec.
type ExecRunner struct {
	Timeout time.Duration
	logger  logger.Logger
}

func NewExecRunner(timeout time.Duration, l logger.Logger) *ExecRunner {
	if l == nil {
		l = logger.NewNullLogger()
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &ExecRunner{Timeout: timeout, logger: l}
}

// Run starts cmd and waits for it. The error is non-nil only when the program
// could not be started or was killed by the timeout or ctx.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	r.logger.Debug(fmt.Sprintf("running %s (dir=%s)", cmd, cmd.Dir))
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	res.ExitCode = -1
	if ctx.Err() != nil {
		return res, fmt.Errorf("%s: %w", cmd, ctx.Err())
	}
	return res, fmt.Errorf("%s: %w", cmd, err)
}

// RunAll runs cmds in order and stops at the first one that fails to start
// or exits non-zero.
func RunAll(ctx context.Context, r Runner, cmds []Command, l logger.Logger) error {
	for _, cmd := range cmds {
		res, err := r.Run(ctx, cmd)
		if err != nil {
			return err
		}
		if res.ExitCode != 0 {
			msg := strings.TrimSpace(res.Stderr)
			if msg == "" {
				msg = strings.TrimSpace(res.Stdout)
			}
			return fmt.Errorf("%s exited with status %d: %s", cmd, res.ExitCode, msg)
		}
		l.Info(fmt.Sprintf("ran %s", cmd))
	}
	return nil
}
