// Package command runs the external CLI tools that connectors wrap.
//
// The wrapped tools are opaque collaborators: the only contract is "exit 0
// with meaningful text on stdout, or non-zero with a diagnostic on stderr".
// This package's job is to capture that faithfully and to keep two failure
// modes distinguishable, because they carry different run policies:
//
//   - NotFoundError: the executable is not on the search path. The
//     integration's tooling is unavailable and the whole run must stop.
//   - ExitError: the executable ran and failed. Call sites decide whether
//     that aborts the run or is recorded as a per-source error.
//
// There are no retries and no timeout of its own; callers bound an
// invocation through the context when they need to.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/inletlabs/inlet/pkg/errors"
	"github.com/inletlabs/inlet/pkg/logger"
)

// Command describes one external invocation: an executable name resolved via
// the search path, its argument list exactly as given (no shell
// interpretation), and an optional working directory.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// Result holds the captured output of a successful invocation
type Result struct {
	Stdout string
	Stderr string
}

// NotFoundError reports an executable missing from the search path
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found in PATH", e.Name)
}

// ExitError reports an executable that ran but exited non-zero. Stderr is
// the captured diagnostic, trimmed.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
}

// Runner executes external commands
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner is the os/exec-backed Runner used outside of tests
type ExecRunner struct {
	logger *zap.Logger
}

var _ Runner = (*ExecRunner)(nil)

// NewExecRunner returns an ExecRunner logging through log; nil means the
// process-global logger.
func NewExecRunner(log *zap.Logger) *ExecRunner {
	if log == nil {
		log = logger.Get()
	}
	return &ExecRunner{logger: log}
}

// Run invokes the command and captures its output. Cancellation of ctx
// kills the process and surfaces the context's error.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	switch {
	case err == nil:
		r.logger.Debug("command completed",
			zap.String("tool", c.Name),
			zap.Strings("args", c.Args),
			zap.Duration("elapsed", elapsed),
			zap.Int("stdout_bytes", stdout.Len()))
		return res, nil

	case ctx.Err() != nil:
		r.logger.Warn("command canceled",
			zap.String("tool", c.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(ctx.Err()))
		return res, ctx.Err()

	case errors.Is(err, exec.ErrNotFound):
		r.logger.Warn("command not found", zap.String("tool", c.Name))
		return res, &NotFoundError{Name: c.Name}

	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			r.logger.Warn("command failed",
				zap.String("tool", c.Name),
				zap.Int("code", code),
				zap.Duration("elapsed", elapsed))
			return res, &ExitError{
				Name:   c.Name,
				Code:   code,
				Stderr: strings.TrimSpace(stderr.String()),
			}
		}
		return res, errors.Wrapf(err, errors.ErrorTypeInternal, "failed to run %s", c.Name)
	}
}
