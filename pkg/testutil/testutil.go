// Package testutil provides testing utilities for inlet
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/inletlabs/inlet/pkg/command"
)

// Logger creates a test logger that writes to the test output.
// The logger is automatically cleaned up when the test completes.
func Logger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TempBase creates a temporary base directory with the standard layout
// (connectors/, state/, journal/) and returns its path.
func TempBase(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	for _, sub := range []string{"connectors", "state", "journal"} {
		if err := os.MkdirAll(filepath.Join(base, sub), 0o755); err != nil {
			t.Fatalf("failed to scaffold base dir: %v", err)
		}
	}
	return base
}

// WriteConnectorDoc writes a connector's settings document under base and
// returns its path.
func WriteConnectorDoc(t *testing.T, base, name, contents string) string {
	t.Helper()

	dir := filepath.Join(base, "connectors", name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create connector dir: %v", err)
	}
	path := filepath.Join(dir, "connector.md")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write connector doc: %v", err)
	}
	return path
}

// FakeResponse is one scripted outcome for a FakeRunner
type FakeResponse struct {
	Stdout string
	Stderr string
	Err    error
}

// FakeRunner is a scripted command.Runner for connector tests. Responses
// are keyed by the space-joined command line ("name arg1 arg2 ..."); an
// invocation with no scripted response fails the test via Unscripted.
type FakeRunner struct {
	mu        sync.Mutex
	t         *testing.T
	responses map[string]FakeResponse
	calls     []command.Command
}

var _ command.Runner = (*FakeRunner)(nil)

// NewFakeRunner returns an empty FakeRunner bound to t
func NewFakeRunner(t *testing.T) *FakeRunner {
	return &FakeRunner{t: t, responses: make(map[string]FakeResponse)}
}

// Script registers the outcome for one command line
func (f *FakeRunner) Script(line string, resp FakeResponse) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[line] = resp
	return f
}

// Run returns the scripted response for the invocation
func (f *FakeRunner) Run(_ context.Context, cmd command.Command) (command.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, cmd)

	line := strings.Join(append([]string{cmd.Name}, cmd.Args...), " ")
	resp, ok := f.responses[line]
	if !ok {
		f.t.Fatalf("unscripted command: %q", line)
		return command.Result{}, nil
	}
	return command.Result{Stdout: resp.Stdout, Stderr: resp.Stderr}, resp.Err
}

// Calls returns every invocation seen so far, in order
func (f *FakeRunner) Calls() []command.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]command.Command, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallLines returns the space-joined command lines seen so far, in order
func (f *FakeRunner) CallLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = strings.Join(append([]string{c.Name}, c.Args...), " ")
	}
	return out
}
