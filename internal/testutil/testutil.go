// Package testutil provides shared test utilities for gitu tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dgerlanc/gitu/internal/config"
	"github.com/dgerlanc/gitu/internal/constants"
	"github.com/dgerlanc/gitu/internal/invoke"
)

// SetupTestConfig creates a temporary config directory with test configuration
// and loads it. Returns a cleanup function that should be deferred.
func SetupTestConfig(t *testing.T, configContent string) func() {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv(constants.EnvConfigDir, tmpDir)

	if configContent != "" {
		configPath := filepath.Join(tmpDir, constants.ConfigFileName)
		if err := os.WriteFile(configPath, []byte(configContent), constants.FileMode); err != nil {
			t.Fatal(err)
		}
	}

	config.Reset()
	if err := config.Init(""); err != nil {
		t.Fatalf("config.Init() error = %v", err)
	}

	return func() {
		config.Reset()
	}
}

// MinimalTestConfig is a minimal config for testing.
const MinimalTestConfig = `
[guard]
patterns = ["DO NOT COMMIT", "nocommit"]

[audit]
enabled = false
`

// Step is one scripted response of a FakeRunner.
type Step struct {
	Result invoke.Result
	Err    error
}

// FakeRunner records every invocation it is asked to run and answers from a
// script. Calls beyond the script succeed with empty output.
type FakeRunner struct {
	mu    sync.Mutex
	Steps []Step
	// Respond, when set, takes precedence over Steps.
	Respond func(inv invoke.Invocation) (invoke.Result, error)
	calls   []invoke.Invocation
}

// NewFakeRunner returns a runner answering with steps in order.
func NewFakeRunner(steps ...Step) *FakeRunner {
	return &FakeRunner{Steps: steps}
}

// Run implements invoke.Runner.
func (f *FakeRunner) Run(_ context.Context, inv invoke.Invocation) (invoke.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := len(f.calls)
	f.calls = append(f.calls, inv)
	if f.Respond != nil {
		return f.Respond(inv)
	}
	if n < len(f.Steps) {
		return f.Steps[n].Result, f.Steps[n].Err
	}
	return invoke.Result{}, nil
}

// Calls returns the invocations received so far.
func (f *FakeRunner) Calls() []invoke.Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]invoke.Invocation(nil), f.calls...)
}

// CommandLines renders each received invocation as program plus arguments
// joined by spaces, which keeps assertions short.
func (f *FakeRunner) CommandLines() []string {
	var out []string
	for _, c := range f.Calls() {
		out = append(out, strings.Join(append([]string{c.Program()}, c.Args()...), " "))
	}
	return out
}

// Exit is a Step that exits with code and no output.
func Exit(code int) Step {
	return Step{Result: invoke.Result{ExitCode: code}}
}

// Output is a successful Step that prints stdout.
func Output(stdout string) Step {
	return Step{Result: invoke.Result{Stdout: []byte(stdout)}}
}
