package invoke

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"syscall"

	"github.com/dgerlanc/gitu/internal/logger"
)

// Result is the outcome of one completed Invocation. Stdout and Stderr are
// empty when the runner streamed them instead of capturing.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Runner is the capability to start a program and wait for it. The returned
// error is non-nil only when the program could not be started; a program
// that ran and exited non-zero is reported through Result.ExitCode.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// ProcessRunner runs invocations as child processes. A nil Stdout or Stderr
// means that stream is captured into the Result; a non-nil writer receives it
// directly, which for an *os.File hands the child the real terminal.
type ProcessRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

// Run starts inv and waits for it to exit.
func (r *ProcessRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	cmd := exec.CommandContext(ctx, inv.Program(), inv.Args()...)
	cmd.Dir = inv.Dir()
	cmd.Env = r.Env

	if data, ok := inv.Stdin(); ok {
		cmd.Stdin = bytes.NewReader(data)
	} else {
		cmd.Stdin = r.Stdin
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = &stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = &stderr
	}

	logger.Debug("running", "program", inv.Program(), "args", inv.Args(), "dir", inv.Dir())

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		if res.ExitCode < 0 {
			res.ExitCode = signalExitCode(exitErr)
		}
		logger.Debug("exited", "program", inv.Program(), "code", res.ExitCode)
		return res, nil
	}

	return Result{}, &LaunchError{Invocation: inv, Err: err}
}

// signalExitCode reports a child killed by a signal as shells do, 128 plus
// the signal number. Platforms without signal status give 1.
func signalExitCode(err *exec.ExitError) int {
	if ws, ok := err.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return 1
}

// Capturing returns a runner that captures both output streams.
func Capturing() *ProcessRunner {
	return &ProcessRunner{}
}
