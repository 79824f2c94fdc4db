// Package dispatch runs a resolved operation: precondition check, chain
// execution, output presentation and the audit record.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dgerlanc/gitu/internal/audit"
	"github.com/dgerlanc/gitu/internal/invoke"
	"github.com/dgerlanc/gitu/internal/logger"
	"github.com/dgerlanc/gitu/internal/resolve"
)

// Exit statuses for failures that are not git's own.
const (
	ExitFailure    = 1
	ExitResolution = 2
	ExitCannotRun  = 126
	ExitNotFound   = 127
)

// ErrStagedFiles is wrapped by PreconditionError.
var ErrStagedFiles = errors.New("there are already staged files")

// PreconditionError reports that an operation requiring an empty index found
// staged paths. Nothing from the chain ran.
type PreconditionError struct {
	Operation string
	Staged    []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Operation, ErrStagedFiles)
}

func (e *PreconditionError) Unwrap() error { return ErrStagedFiles }

// Request is one parsed command line.
type Request struct {
	Operation string
	Args      []string
	Mode      invoke.Mode
	// Echo renders each invocation before running it.
	Echo bool
}

// Dispatcher executes requests. Runners are chosen per plan: Attached hands
// the child the terminal, Capture collects stdout for a presenter or a
// precondition check.
type Dispatcher struct {
	Resolver *resolve.Resolver
	Attached invoke.Runner
	Capture  invoke.Runner
	// Stdout receives presenter output.
	Stdout io.Writer
	// Diag receives rendered invocations.
	Diag     io.Writer
	Decorate func(string) string
	// ConfigPath is recorded in the audit log.
	ConfigPath string
}

// Run carries out req and returns the process exit status. The error, when
// non-nil, is what the user should see; a chain that stopped on a failing
// git command is not an error, git already reported it.
func (d *Dispatcher) Run(ctx context.Context, req Request) (int, error) {
	startTime := time.Now()
	entry := audit.Entry{
		Kind:       audit.KindChain,
		Operation:  req.Operation,
		Args:       req.Args,
		Mode:       req.Mode.String(),
		ConfigPath: d.ConfigPath,
	}

	code, err := d.run(ctx, req, &entry)

	entry.ExitCode = code
	if err != nil {
		entry.Error = err.Error()
	}
	entry.DurationMs = float64(time.Since(startTime).Microseconds()) / 1000.0
	entry.Cwd, _ = os.Getwd()
	if aerr := audit.Log(entry); aerr != nil {
		logger.Warn("failed to write audit entry", "error", aerr)
	}
	return code, err
}

func (d *Dispatcher) run(ctx context.Context, req Request, entry *audit.Entry) (int, error) {
	plan, err := d.Resolver.Resolve(req.Operation, req.Args)
	if err != nil {
		return ExitResolution, err
	}

	entry.Operation = plan.Operation
	entry.PassThrough = plan.PassThrough
	for _, inv := range plan.Chain {
		entry.Invocations = append(entry.Invocations, inv.String())
	}
	logger.Debug("resolved",
		"operation", plan.Operation,
		"invocations", len(plan.Chain),
		"pass_through", plan.PassThrough,
		"precondition", plan.Require.String())

	// A dry run executes nothing, the read-only check included.
	if plan.Require == resolve.CleanIndex && req.Mode != invoke.DryRun {
		if code, err := d.checkCleanIndex(ctx, plan.Operation); err != nil {
			return code, err
		}
	}

	runner := d.Attached
	if plan.Present != nil {
		runner = d.Capture
	}
	ex := &invoke.Executor{
		Runner:   runner,
		Mode:     req.Mode,
		Echo:     req.Echo,
		Diag:     d.Diag,
		Decorate: d.Decorate,
	}

	res, err := ex.Execute(ctx, plan.Chain)
	entry.ExecutedCount = res.ExecutedCount
	entry.Succeeded = res.Succeeded && err == nil
	if err != nil {
		return ExitCode(err), err
	}

	if req.Mode == invoke.DryRun {
		return 0, nil
	}
	if !res.Succeeded {
		logger.Debug("chain stopped", "exit_code", res.LastExitCode, "executed", res.ExecutedCount)
		return res.LastExitCode, nil
	}

	if plan.Present != nil {
		last, _ := res.Last()
		if err := plan.Present(last.Stdout, d.Stdout); err != nil {
			entry.Succeeded = false
			return ExitFailure, fmt.Errorf("failed to write output: %w", err)
		}
	}
	return 0, nil
}

func (d *Dispatcher) checkCleanIndex(ctx context.Context, operation string) (int, error) {
	check := d.Resolver.CleanIndexCheck()
	ex := &invoke.Executor{Runner: d.Capture, Mode: invoke.Execute}

	res, err := ex.Execute(ctx, []invoke.Invocation{check})
	if err != nil {
		return ExitCode(err), err
	}
	last, _ := res.Last()
	if !res.Succeeded {
		msg := strings.TrimSpace(string(last.Stderr))
		if msg == "" {
			return res.LastExitCode, fmt.Errorf("%s: could not inspect the index: %s exited with status %d", operation, check, res.LastExitCode)
		}
		return res.LastExitCode, fmt.Errorf("%s: could not inspect the index: %s", operation, msg)
	}

	var staged []string
	for _, line := range strings.Split(string(last.Stdout), "\n") {
		if line != "" {
			staged = append(staged, line)
		}
	}
	if len(staged) > 0 {
		logger.Debug("index is not clean", "staged", staged)
		return ExitFailure, &PreconditionError{Operation: operation, Staged: staged}
	}
	return 0, nil
}

// ExitCode maps an error from Run, or from anything else gitu reports, to
// its exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var resErr *resolve.ResolutionError
	if errors.As(err, &resErr) {
		return ExitResolution
	}
	var launch *invoke.LaunchError
	if errors.As(err, &launch) {
		if launch.NotFound() {
			return ExitNotFound
		}
		return ExitCannotRun
	}
	return ExitFailure
}
