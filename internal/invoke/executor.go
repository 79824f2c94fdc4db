package invoke

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Mode selects what the Executor does with a chain.
type Mode int

const (
	// Execute runs every invocation.
	Execute Mode = iota
	// DryRun renders every invocation and runs none of them.
	DryRun
	// PrintOnly renders each invocation and then runs it.
	PrintOnly
)

func (m Mode) String() string {
	switch m {
	case Execute:
		return "execute"
	case DryRun:
		return "dry-run"
	case PrintOnly:
		return "print"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Prefixes used when rendering invocations to the diagnostic stream.
const (
	DryRunPrefix = "would run: "
	EchoPrefix   = "+ "
)

// ChainResult summarises the execution of a chain.
type ChainResult struct {
	Succeeded     bool
	LastExitCode  int
	ExecutedCount int
	Results       []Result
}

// Executor runs chains of invocations in order, stopping at the first
// invocation that exits non-zero.
type Executor struct {
	Runner Runner
	Mode   Mode
	// Echo renders invocations before running them in Execute mode too.
	Echo bool
	// Diag receives rendered invocations. Nothing is rendered when nil.
	Diag io.Writer
	// Decorate, when set, styles each rendered line.
	Decorate func(string) string
}

var errNoRunner = errors.New("executor has no runner")

// Execute evaluates chain according to the executor's mode. A non-nil error
// means an invocation could not be started (a *LaunchError) or ctx was
// cancelled; a non-zero exit is reported through the ChainResult instead.
func (e *Executor) Execute(ctx context.Context, chain []Invocation) (ChainResult, error) {
	res := ChainResult{Succeeded: true}

	if e.Mode == DryRun {
		for _, inv := range chain {
			e.render(DryRunPrefix, inv)
		}
		res.ExecutedCount = len(chain)
		return res, nil
	}

	if e.Runner == nil && len(chain) > 0 {
		return ChainResult{}, errNoRunner
	}

	for _, inv := range chain {
		if err := ctx.Err(); err != nil {
			res.Succeeded = false
			return res, err
		}
		if e.Mode == PrintOnly || e.Echo {
			e.render(EchoPrefix, inv)
		}

		r, err := e.Runner.Run(ctx, inv)
		if err != nil {
			res.Succeeded = false
			var launch *LaunchError
			if !errors.As(err, &launch) {
				err = &LaunchError{Invocation: inv, Err: err}
			}
			return res, err
		}

		res.ExecutedCount++
		res.Results = append(res.Results, r)
		res.LastExitCode = r.ExitCode
		if r.ExitCode != 0 {
			res.Succeeded = false
			break
		}
	}
	return res, nil
}

// Last returns the result of the last invocation that ran.
func (r ChainResult) Last() (Result, bool) {
	if len(r.Results) == 0 {
		return Result{}, false
	}
	return r.Results[len(r.Results)-1], true
}

func (e *Executor) render(prefix string, inv Invocation) {
	if e.Diag == nil {
		return
	}
	line := prefix + inv.String()
	if e.Decorate != nil {
		line = e.Decorate(line)
	}
	fmt.Fprintln(e.Diag, line)
}
