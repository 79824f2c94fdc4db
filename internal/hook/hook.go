// Package hook implements gitu's pre-commit check and installs the hook
// script that runs it.
package hook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dgerlanc/gitu/internal/audit"
	"github.com/dgerlanc/gitu/internal/config"
	"github.com/dgerlanc/gitu/internal/guard"
	"github.com/dgerlanc/gitu/internal/invoke"
	"github.com/dgerlanc/gitu/internal/logger"
	"github.com/dgerlanc/gitu/internal/output"
)

// ExitViolation is the exit status when the commit is rejected.
const ExitViolation = 1

// IdentityError reports a commit author other than the configured one.
type IdentityError struct {
	Expected string
	Actual   string
}

func (e *IdentityError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("commit author email is not set, expected %q", e.Expected)
	}
	return fmt.Sprintf("commit author email %q does not match expected %q", e.Actual, e.Expected)
}

// Options configures PreCommit.
type Options struct {
	Config *config.Config
	// ConfigError is the error from loading Config. The check fails closed
	// when it is set.
	ConfigError error
	// Runner must capture output.
	Runner     invoke.Runner
	Printer    *output.Printer
	Dir        string
	GlobalArgs []string
	// Diff, when set, is scanned instead of the staged changes.
	Diff io.Reader
	// HasHead reports whether the repository has a commit to diff against.
	// Nil means it does.
	HasHead func() (bool, error)
}

// PreCommit runs the identity check and the content guard and returns the
// exit status for the hook. Violations are printed and reported through the
// status; a non-nil error means the check could not complete or the identity
// did not match, and the commit must still be rejected.
func PreCommit(ctx context.Context, opts Options) (int, error) {
	startTime := time.Now()
	entry := audit.Entry{Kind: audit.KindGuard}
	if opts.Config != nil {
		entry.ConfigPath = opts.Config.Path
	}

	code, err := preCommit(ctx, opts, &entry)

	entry.ExitCode = code
	entry.Succeeded = code == 0 && err == nil
	if err != nil {
		entry.Error = err.Error()
	}
	if opts.ConfigError != nil {
		entry.ConfigError = opts.ConfigError.Error()
	}
	entry.DurationMs = float64(time.Since(startTime).Microseconds()) / 1000.0
	entry.Cwd, _ = os.Getwd()
	if aerr := audit.Log(entry); aerr != nil {
		logger.Warn("failed to write audit entry", "error", aerr)
	}
	return code, err
}

func preCommit(ctx context.Context, opts Options, entry *audit.Entry) (int, error) {
	if opts.ConfigError != nil {
		return ExitViolation, fmt.Errorf("configuration error: %w", opts.ConfigError)
	}
	if opts.Config == nil {
		return ExitViolation, errors.New("no configuration")
	}
	cfg := opts.Config
	ex := &invoke.Executor{Runner: opts.Runner, Mode: invoke.Execute}

	if err := checkIdentity(ctx, ex, opts); err != nil {
		return ExitViolation, err
	}

	src := source(ex, opts)

	g := guard.New(cfg.Patterns)
	if cfg.Guard.ExcerptWidth > 0 {
		g.ExcerptWidth = cfg.Guard.ExcerptWidth
	}
	verdict, err := g.Evaluate(ctx, src)
	if err != nil {
		return ExitViolation, fmt.Errorf("pre-commit check failed: %w", err)
	}

	entry.ScannedLines = verdict.ScannedLines
	for _, v := range verdict.Violations {
		entry.Violations = append(entry.Violations, audit.Violation{
			Pattern: v.Pattern,
			File:    v.Location.File,
			Line:    v.Location.Line,
		})
	}

	if verdict.Passed() {
		logger.Info("pre-commit check passed", "lines", verdict.ScannedLines)
		return 0, nil
	}

	Report(opts.Printer, verdict)
	return ExitViolation, nil
}

// Report prints every violation followed by a summary line.
func Report(p *output.Printer, verdict guard.Verdict) {
	if p == nil {
		return
	}
	for _, v := range verdict.Violations {
		p.Violation(v.Location.String(), v.Pattern, v.Excerpt)
	}
	n := len(verdict.Violations)
	p.Errorf("commit rejected: %d disallowed %s in %d added %s",
		n, plural(n, "match", "matches"),
		verdict.ScannedLines, plural(verdict.ScannedLines, "line", "lines"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func checkIdentity(ctx context.Context, ex *invoke.Executor, opts Options) error {
	cfg := opts.Config
	expected := cfg.Identity.Email
	if expected == "" {
		return nil
	}

	actual := cfg.Identity.AuthorEmail
	if actual == "" {
		args := append(append([]string(nil), opts.GlobalArgs...), "config", "user.email")
		inv := invoke.New(cfg.Git.Program, args...).WithDir(opts.Dir)
		res, err := ex.Execute(ctx, []invoke.Invocation{inv})
		if err != nil {
			return fmt.Errorf("failed to read user.email: %w", err)
		}
		// git config exits 1 when the key is unset
		if last, ok := res.Last(); ok && res.Succeeded {
			actual = strings.TrimSpace(string(last.Stdout))
		}
	}

	if actual != expected {
		logger.Debug("identity mismatch", "expected", expected, "actual", actual)
		return &IdentityError{Expected: expected, Actual: actual}
	}
	return nil
}

func source(ex *invoke.Executor, opts Options) guard.Source {
	if opts.Diff != nil {
		return guard.DiffSource{R: opts.Diff}
	}
	return &lazyStaged{ex: ex, opts: opts}
}

// lazyStaged defers the HEAD lookup until the guard actually reads content,
// so an empty pattern set never touches the repository.
type lazyStaged struct {
	ex   *invoke.Executor
	opts Options
}

func (s *lazyStaged) Lines(ctx context.Context) ([]guard.Line, error) {
	st := &guard.StagedSource{
		Executor:   s.ex,
		Program:    s.opts.Config.Git.Program,
		Dir:        s.opts.Dir,
		GlobalArgs: s.opts.GlobalArgs,
	}
	if s.opts.HasHead != nil {
		has, err := s.opts.HasHead()
		if err != nil {
			return nil, err
		}
		if !has {
			st.Base = guard.EmptyTree
		}
	}
	return st.Lines(ctx)
}
