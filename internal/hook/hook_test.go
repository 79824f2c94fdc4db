package hook

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgerlanc/gitu/internal/audit"
	"github.com/dgerlanc/gitu/internal/config"
	"github.com/dgerlanc/gitu/internal/guard"
	"github.com/dgerlanc/gitu/internal/invoke"
	"github.com/dgerlanc/gitu/internal/output"
	"github.com/dgerlanc/gitu/internal/patterns"
	"github.com/dgerlanc/gitu/internal/testutil"
)

const stagedDiff = `diff --git a/main.go b/main.go
--- a/main.go
+++ b/main.go
@@ -3,0 +4,2 @@
+// DO NOT COMMIT
+var debug = true
`

func testConfig(pats ...string) *config.Config {
	cfg := &config.Config{
		Git:   config.GitConfig{Program: "git"},
		Guard: config.GuardConfig{ExcerptWidth: 160},
	}
	for _, p := range pats {
		cfg.Patterns = append(cfg.Patterns, patterns.MustCompile(p, patterns.TypeFixed))
	}
	return cfg
}

func run(t *testing.T, opts Options) (int, string, error) {
	t.Helper()
	var stderr bytes.Buffer
	opts.Printer = output.New(&stderr, output.Never)
	code, err := PreCommit(context.Background(), opts)
	return code, stderr.String(), err
}

func TestPreCommitNoPatterns(t *testing.T) {
	runner := testutil.NewFakeRunner()
	code, _, err := run(t, Options{Config: testConfig(), Runner: runner})
	if err != nil || code != 0 {
		t.Fatalf("PreCommit() = %d, %v; want 0, nil", code, err)
	}
	if len(runner.Calls()) != 0 {
		t.Errorf("expected no git calls without patterns, got %v", runner.CommandLines())
	}
}

func TestPreCommitViolation(t *testing.T) {
	runner := testutil.NewFakeRunner(testutil.Output(stagedDiff))
	code, stderr, err := run(t, Options{Config: testConfig("DO NOT COMMIT"), Runner: runner})
	if err != nil {
		t.Fatalf("PreCommit() error = %v", err)
	}
	if code != ExitViolation {
		t.Errorf("PreCommit() = %d, want %d", code, ExitViolation)
	}

	want := `main.go:4: disallowed "DO NOT COMMIT": // DO NOT COMMIT`
	if !strings.Contains(stderr, want) {
		t.Errorf("stderr = %q, want it to contain %q", stderr, want)
	}
	if !strings.Contains(stderr, "commit rejected: 1 disallowed match in 2 added lines") {
		t.Errorf("missing summary in %q", stderr)
	}

	calls := runner.CommandLines()
	if len(calls) != 1 || !strings.HasSuffix(calls[0], " HEAD") {
		t.Errorf("calls = %v, want one diff-index against HEAD", calls)
	}
}

func TestPreCommitPasses(t *testing.T) {
	runner := testutil.NewFakeRunner(testutil.Output(stagedDiff))
	code, stderr, err := run(t, Options{Config: testConfig("nocommit"), Runner: runner})
	if err != nil || code != 0 {
		t.Fatalf("PreCommit() = %d, %v; want 0, nil", code, err)
	}
	if stderr != "" {
		t.Errorf("expected no output, got %q", stderr)
	}
}

func TestPreCommitWithoutHead(t *testing.T) {
	runner := testutil.NewFakeRunner(testutil.Output(""))
	code, _, err := run(t, Options{
		Config:  testConfig("x"),
		Runner:  runner,
		HasHead: func() (bool, error) { return false, nil },
	})
	if err != nil || code != 0 {
		t.Fatalf("PreCommit() = %d, %v", code, err)
	}
	calls := runner.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	args := calls[0].Args()
	if args[len(args)-1] != guard.EmptyTree {
		t.Errorf("base = %q, want the empty tree", args[len(args)-1])
	}
}

func TestPreCommitGitFailureFailsClosed(t *testing.T) {
	runner := testutil.NewFakeRunner(testutil.Step{Result: invoke.Result{
		ExitCode: 128,
		Stderr:   []byte("fatal: not a git repository"),
	}})
	code, _, err := run(t, Options{Config: testConfig("x"), Runner: runner})
	if err == nil {
		t.Fatal("expected an error")
	}
	if code != ExitViolation {
		t.Errorf("PreCommit() = %d, want %d", code, ExitViolation)
	}
	if !strings.Contains(err.Error(), "not a git repository") {
		t.Errorf("error = %v", err)
	}
}

func TestPreCommitConfigErrorFailsClosed(t *testing.T) {
	runner := testutil.NewFakeRunner()
	code, _, err := run(t, Options{
		Config:      testConfig(),
		ConfigError: errors.New("invalid pattern"),
		Runner:      runner,
	})
	if err == nil || code != ExitViolation {
		t.Fatalf("PreCommit() = %d, %v; want failure", code, err)
	}
	if len(runner.Calls()) != 0 {
		t.Error("expected no git calls")
	}
}

func TestPreCommitDiffInput(t *testing.T) {
	runner := testutil.NewFakeRunner()
	code, stderr, err := run(t, Options{
		Config: testConfig("debug"),
		Runner: runner,
		Diff:   strings.NewReader(stagedDiff),
	})
	if err != nil || code != ExitViolation {
		t.Fatalf("PreCommit() = %d, %v", code, err)
	}
	if !strings.Contains(stderr, "main.go:5:") {
		t.Errorf("stderr = %q", stderr)
	}
	if len(runner.Calls()) != 0 {
		t.Errorf("diff input should not run git, got %v", runner.CommandLines())
	}
}

func TestIdentityCheck(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		author   string
		userMail string
		wantErr  bool
	}{
		{"not configured", "", "", "", false},
		{"author matches", "me@example.com", "me@example.com", "", false},
		{"author differs", "me@example.com", "other@example.com", "", true},
		{"falls back to user.email", "me@example.com", "", "me@example.com\n", false},
		{"user.email differs", "me@example.com", "", "work@example.com\n", true},
		{"nothing set", "me@example.com", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Identity = config.IdentityConfig{Email: tt.expected, AuthorEmail: tt.author}

			runner := &testutil.FakeRunner{Respond: func(inv invoke.Invocation) (invoke.Result, error) {
				if tt.userMail == "" {
					return invoke.Result{ExitCode: 1}, nil
				}
				return invoke.Result{Stdout: []byte(tt.userMail)}, nil
			}}

			code, _, err := run(t, Options{Config: cfg, Runner: runner})
			if tt.wantErr {
				var idErr *IdentityError
				if !errors.As(err, &idErr) {
					t.Fatalf("error = %v, want *IdentityError", err)
				}
				if idErr.Expected != tt.expected {
					t.Errorf("Expected = %q", idErr.Expected)
				}
				if code != ExitViolation {
					t.Errorf("code = %d", code)
				}
				return
			}
			if err != nil || code != 0 {
				t.Errorf("PreCommit() = %d, %v", code, err)
			}
		})
	}
}

func TestIdentityErrorMessage(t *testing.T) {
	err := &IdentityError{Expected: "a@x", Actual: "b@x"}
	if got := err.Error(); got != `commit author email "b@x" does not match expected "a@x"` {
		t.Errorf("Error() = %q", got)
	}
	err = &IdentityError{Expected: "a@x"}
	if got := err.Error(); got != `commit author email is not set, expected "a@x"` {
		t.Errorf("Error() = %q", got)
	}
}

func TestPreCommitAudit(t *testing.T) {
	defer audit.Reset()
	logPath := filepath.Join(t.TempDir(), "audit.log")
	if err := audit.Init(audit.Options{Path: logPath}); err != nil {
		t.Fatal(err)
	}

	runner := testutil.NewFakeRunner(testutil.Output(stagedDiff))
	if code, _, _ := run(t, Options{Config: testConfig("DO NOT COMMIT"), Runner: runner}); code != ExitViolation {
		t.Fatalf("code = %d", code)
	}

	entries, err := audit.ReadEntries(logPath, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Kind != audit.KindGuard || e.Succeeded || e.ExitCode != ExitViolation {
		t.Errorf("entry = %+v", e)
	}
	if len(e.Violations) != 1 || e.Violations[0].File != "main.go" || e.Violations[0].Line != 4 {
		t.Errorf("violations = %+v", e.Violations)
	}
	if e.ScannedLines != 2 {
		t.Errorf("ScannedLines = %d, want 2", e.ScannedLines)
	}
}
