package resolve

import (
	"strconv"

	"github.com/dgerlanc/gitu/internal/invoke"

	"mvdan.cc/sh/v3/syntax"
)

// MaxCount bounds every numeric count argument.
const MaxCount = 65535

// One-line log format used by the l operation.
const onelineFormat = "%C(yellow)%h %C(magenta)%as %C(blue)%aL %C(cyan)%s%C(reset)"

// Operations returns the built-in operation table.
func Operations() []OperationSpec {
	return []OperationSpec{
		{
			Name:       "a",
			Summary:    "stage ARGS, or with no ARGS stage tracked changes and show status",
			Usage:      "[ARGS...]",
			ExpandTail: expandAdd,
		},
		{
			Name:    "aa",
			Summary: "stage all changes including untracked files and show status",
			Expand:  stageThenStatus("--all", CleanIndex),
		},
		{
			Name:    "aaf",
			Summary: "like aa, even when files are already staged",
			Expand:  stageThenStatus("--all", None),
		},
		{
			Name:    "aac",
			Summary: "stage all changes and commit",
			Usage:   "[COMMIT-ARGS...]",
			Expand:  stageThenCommit(),
		},
		{
			Name:    "aamend",
			Aliases: []string{"aam"},
			Summary: "stage all changes and amend the last commit",
			Usage:   "[COMMIT-ARGS...]",
			Expand:  stageThenCommit("--amend"),
		},
		{
			Name:    "au",
			Summary: "stage changes to tracked files and show status",
			Expand:  stageThenStatus("--update", CleanIndex),
		},
		{
			Name:    "auf",
			Summary: "like au, even when files are already staged",
			Expand:  stageThenStatus("--update", None),
		},
		{
			Name:    "auc",
			Aliases: []string{"ac"},
			Summary: "commit all changes to tracked files",
			Usage:   "[COMMIT-ARGS...]",
			Expand:  commitAll(),
		},
		{
			Name:    "aumend",
			Aliases: []string{"aum"},
			Summary: "amend the last commit with all changes to tracked files",
			Usage:   "[COMMIT-ARGS...]",
			Expand:  commitAll("--amend"),
		},
		{
			Name:    "alias",
			Summary: "list configured aliases, optionally those containing FILTER",
			Usage:   "[--show-origin] [--show-scope] [FILTER]",
			Expand:  expandAlias,
		},
		{
			Name:    "conf",
			Summary: "list configuration settings except aliases, optionally those containing FILTER",
			Usage:   "[--show-origin] [--show-scope] [FILTER]",
			Expand:  expandConf,
		},
		{
			Name:    "author",
			Summary: "reset the author of the last N commits (default 1) to the current identity",
			Usage:   "[N]",
			Expand:  expandAuthor,
		},
		{
			Name:    "files",
			Aliases: []string{"shf"},
			Summary: "list files changed in the last N commits (default 1)",
			Usage:   "[N]",
			Expand:  expandFiles,
		},
		{
			Name:    "l",
			Summary: "one line per commit for the last N commits (default 25)",
			Usage:   "[N] [LOG-ARGS...]",
			Expand:  countedLog("log", 25, "--pretty="+onelineFormat),
		},
		{
			Name:    "last",
			Aliases: []string{"la"},
			Summary: "commit message and changed files of the last N commits (default 1)",
			Usage:   "[N] [LOG-ARGS...]",
			Expand:  countedLog("log", 1, "--compact-summary"),
		},
		{
			Name:    "show",
			Aliases: []string{"sh"},
			Summary: "show the last N commits (default 1)",
			Usage:   "[N] [SHOW-ARGS...]",
			Expand:  countedLog("show", 1, "--expand-tabs=4"),
		},
		{
			Name:       "restore",
			Aliases:    []string{"rest"},
			Summary:    "restore working tree files; 'all' restores the whole tree",
			Usage:      "all | [ARGS...]",
			ExpandTail: restore(),
		},
		{
			Name:       "unstage",
			Aliases:    []string{"u"},
			Summary:    "move staged changes out of the index; 'all' unstages everything",
			Usage:      "all | ARGS...",
			ExpandTail: restore("--staged"),
		},
		{
			Name:    "undo",
			Summary: "undo the last N commits (default 1), keeping their changes",
			Usage:   "[N]",
			Expand:  expandUndo,
		},
		{
			Name:       "update",
			Aliases:    []string{"unwind"},
			Summary:    "fast-forward local BRANCH from origin without checking it out",
			Usage:      "BRANCH",
			ExpandTail: expandUpdate,
		},
	}
}

func plan(require Precondition, chain ...invoke.Invocation) (Plan, error) {
	return Plan{Chain: chain, Require: require}, nil
}

func expandAdd(b Builder, args, tail []string) (Plan, error) {
	if len(args) > 0 || len(tail) > 0 {
		return plan(None, b.Git(withPaths([]string{"add"}, args, tail)...))
	}
	return plan(CleanIndex, b.Git("add", "--update"), b.Git("status", "--short"))
}

func stageThenStatus(which string, require Precondition) func(Builder, []string) (Plan, error) {
	return func(b Builder, args []string) (Plan, error) {
		if err := noArgs(args); err != nil {
			return Plan{}, err
		}
		return plan(require, b.Git("add", which), b.Git("status", "--short"))
	}
}

func stageThenCommit(flags ...string) func(Builder, []string) (Plan, error) {
	return func(b Builder, args []string) (Plan, error) {
		commit := append([]string{"commit"}, flags...)
		return plan(CleanIndex, b.Git("add", "--all"), b.Git(append(commit, args...)...))
	}
}

func commitAll(flags ...string) func(Builder, []string) (Plan, error) {
	return func(b Builder, args []string) (Plan, error) {
		commit := append([]string{"commit", "--all"}, flags...)
		return plan(CleanIndex, b.Git(append(commit, args...)...))
	}
}

func expandAuthor(b Builder, args []string) (Plan, error) {
	n, err := optionalCount(args, 1)
	if err != nil {
		return Plan{}, err
	}
	program, qerr := syntax.Quote(b.Program(), syntax.LangPOSIX)
	if qerr != nil {
		return Plan{}, problemf("cannot quote program %q for rebase: %v", b.Program(), qerr)
	}
	exec := program + " commit --amend --no-edit --reset-author"
	return plan(None, b.Git("rebase", "HEAD~"+strconv.Itoa(n), "-x", exec))
}

func expandFiles(b Builder, args []string) (Plan, error) {
	n, err := optionalCount(args, 1)
	if err != nil {
		return Plan{}, err
	}
	return plan(None, b.Git("show", "--pretty=", "--name-only", maxCount(n)))
}

func countedLog(sub string, def int, flags ...string) func(Builder, []string) (Plan, error) {
	return func(b Builder, args []string) (Plan, error) {
		n, rest, err := leadingCount(args, def)
		if err != nil {
			return Plan{}, err
		}
		full := append([]string{sub}, flags...)
		full = append(full, maxCount(n))
		return plan(None, b.Git(append(full, rest...)...))
	}
}

func restore(flags ...string) func(Builder, []string, []string) (Plan, error) {
	staged := len(flags) > 0
	return func(b Builder, args, tail []string) (Plan, error) {
		full := append([]string{"restore"}, flags...)
		switch {
		case len(tail) > 0:
			return plan(None, b.Git(withPaths(full, args, tail)...))
		case len(args) == 1 && args[0] == "all":
			return plan(None, b.Git(append(full, ":/")...))
		case len(args) == 0 && staged:
			return Plan{}, problemf("requires 'all' or paths to unstage")
		}
		return plan(None, b.Git(append(full, args...)...))
	}
}

func expandUndo(b Builder, args []string) (Plan, error) {
	n, err := optionalCount(args, 1)
	if err != nil {
		return Plan{}, err
	}
	return plan(None, b.Git("reset", "--mixed", "HEAD~"+strconv.Itoa(n)))
}

func expandUpdate(b Builder, head, tail []string) (Plan, error) {
	args := append(append([]string(nil), head...), tail...)
	if len(args) != 1 || args[0] == "" {
		return Plan{}, problemf("requires exactly one branch name, got %d arguments", len(args))
	}
	branch := args[0]
	if branch[0] == '-' {
		return Plan{}, problemf("invalid branch name %q", branch)
	}
	return plan(None, b.Git("fetch", "--verbose", "origin", branch+":"+branch))
}

// withPaths returns cmd, then args, then the separator and paths when there
// are any, so git reads paths starting with a dash as paths.
func withPaths(cmd, args, paths []string) []string {
	full := append(append([]string(nil), cmd...), args...)
	if len(paths) > 0 {
		full = append(full, Separator)
		full = append(full, paths...)
	}
	return full
}

func noArgs(args []string) error {
	if len(args) > 0 {
		return problemf("takes no arguments, got %q", args)
	}
	return nil
}

func maxCount(n int) string {
	return "--max-count=" + strconv.Itoa(n)
}

// parseCount accepts decimal digits only, in 1..MaxCount.
func parseCount(s string) (int, error) {
	if !isDigits(s) {
		return 0, problemf("invalid count %q: must be a positive integer", s)
	}
	n, err := strconv.Atoi(s)
	if err != nil || n > MaxCount {
		return 0, problemf("invalid count %q: must be at most %d", s, MaxCount)
	}
	if n == 0 {
		return 0, problemf("invalid count %q: must be at least 1", s)
	}
	return n, nil
}

// optionalCount accepts no arguments (def) or a single count.
func optionalCount(args []string, def int) (int, error) {
	switch len(args) {
	case 0:
		return def, nil
	case 1:
		return parseCount(args[0])
	}
	return 0, problemf("accepts at most one argument (a count), got %d", len(args))
}

// leadingCount treats a first all-digit argument as the count and returns
// the rest untouched.
func leadingCount(args []string, def int) (int, []string, error) {
	if len(args) == 0 || !isDigits(args[0]) {
		return def, args, nil
	}
	n, err := parseCount(args[0])
	if err != nil {
		return 0, nil, err
	}
	return n, args[1:], nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
