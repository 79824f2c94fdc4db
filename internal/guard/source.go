package guard

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dgerlanc/gitu/internal/invoke"
)

// EmptyTree is the object name of git's empty tree. Staged changes in a
// repository without commits are diffed against it.
const EmptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// TextSource offers every line of raw text, with no file metadata.
type TextSource struct {
	Text string
}

// Lines implements Source.
func (s TextSource) Lines(context.Context) ([]Line, error) {
	if s.Text == "" {
		return nil, nil
	}
	parts := strings.Split(strings.TrimSuffix(s.Text, "\n"), "\n")
	out := make([]Line, len(parts))
	for i, p := range parts {
		out[i] = Line{Index: i + 1, Text: p}
	}
	return out, nil
}

// DiffSource offers the added lines of a unified diff read from R.
type DiffSource struct {
	R io.Reader
}

// Lines implements Source.
func (s DiffSource) Lines(context.Context) ([]Line, error) {
	return ParseDiff(s.R)
}

// StagedSource retrieves the staged changes by running git diff-index
// through Executor, which must capture output.
type StagedSource struct {
	Executor   *invoke.Executor
	Program    string
	Dir        string
	GlobalArgs []string
	// Base is the tree to diff the index against; empty means HEAD.
	Base string
}

// Invocation returns the diff-index request the source runs.
func (s *StagedSource) Invocation() invoke.Invocation {
	base := s.Base
	if base == "" {
		base = "HEAD"
	}
	program := s.Program
	if program == "" {
		program = "git"
	}
	args := append([]string(nil), s.GlobalArgs...)
	args = append(args,
		"diff-index", "--cached", "--patch", "--find-renames",
		"--unified=0", "--no-color", "--no-ext-diff", base)
	return invoke.New(program, args...).WithDir(s.Dir)
}

// Lines implements Source. A non-zero exit from git is an error.
func (s *StagedSource) Lines(ctx context.Context) ([]Line, error) {
	inv := s.Invocation()
	res, err := s.Executor.Execute(ctx, []invoke.Invocation{inv})
	if err != nil {
		return nil, err
	}
	last, ok := res.Last()
	if !ok {
		return nil, nil
	}
	if !res.Succeeded {
		msg := strings.TrimSpace(string(last.Stderr))
		if msg == "" {
			return nil, fmt.Errorf("%s exited with status %d", inv, res.LastExitCode)
		}
		return nil, fmt.Errorf("%s exited with status %d: %s", inv, res.LastExitCode, msg)
	}
	return ParseDiff(bytes.NewReader(last.Stdout))
}
