// Package guard scans text about to be committed for disallowed patterns.
//
// Content comes from a Source. The staged-changes source retrieves the diff
// through the invocation executor and keeps only added lines, so the scanner
// never sees context or removed lines. The guard never changes repository
// state.
package guard

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/dgerlanc/gitu/internal/logger"
	"github.com/dgerlanc/gitu/internal/patterns"
)

// DefaultExcerptWidth is the number of runes of a matching line kept in a
// violation excerpt.
const DefaultExcerptWidth = 160

// Ellipsis marks a truncated excerpt.
const Ellipsis = "…"

// Line is one line of content offered to the scanner.
type Line struct {
	Index  int    // 1-based position in the retrieved stream
	File   string // path, when known
	Number int    // line number in File, 0 when unknown
	Text   string
}

// Location identifies where a violation was found. When the source carried
// no file metadata, File is empty and Line is the stream index.
type Location struct {
	File string
	Line int
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("line %d", l.Line)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Violation records one pattern matching one line.
type Violation struct {
	Pattern  string
	Location Location
	Excerpt  string
}

// Verdict is the result of evaluating content.
type Verdict struct {
	Violations   []Violation
	ScannedLines int
}

// Passed reports whether no violation was found.
func (v Verdict) Passed() bool { return len(v.Violations) == 0 }

// Source supplies the lines to scan.
type Source interface {
	Lines(ctx context.Context) ([]Line, error)
}

// Guard holds the compiled patterns and reporting options. A Guard is
// read-only after construction.
type Guard struct {
	Patterns     []patterns.Pattern
	ExcerptWidth int
}

// New returns a Guard for pats with the default excerpt width.
func New(pats []patterns.Pattern) *Guard {
	return &Guard{Patterns: pats, ExcerptWidth: DefaultExcerptWidth}
}

// Evaluate retrieves lines from src and scans them. With no patterns the
// verdict passes without reading src. A retrieval error is returned as is and
// must be treated as a failed check by the caller.
func (g *Guard) Evaluate(ctx context.Context, src Source) (Verdict, error) {
	if len(g.Patterns) == 0 {
		logger.Debug("no disallowed patterns configured, skipping scan")
		return Verdict{}, nil
	}

	lines, err := src.Lines(ctx)
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to retrieve content: %w", err)
	}

	v := Verdict{Violations: g.Scan(lines), ScannedLines: len(lines)}
	logger.Debug("content scanned", "lines", v.ScannedLines, "violations", len(v.Violations))
	return v, nil
}

// Scan checks every line against every pattern. Violations are ordered by
// line, then by pattern order.
func (g *Guard) Scan(lines []Line) []Violation {
	var out []Violation
	for _, ln := range lines {
		for _, p := range g.Patterns {
			if !p.Match(ln.Text) {
				continue
			}
			out = append(out, Violation{
				Pattern:  p.Name,
				Location: locate(ln),
				Excerpt:  Excerpt(ln.Text, g.ExcerptWidth),
			})
		}
	}
	return out
}

// Evaluate is a convenience for New(pats).Evaluate(ctx, src).
func Evaluate(ctx context.Context, pats []patterns.Pattern, src Source) (Verdict, error) {
	return New(pats).Evaluate(ctx, src)
}

// Excerpt returns text unchanged when it fits in width runes, otherwise its
// first width runes followed by an ellipsis. A width <= 0 means the default.
func Excerpt(text string, width int) string {
	if width <= 0 {
		width = DefaultExcerptWidth
	}
	if utf8.RuneCountInString(text) <= width {
		return text
	}
	n := 0
	for i := range text {
		if n == width {
			return text[:i] + Ellipsis
		}
		n++
	}
	return text
}

func locate(ln Line) Location {
	if ln.File != "" && ln.Number > 0 {
		return Location{File: ln.File, Line: ln.Number}
	}
	return Location{Line: ln.Index}
}
