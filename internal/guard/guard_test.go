package guard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgerlanc/gitu/internal/patterns"
)

func fixed(t *testing.T, sources ...string) []patterns.Pattern {
	t.Helper()
	pats, err := patterns.CompileAll(sources, patterns.TypeFixed)
	require.NoError(t, err)
	return pats
}

type countingSource struct {
	lines []Line
	calls int
	err   error
}

func (s *countingSource) Lines(context.Context) ([]Line, error) {
	s.calls++
	return s.lines, s.err
}

func TestEvaluateEmptyPatternsPassesWithoutReading(t *testing.T) {
	src := &countingSource{lines: []Line{{Index: 1, Text: "anything"}}}
	v, err := Evaluate(context.Background(), nil, src)
	require.NoError(t, err)
	assert.True(t, v.Passed())
	assert.Equal(t, 0, v.ScannedLines)
	assert.Equal(t, 0, src.calls)
}

func TestEvaluateTextSource(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		text     string
		want     []Violation
	}{
		{
			name:     "clean",
			patterns: []string{"foo"},
			text:     "bar\nbaz\n",
		},
		{
			name:     "single match",
			patterns: []string{"foo"},
			text:     "one\nsome foo here\n",
			want: []Violation{
				{Pattern: "foo", Location: Location{Line: 2}, Excerpt: "some foo here"},
			},
		},
		{
			name:     "ordered by line then pattern",
			patterns: []string{"b", "a"},
			text:     "ab\nb\na",
			want: []Violation{
				{Pattern: "b", Location: Location{Line: 1}, Excerpt: "ab"},
				{Pattern: "a", Location: Location{Line: 1}, Excerpt: "ab"},
				{Pattern: "b", Location: Location{Line: 2}, Excerpt: "b"},
				{Pattern: "a", Location: Location{Line: 3}, Excerpt: "a"},
			},
		},
		{
			name:     "case sensitive",
			patterns: []string{"TODO"},
			text:     "todo later",
		},
		{
			name:     "delimited configuration value",
			patterns: patterns.Split("let|match", patterns.DefaultDelimiter),
			text:     "let x = 1;\nfoo();\nmatch y {}",
			want: []Violation{
				{Pattern: "let", Location: Location{Line: 1}, Excerpt: "let x = 1;"},
				{Pattern: "match", Location: Location{Line: 3}, Excerpt: "match y {}"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Evaluate(context.Background(), fixed(t, tt.patterns...), TextSource{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Violations)
			assert.Equal(t, len(tt.want) == 0, v.Passed())
		})
	}
}

func TestEvaluateDiffReportsFileAndLine(t *testing.T) {
	v, err := Evaluate(context.Background(), fixed(t, "DO NOT COMMIT", "Title"),
		DiffSource{R: strings.NewReader(sampleDiff)})
	require.NoError(t, err)
	assert.Equal(t, 6, v.ScannedLines)
	require.Len(t, v.Violations, 2)
	assert.Equal(t, "main.go:4", v.Violations[0].Location.String())
	assert.Equal(t, "README.md:1", v.Violations[1].Location.String())
}

func TestEvaluateOnlyAddedLines(t *testing.T) {
	// the pattern exists in the original file as context and as a removal
	diff := `diff --git a/cfg b/cfg
--- a/cfg
+++ b/cfg
@@ -1,3 +1,3 @@
 password=context
-password=removed
+user=added
 tail
`
	v, err := Evaluate(context.Background(), fixed(t, "password"), DiffSource{R: strings.NewReader(diff)})
	require.NoError(t, err)
	assert.True(t, v.Passed())
	assert.Equal(t, 1, v.ScannedLines)
}

func TestEvaluateSourceError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Evaluate(context.Background(), fixed(t, "x"), &countingSource{err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestScanMatchingIgnoresExcerptWidth(t *testing.T) {
	long := strings.Repeat("a", 50) + "SECRET"
	g := &Guard{Patterns: fixed(t, "SECRET"), ExcerptWidth: 10}
	got := g.Scan([]Line{{Index: 1, Text: long}})
	require.Len(t, got, 1)
	assert.Equal(t, strings.Repeat("a", 10)+Ellipsis, got[0].Excerpt)
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"short", "abc", 5, "abc"},
		{"exact", "abcde", 5, "abcde"},
		{"long", "abcdef", 5, "abcde…"},
		{"runes", "ééééé", 3, "ééé…"},
		{"default width", strings.Repeat("x", DefaultExcerptWidth), 0, strings.Repeat("x", DefaultExcerptWidth)},
		{"default width truncates", strings.Repeat("x", DefaultExcerptWidth+1), 0, strings.Repeat("x", DefaultExcerptWidth) + "…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Excerpt(tt.text, tt.width))
		})
	}
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "line 7", Location{Line: 7}.String())
	assert.Equal(t, "a/b.go:3", Location{File: "a/b.go", Line: 3}.String())
}

func TestTextSourceLines(t *testing.T) {
	lines, err := TextSource{Text: "a\n\nb\n"}.Lines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Line{{Index: 1, Text: "a"}, {Index: 2, Text: ""}, {Index: 3, Text: "b"}}, lines)

	lines, err = TextSource{}.Lines(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
}
