// Package patterns compiles the disallowed text patterns checked by the
// pre-commit content guard.
package patterns

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern types
const (
	TypeFixed = "fixed" // literal substring
	TypeRegex = "regex" // RE2 regular expression
)

// DefaultDelimiter separates patterns in a single configuration string.
const DefaultDelimiter = "|"

// Pattern holds a compiled regex and its description.
type Pattern struct {
	Regex   *regexp.Regexp
	Name    string // shown in violation reports
	Type    string // fixed or regex
	Pattern string // original pattern string
}

// Match reports whether line contains the pattern.
func (p Pattern) Match(line string) bool {
	return p.Regex.MatchString(line)
}

// Split breaks a delimiter-joined pattern list into its entries. Empty
// entries are dropped, so "a||b|" yields ["a", "b"]. Entries are not trimmed:
// surrounding spaces are part of the pattern.
func Split(value, delim string) []string {
	if delim == "" {
		delim = DefaultDelimiter
	}
	var out []string
	for _, part := range strings.Split(value, delim) {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ValidType reports whether t names a supported pattern type.
func ValidType(t string) bool {
	return t == TypeFixed || t == TypeRegex
}

// Compile compiles source as a pattern of the given type. Matching is case
// sensitive in both modes. Returns an error if the pattern is invalid.
func Compile(source, typ string) (Pattern, error) {
	if typ == "" {
		typ = TypeFixed
	}
	expr := source
	switch typ {
	case TypeFixed:
		expr = regexp.QuoteMeta(source)
	case TypeRegex:
	default:
		return Pattern{}, fmt.Errorf("unknown pattern type %q", typ)
	}
	if source == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid pattern %q: %w", source, err)
	}
	return Pattern{Regex: re, Name: source, Type: typ, Pattern: source}, nil
}

// MustCompile is like Compile but panics if the pattern is invalid.
func MustCompile(source, typ string) Pattern {
	p, err := Compile(source, typ)
	if err != nil {
		panic(err)
	}
	return p
}

// CompileAll compiles every source with the same type, preserving order.
func CompileAll(sources []string, typ string) ([]Pattern, error) {
	result := make([]Pattern, 0, len(sources))
	for _, s := range sources {
		p, err := Compile(s, typ)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}
