// Package invoke describes requests to run an external program and executes
// ordered chains of them.
package invoke

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Invocation is one request to run an external program. It is a value type;
// the With* methods return modified copies and never touch the receiver.
type Invocation struct {
	program string
	args    []string
	dir     string
	stdin   []byte
	hasIn   bool
}

// New returns an Invocation of program with the given arguments.
func New(program string, args ...string) Invocation {
	return Invocation{program: program, args: clone(args)}
}

// WithArgs returns a copy with args appended to the argument list.
func (i Invocation) WithArgs(args ...string) Invocation {
	out := i
	out.args = make([]string, 0, len(i.args)+len(args))
	out.args = append(out.args, i.args...)
	out.args = append(out.args, args...)
	return out
}

// WithDir returns a copy that runs in dir. An empty dir means the caller's
// working directory.
func (i Invocation) WithDir(dir string) Invocation {
	out := i
	out.args = clone(i.args)
	out.dir = dir
	return out
}

// WithStdin returns a copy whose standard input is data.
func (i Invocation) WithStdin(data []byte) Invocation {
	out := i
	out.args = clone(i.args)
	out.stdin = append([]byte(nil), data...)
	out.hasIn = true
	return out
}

// Program returns the program name or path.
func (i Invocation) Program() string { return i.program }

// Args returns a copy of the argument list.
func (i Invocation) Args() []string { return clone(i.args) }

// Dir returns the working directory, or "" for the caller's.
func (i Invocation) Dir() string { return i.dir }

// Stdin returns a copy of the standard input payload and whether one was set.
func (i Invocation) Stdin() ([]byte, bool) {
	if !i.hasIn {
		return nil, false
	}
	return append([]byte(nil), i.stdin...), true
}

// String renders the invocation as a shell command line a user could paste.
func (i Invocation) String() string {
	var b strings.Builder
	if i.dir != "" {
		b.WriteString("(cd ")
		b.WriteString(quote(i.dir))
		b.WriteString(" && ")
	}
	b.WriteString(quote(i.program))
	for _, a := range i.args {
		b.WriteByte(' ')
		b.WriteString(quote(a))
	}
	if i.dir != "" {
		b.WriteByte(')')
	}
	return b.String()
}

// Equal reports whether two invocations describe the same request.
func (i Invocation) Equal(o Invocation) bool {
	if i.program != o.program || i.dir != o.dir || i.hasIn != o.hasIn || len(i.args) != len(o.args) {
		return false
	}
	for n := range i.args {
		if i.args[n] != o.args[n] {
			return false
		}
	}
	return string(i.stdin) == string(o.stdin)
}

// quote shell-quotes s for bash. Words made only of characters the shell
// never interprets are left bare. Strings bash cannot represent (NUL bytes)
// fall back to Go quoting so the rendering is still unambiguous.
func quote(s string) string {
	if safeWord(s) {
		return s
	}
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return strconv.Quote(s)
	}
	return q
}

// safeWord reports whether s needs no quoting: non-empty, only
// [A-Za-z0-9_@%+=:,./~-], and no leading tilde, which bash would expand.
func safeWord(s string) bool {
	if s == "" || s[0] == '~' {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		case strings.IndexByte("_@%+=:,./~-", c) >= 0:
		default:
			return false
		}
	}
	return true
}

func clone(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
