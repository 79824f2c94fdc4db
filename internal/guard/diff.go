package guard

import (
	"bufio"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Regex to match hunk headers: @@ -old_start,old_count +new_start,new_count @@
var hunkHeaderRegex = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// ParseDiff reads a unified diff and returns its added lines, each tagged
// with the new-side path and line number. Context, removed lines and all
// header lines are skipped, including header-like text inside a hunk.
func ParseDiff(r io.Reader) ([]Line, error) {
	br := bufio.NewReader(r)

	var (
		out              []Line
		file             string
		oldLeft, newLeft int
		newLine          int
	)
	inHunk := func() bool { return oldLeft > 0 || newLeft > 0 }

	for {
		raw, err := br.ReadString('\n')
		if raw == "" && err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		line := strings.TrimSuffix(raw, "\n")

		if inHunk() {
			switch {
			case strings.HasPrefix(line, "+"):
				out = append(out, Line{Index: len(out) + 1, File: file, Number: newLine, Text: line[1:]})
				newLine++
				newLeft--
			case strings.HasPrefix(line, "-"):
				oldLeft--
			case strings.HasPrefix(line, `\`):
				// "\ No newline at end of file"
			case strings.HasPrefix(line, "diff --git "):
				// hunk shorter than its header claimed
				oldLeft, newLeft = 0, 0
				file = gitHeaderPath(line)
			default:
				// context, or an empty line whose leading space was stripped
				oldLeft--
				newLeft--
				newLine++
			}
			if err != nil {
				return out, nil
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "diff --git "):
			file = gitHeaderPath(line)
		case strings.HasPrefix(line, "rename to "):
			file = unquotePath(strings.TrimPrefix(line, "rename to "))
		case strings.HasPrefix(line, "+++ "):
			if p := strings.TrimPrefix(line, "+++ "); p != "/dev/null" {
				file = stripPrefix(unquotePath(stripTimestamp(p)))
			}
		default:
			if m := hunkHeaderRegex.FindStringSubmatch(line); m != nil {
				oldLeft = count(m[2])
				newLeft = count(m[4])
				newLine, _ = strconv.Atoi(m[3])
			}
		}

		if err != nil {
			return out, nil
		}
	}
}

// count parses a hunk length; an omitted length means one line.
func count(s string) int {
	if s == "" {
		return 1
	}
	n, _ := strconv.Atoi(s)
	return n
}

// gitHeaderPath extracts the new path from "diff --git a/old b/new". Paths
// containing " b/" are ambiguous here; the "+++" or "rename to" header that
// follows overrides this guess.
func gitHeaderPath(line string) string {
	rest := strings.TrimPrefix(line, "diff --git ")
	if strings.HasSuffix(rest, `"`) {
		if i := strings.LastIndex(rest[:len(rest)-1], ` "`); i >= 0 {
			return stripPrefix(unquotePath(rest[i+1:]))
		}
	}
	if i := strings.LastIndex(rest, " b/"); i >= 0 {
		return rest[i+3:]
	}
	return ""
}

func unquotePath(p string) string {
	if len(p) >= 2 && p[0] == '"' {
		if s, err := strconv.Unquote(p); err == nil {
			return s
		}
	}
	return p
}

func stripPrefix(p string) string {
	if strings.HasPrefix(p, "b/") {
		return p[2:]
	}
	return p
}

// stripTimestamp removes the tab-separated timestamp non-git diff tools
// append to file headers.
func stripTimestamp(p string) string {
	if i := strings.IndexByte(p, '\t'); i >= 0 {
		return p[:i]
	}
	return p
}
