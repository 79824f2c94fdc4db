package resolve

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgerlanc/gitu/internal/invoke"
	"github.com/dgerlanc/gitu/internal/output"
)

const aliasPrefix = "alias."

// listing holds the arguments shared by alias and conf.
type listing struct {
	showOrigin bool
	showScope  bool
	filter     string
}

func parseListing(args []string) (listing, error) {
	var l listing
	var positional []string
	for _, a := range args {
		switch {
		case a == "--show-origin":
			l.showOrigin = true
		case a == "--show-scope":
			l.showScope = true
		case strings.HasPrefix(a, "-") && a != "-":
			return listing{}, problemf("unknown option %q", a)
		default:
			positional = append(positional, a)
		}
	}
	if len(positional) > 1 {
		return listing{}, problemf("accepts at most one filter, got %d", len(positional))
	}
	if len(positional) == 1 {
		l.filter = positional[0]
	}
	return l, nil
}

// configFlags returns the git config options; they must precede the action.
func (l listing) configFlags() []string {
	var out []string
	if l.showOrigin {
		out = append(out, "--show-origin")
	}
	if l.showScope {
		out = append(out, "--show-scope")
	}
	return out
}

func expandAlias(b Builder, args []string) (Plan, error) {
	l, err := parseListing(args)
	if err != nil {
		return Plan{}, err
	}
	full := append([]string{"config"}, l.configFlags()...)
	full = append(full, "--get-regexp", `^alias\.`)
	return Plan{
		Chain:   chainOf(b.Git(full...)),
		Present: l.present(splitAlias),
	}, nil
}

func expandConf(b Builder, args []string) (Plan, error) {
	l, err := parseListing(args)
	if err != nil {
		return Plan{}, err
	}
	full := append([]string{"config", "--list"}, l.configFlags()...)
	return Plan{
		Chain:   chainOf(b.Git(full...)),
		Present: l.present(splitSetting),
	}, nil
}

// splitAlias splits "alias.name value" into name and value. Lines that are
// not aliases are skipped.
func splitAlias(entry string) (string, string, bool) {
	if !strings.HasPrefix(entry, aliasPrefix) {
		return "", "", false
	}
	entry = strings.TrimPrefix(entry, aliasPrefix)
	name, value, _ := strings.Cut(entry, " ")
	return name, value, true
}

// splitSetting splits "key=value", skipping aliases.
func splitSetting(entry string) (string, string, bool) {
	if strings.HasPrefix(entry, aliasPrefix) {
		return "", "", false
	}
	key, value, _ := strings.Cut(entry, "=")
	return key, value, true
}

// present renders git config output as aligned columns. With --show-scope or
// --show-origin git prefixes each entry with tab-separated fields, which
// become leading columns. The filter is a case-sensitive substring match
// against the displayed row.
func (l listing) present(split func(string) (string, string, bool)) Presenter {
	return func(stdout []byte, w io.Writer) error {
		var rows [][]string
		sc := bufio.NewScanner(bytes.NewReader(stdout))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			if line == "" {
				continue
			}
			fields := strings.Split(line, "\t")
			key, value, ok := split(fields[len(fields)-1])
			if !ok {
				continue
			}
			row := append(fields[:len(fields)-1:len(fields)-1], key, value)
			if l.filter != "" && !strings.Contains(strings.Join(row, " "), l.filter) {
				continue
			}
			rows = append(rows, row)
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("failed to read git config output: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := fmt.Fprintln(w, output.Columns(rows))
		return err
	}
}

func chainOf(invs ...invoke.Invocation) []invoke.Invocation { return invs }
