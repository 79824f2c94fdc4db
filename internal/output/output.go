// Package output renders gitu's diagnostics: echoed invocations, errors and
// content guard violations.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Color settings, matching the config values.
const (
	Auto   = "auto"
	Always = "always"
	Never  = "never"
)

// Printer writes styled diagnostics to one stream.
type Printer struct {
	w     io.Writer
	color bool

	command lipgloss.Style
	dryRun  lipgloss.Style
	errs    lipgloss.Style
	warn    lipgloss.Style
	path    lipgloss.Style
	pattern lipgloss.Style
	dim     lipgloss.Style
}

// New returns a Printer for w. setting is auto, always or never.
func New(w io.Writer, setting string) *Printer {
	enabled := ColorEnabled(w, setting)

	r := lipgloss.NewRenderer(w)
	switch {
	case !enabled:
		r.SetColorProfile(termenv.Ascii)
	case setting == Always && r.ColorProfile() == termenv.Ascii:
		r.SetColorProfile(termenv.ANSI)
	}

	return &Printer{
		w:       w,
		color:   enabled,
		command: r.NewStyle().Foreground(lipgloss.Color("5")),
		dryRun:  r.NewStyle().Foreground(lipgloss.Color("8")),
		errs:    r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		path:    r.NewStyle().Foreground(lipgloss.Color("6")),
		pattern: r.NewStyle().Foreground(lipgloss.Color("1")),
		dim:     r.NewStyle().Faint(true),
	}
}

// ColorEnabled decides whether output to w should be coloured. NO_COLOR and
// TERM=dumb disable colour unless setting is always; auto requires w to be a
// terminal.
func ColorEnabled(w io.Writer, setting string) bool {
	switch setting {
	case Never:
		return false
	case Always:
		return true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Writer returns the underlying stream.
func (p *Printer) Writer() io.Writer { return p.w }

// Color reports whether the printer emits colour.
func (p *Printer) Color() bool { return p.color }

// Command styles a rendered invocation line.
func (p *Printer) Command(line string) string {
	return p.command.Render(line)
}

// DryRun styles a rendered invocation that will not run.
func (p *Printer) DryRun(line string) string {
	return p.dryRun.Render(line)
}

// Errorf prints an error line prefixed with the program name.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.w, p.errs.Render("gitu: "+fmt.Sprintf(format, args...)))
}

// Warnf prints a warning line prefixed with the program name.
func (p *Printer) Warnf(format string, args ...any) {
	fmt.Fprintln(p.w, p.warn.Render("gitu: "+fmt.Sprintf(format, args...)))
}

// Println prints an unstyled line.
func (p *Printer) Println(args ...any) {
	fmt.Fprintln(p.w, args...)
}

// Violation prints one disallowed-pattern match:
//
//	path:line: disallowed "pattern": excerpt
func (p *Printer) Violation(location, pattern, excerpt string) {
	fmt.Fprintf(p.w, "%s: disallowed %s: %s\n",
		p.path.Render(location),
		p.pattern.Render(fmt.Sprintf("%q", pattern)),
		excerpt)
}

// Faint prints a de-emphasised line.
func (p *Printer) Faint(line string) {
	fmt.Fprintln(p.w, p.dim.Render(line))
}
