// Package cmd implements the CLI commands for gitu.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dgerlanc/gitu/internal/audit"
	"github.com/dgerlanc/gitu/internal/config"
	"github.com/dgerlanc/gitu/internal/constants"
	"github.com/dgerlanc/gitu/internal/dispatch"
	"github.com/dgerlanc/gitu/internal/invoke"
	"github.com/dgerlanc/gitu/internal/logger"
	"github.com/dgerlanc/gitu/internal/output"
	"github.com/dgerlanc/gitu/internal/resolve"
)

var (
	// Global flags
	verbosity  int
	printOnly  bool
	dryRun     bool
	configPath string
	noAuditLog bool
	logFile    string
	workDir    string
	gitConfigs []string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gitu [flags] OPERATION [ARGS...]",
	Short: "Shorthand operations for git",
	Long: `gitu expands short operation names into one or more git commands and runs
them in order, stopping at the first failure. Names it does not know are
handed to git unchanged, so gitu can stand in for git everywhere.

Run 'gitu ops' to list the operations. Arguments after '--' are appended to
the last git command of an operation.

gitu also provides a pre-commit hook that rejects commits whose added lines
contain disallowed text; see 'gitu hook --help'.`,
	Example: `  gitu aa              # git add --all && git status --short
  gitu l 10            # one line per commit for the last 10 commits
  gitu -n aac -m wip   # show what would run
  gitu stash pop       # not an operation: runs git stash pop`,
	Args:              cobra.ArbitraryArgs,
	RunE:              runOperation,
	ValidArgsFunction: completeOperations,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the command line and returns the process exit status.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var ee *exitError
	if !errors.As(err, &ee) || ee.err != nil {
		diagPrinter(rootCmd.ErrOrStderr()).Errorf("%v", err)
	}
	return ExitCode(err)
}

func init() {
	// Initialize before running any command
	cobra.OnInitialize(initApp)

	// Flags stop at the operation name; the rest belongs to git.
	rootCmd.Flags().SetInterspersed(false)
	// 'gitu help X' is git's help.
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	addGlobalFlags(rootCmd.PersistentFlags())
}

// addGlobalFlags registers the flags accepted before the operation name.
func addGlobalFlags(pf *pflag.FlagSet) {
	pf.CountVarP(&verbosity, "verbose", "v", "Print each git command before running it; repeat for debug logging")
	pf.BoolVarP(&printOnly, "print", "p", false, "Print each git command, then run it")
	pf.BoolVarP(&dryRun, "dry-run", "n", false, "Print the git commands without running them")
	pf.StringVar(&configPath, "config", "", "Config file (default ~/.config/gitu/config.toml, or $GITU_CONFIG)")
	pf.BoolVar(&noAuditLog, "no-audit-log", false, "Disable audit logging")
	pf.StringVar(&logFile, "log-file", "", "Also write debug logs to this file (or set GITU_LOG_FILE)")
	pf.StringVarP(&workDir, "directory", "C", "", "Run git as if started in this directory")
	pf.StringArrayVarP(&gitConfigs, "git-config", "c", nil, "Pass a NAME=VALUE configuration to every git command")
}

// initApp initializes the application (logger, config, audit)
func initApp() {
	if logFile == "" {
		logFile = os.Getenv(constants.EnvLogFile)
	}
	logger.Init(logger.Options{Verbosity: verbosity, File: logFile})

	// A broken config is reported by the commands that depend on it.
	if err := config.Init(configPath); err != nil {
		logger.Debug("config load failed", "error", err)
	}
	cfg := config.Get()

	if err := audit.Init(audit.Options{
		Path:        cfg.Audit.Path,
		Disable:     noAuditLog || !cfg.AuditEnabled(),
		MaxSize:     cfg.Audit.MaxSize,
		MaxArchives: cfg.Audit.MaxArchives,
	}); err != nil {
		logger.Warn("audit log unavailable", "error", err)
	}
}

func runOperation(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	cfg := config.Get()
	diag := diagPrinter(cmd.ErrOrStderr())
	if err := config.InitError(); err != nil {
		diag.Warnf("ignoring configuration: %v", err)
	}

	d := &dispatch.Dispatcher{
		Resolver:   resolve.New(resolverOptions(cfg)),
		Attached:   &invoke.ProcessRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr},
		Capture:    &invoke.ProcessRunner{Stderr: os.Stderr},
		Stdout:     cmd.OutOrStdout(),
		Diag:       diag.Writer(),
		Decorate:   diag.Command,
		ConfigPath: cfg.Path,
	}
	if dryRun {
		d.Decorate = diag.DryRun
	}

	code, err := d.Run(cmd.Context(), dispatch.Request{
		Operation: args[0],
		Args:      args[1:],
		Mode:      mode(),
		Echo:      verbosity > 0,
	})
	return exitWith(code, err)
}

func completeOperations(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveDefault
	}
	var out []cobra.Completion
	for _, op := range resolve.Operations() {
		for _, name := range append([]string{op.Name}, op.Aliases...) {
			if strings.HasPrefix(name, toComplete) {
				out = append(out, cobra.CompletionWithDesc(name, op.Summary))
			}
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// mode returns the execution mode selected by the global flags.
func mode() invoke.Mode {
	switch {
	case dryRun:
		return invoke.DryRun
	case printOnly:
		return invoke.PrintOnly
	}
	return invoke.Execute
}

// gitGlobalArgs returns the options placed before every git subcommand.
func gitGlobalArgs() []string {
	var out []string
	for _, c := range gitConfigs {
		out = append(out, "-c", c)
	}
	return out
}

func resolverOptions(cfg *config.Config) resolve.Options {
	return resolve.Options{
		Program:    cfg.Git.Program,
		Dir:        workDir,
		GlobalArgs: gitGlobalArgs(),
	}
}

// diagPrinter returns the printer for diagnostics written to w.
func diagPrinter(w io.Writer) *output.Printer {
	return output.New(w, config.Get().Output.Color)
}

// exitError carries a non-zero status out of a command. A nil err means the
// failure was already reported, typically by git itself.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, err error) error {
	if code == 0 && err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// usageError wraps a flag parsing failure.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var ue *usageError
	if errors.As(err, &ue) {
		return dispatch.ExitResolution
	}
	return dispatch.ExitCode(err)
}
