package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgerlanc/gitu/internal/config"
	"github.com/dgerlanc/gitu/internal/hook"
	"github.com/dgerlanc/gitu/internal/invoke"
	"github.com/dgerlanc/gitu/internal/logger"
	"github.com/dgerlanc/gitu/internal/repo"
)

var (
	hookDiffFile     string
	hookInstallForce bool
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Git hook integration",
	Long: `Commands used from git hooks.

The pre-commit check reads the staged changes and rejects the commit when an
added line contains a disallowed pattern, or when the author email differs
from the configured one. Configure patterns in config.toml or with
GIT_UTIL_DISALLOWED_STRINGS.`,
}

var preCommitCmd = &cobra.Command{
	Use:   "pre-commit",
	Short: "Check staged changes for disallowed content",
	Long: `Check the staged changes before a commit. Exits 0 when the commit may
proceed and 1 when it must be rejected, listing every match.

With --diff-file, a unified diff is read from the file (or stdin for '-')
instead of the staged changes, which is useful in CI.`,
	RunE: runPreCommit,
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the pre-commit hook in the current repository",
	Long: `Install writes a pre-commit hook that runs 'gitu hook pre-commit' into the
repository's hooks directory (core.hooksPath when set).

An existing, different hook is only replaced with --force or after
confirmation at an interactive prompt.`,
	Args: cobra.NoArgs,
	RunE: runHookInstall,
}

func init() {
	rootCmd.AddCommand(hookCmd)
	hookCmd.AddCommand(preCommitCmd)
	hookCmd.AddCommand(hookInstallCmd)

	preCommitCmd.Flags().StringVar(&hookDiffFile, "diff-file", "", "Scan a unified diff from this file ('-' for stdin)")
	hookInstallCmd.Flags().BoolVarP(&hookInstallForce, "force", "f", false, "Replace an existing pre-commit hook")
}

func runPreCommit(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	opts := hook.Options{
		Config:      cfg,
		ConfigError: config.InitError(),
		Runner:      &invoke.ProcessRunner{},
		Printer:     diagPrinter(cmd.ErrOrStderr()),
		Dir:         workDir,
		GlobalArgs:  gitGlobalArgs(),
	}

	switch hookDiffFile {
	case "":
		opts.HasHead = hasHead
	case "-":
		opts.Diff = cmd.InOrStdin()
	default:
		f, err := os.Open(hookDiffFile)
		if err != nil {
			return exitWith(hook.ExitViolation, fmt.Errorf("failed to open diff: %w", err))
		}
		defer f.Close()
		opts.Diff = f
	}

	code, err := hook.PreCommit(cmd.Context(), opts)
	return exitWith(code, err)
}

// hasHead reports whether the repository has commits. When go-git cannot
// read the repository, HEAD is assumed and git reports any problem itself.
func hasHead() (bool, error) {
	r, err := repo.Open(workDir)
	if err != nil {
		logger.Debug("repository lookup failed, assuming HEAD exists", "error", err)
		return true, nil
	}
	has, err := r.HasHead()
	if err != nil {
		logger.Debug("HEAD lookup failed, assuming it exists", "error", err)
		return true, nil
	}
	return has, nil
}

func runHookInstall(cmd *cobra.Command, args []string) error {
	r, err := repo.Open(workDir)
	if err != nil {
		return err
	}
	dir, err := r.HooksDir()
	if err != nil {
		return err
	}

	var confirm hook.Confirm
	if !hookInstallForce && isInteractive(cmd.InOrStdin()) {
		confirm = confirmReplace
	}

	path, changed, err := hook.Install(dir, hookInstallForce, confirm)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !changed {
		fmt.Fprintf(out, "pre-commit hook already installed at %s\n", path)
		return nil
	}
	fmt.Fprintf(out, "Installed pre-commit hook at %s\n", path)
	return nil
}

func isInteractive(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func confirmReplace(path string) (bool, error) {
	replace := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("%s already exists. Replace it?", path),
		Default: false,
	}
	if err := survey.AskOne(prompt, &replace); err != nil {
		return false, err
	}
	return replace, nil
}
