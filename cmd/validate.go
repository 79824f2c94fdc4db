package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/gitu/internal/audit"
	"github.com/dgerlanc/gitu/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and show the effective settings",
	Long: `Validate loads the gitu configuration, applies the environment and displays
the settings in effect, including every compiled disallowed pattern.

This is useful for:
- Checking that your config.toml syntax is correct
- Seeing which patterns the pre-commit hook will use
- Checking which environment variables override the file`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := config.InitError(); err != nil {
		return exitWith(1, fmt.Errorf("invalid configuration: %w", err))
	}
	cfg := config.Get()
	if cfg == nil {
		return fmt.Errorf("failed to load configuration")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Configuration valid!")
	fmt.Fprintln(out)

	source := cfg.Path
	if source == "" {
		source = "(defaults)"
	}
	fmt.Fprintf(out, "Config file: %s\n", source)
	fmt.Fprintf(out, "Git program: %s\n", cfg.Git.Program)

	email := cfg.Identity.Email
	if email == "" {
		email = "(not checked)"
	}
	fmt.Fprintf(out, "Expected author email: %s\n", email)

	auditState := "disabled"
	if audit.IsEnabled() {
		auditState = audit.Path()
	}
	fmt.Fprintf(out, "Audit log: %s\n", auditState)
	fmt.Fprintln(out)

	origin := "config file"
	if cfg.Guard.Disallowed != "" {
		origin = "GIT_UTIL_DISALLOWED_STRINGS"
	}
	fmt.Fprintf(out, "Disallowed patterns (%s, %s): %d\n", cfg.Guard.Mode, origin, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		fmt.Fprintf(out, "  - %s: %s\n", p.Name, p.Regex.String())
	}
	return nil
}
