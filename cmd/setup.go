package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/gitu/internal/config"
	"github.com/dgerlanc/gitu/internal/constants"
)

var setupForce bool

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write a default gitu configuration file",
	Long: `Setup creates a gitu configuration file with default settings.

The config file is written to ~/.config/gitu/config.toml (or the directory
given by the GITU_CONFIG environment variable).

Use --force to overwrite an existing configuration file.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().BoolVarP(&setupForce, "force", "f", false, "Overwrite existing config file")
}

func runSetup(cmd *cobra.Command, args []string) error {
	configDir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	configPath := filepath.Join(configDir, constants.ConfigFileName)
	out := cmd.OutOrStdout()

	if _, err := os.Stat(configPath); err == nil && !setupForce {
		fmt.Fprintf(out, "Config file already exists at %s (use --force to overwrite)\n", configPath)
		return nil
	}

	if setupForce {
		if err := os.MkdirAll(configDir, constants.DirMode); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, config.GetDefaultConfig(), constants.FileMode); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	} else if err := config.EnsureConfigFiles(configDir); err != nil {
		return err
	}

	fmt.Fprintf(out, "Configuration written to: %s\n", configPath)
	fmt.Fprintln(out, "Run 'gitu validate' to verify your configuration.")
	return nil
}
