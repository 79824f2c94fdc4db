package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/dgerlanc/gitu/internal/config"
	"github.com/dgerlanc/gitu/internal/constants"
)

func TestRunSetupCreatesConfigFile(t *testing.T) {
	resetGlobalState()

	configDir := filepath.Join(t.TempDir(), "gitu")
	t.Setenv(constants.EnvConfigDir, configDir)

	cmd := &cobra.Command{}
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := runSetup(cmd, []string{}); err != nil {
		t.Fatalf("runSetup() error = %v", err)
	}

	content, err := os.ReadFile(filepath.Join(configDir, "config.toml"))
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	if !bytes.Equal(content, config.GetDefaultConfig()) {
		t.Error("config file content does not match default config")
	}
	if !strings.Contains(stdout.String(), "Configuration written to:") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunSetupKeepsExistingConfig(t *testing.T) {
	resetGlobalState()

	tmpDir := t.TempDir()
	t.Setenv(constants.EnvConfigDir, tmpDir)

	configPath := filepath.Join(tmpDir, "config.toml")
	existing := []byte("# existing config")
	if err := os.WriteFile(configPath, existing, 0644); err != nil {
		t.Fatal(err)
	}

	cmd := &cobra.Command{}
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)

	if err := runSetup(cmd, []string{}); err != nil {
		t.Fatalf("expected no error when config exists, got: %v", err)
	}
	content, _ := os.ReadFile(configPath)
	if !bytes.Equal(content, existing) {
		t.Error("existing config file was modified")
	}
	if !strings.Contains(stdout.String(), "already exists") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestRunSetupForceOverwrites(t *testing.T) {
	resetGlobalState()

	tmpDir := t.TempDir()
	t.Setenv(constants.EnvConfigDir, tmpDir)

	configPath := filepath.Join(tmpDir, "config.toml")
	if err := os.WriteFile(configPath, []byte("# old"), 0644); err != nil {
		t.Fatal(err)
	}

	setupForce = true
	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	if err := runSetup(cmd, []string{}); err != nil {
		t.Fatalf("runSetup() error = %v", err)
	}
	content, _ := os.ReadFile(configPath)
	if !bytes.Equal(content, config.GetDefaultConfig()) {
		t.Error("expected --force to write the default config")
	}
}
