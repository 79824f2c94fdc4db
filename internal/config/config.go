// Package config handles configuration loading and parsing for gitu.
//
// Settings come from an optional TOML file with environment variables layered
// on top. The result is an explicit Config value built once at startup.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/dgerlanc/gitu/internal/constants"
	"github.com/dgerlanc/gitu/internal/logger"
	"github.com/dgerlanc/gitu/internal/patterns"
)

//go:embed config.toml
var defaultConfig []byte

// Color settings
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config is the effective configuration.
type Config struct {
	Git      GitConfig      `toml:"git"`
	Guard    GuardConfig    `toml:"guard"`
	Identity IdentityConfig `toml:"identity"`
	Audit    AuditConfig    `toml:"audit"`
	Output   OutputConfig   `toml:"output"`

	// Patterns are the compiled disallowed patterns.
	Patterns []patterns.Pattern `toml:"-"`
	// Path is the file the configuration was read from, empty when only
	// defaults and the environment were used.
	Path string `toml:"-"`
}

// GitConfig selects the wrapped executable.
type GitConfig struct {
	Program string `toml:"program" env:"GIT_UTIL_GIT"`
}

// GuardConfig configures the pre-commit content guard.
type GuardConfig struct {
	Patterns []string `toml:"patterns"`
	// Disallowed is the delimiter-joined environment form of Patterns. When
	// set it replaces Patterns.
	Disallowed   string `toml:"-" env:"GIT_UTIL_DISALLOWED_STRINGS"`
	Delimiter    string `toml:"delimiter" env:"GIT_UTIL_DISALLOWED_DELIMITER"`
	Mode         string `toml:"mode" env:"GIT_UTIL_DISALLOWED_MODE"`
	ExcerptWidth int    `toml:"excerpt_width" env:"GIT_UTIL_EXCERPT_WIDTH"`
}

// IdentityConfig configures the commit author check.
type IdentityConfig struct {
	// Email is the expected author email; empty disables the check.
	Email string `toml:"email" env:"GIT_UTIL_USER_EMAIL"`
	// AuthorEmail is the author email git exported to the hook, if any.
	AuthorEmail string `toml:"-" env:"GIT_AUTHOR_EMAIL"`
}

// AuditConfig configures the audit log.
type AuditConfig struct {
	Enabled     bool   `toml:"enabled"`
	Disabled    bool   `toml:"-" env:"GITU_NO_AUDIT"`
	Path        string `toml:"path" env:"GITU_AUDIT_LOG"`
	MaxSize     int64  `toml:"max_size"`
	MaxArchives int    `toml:"max_archives"`
}

// OutputConfig configures diagnostic output.
type OutputConfig struct {
	Color string `toml:"color" env:"GITU_COLOR"`
}

// AuditEnabled reports whether runs should be recorded.
func (c *Config) AuditEnabled() bool {
	return c.Audit.Enabled && !c.Audit.Disabled
}

// PatternSources returns the uncompiled disallowed patterns in effect.
func (c *Config) PatternSources() []string {
	if c.Guard.Disallowed != "" {
		return patterns.Split(c.Guard.Disallowed, c.Guard.Delimiter)
	}
	var out []string
	for _, p := range c.Guard.Patterns {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var (
	// globalConfig is the loaded configuration
	globalConfig *Config
	// configInitialized tracks whether config has been loaded
	configInitialized bool
	// initErr is the error from the last Init, if any
	initErr error
)

// GetConfigDir returns the config directory path.
// Uses GITU_CONFIG env var if set, otherwise ~/.config/gitu
func GetConfigDir() (string, error) {
	if dir := os.Getenv(constants.EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, constants.XDGConfigSubdir, constants.AppName), nil
}

// GetConfigPath returns the path of config.toml in the config directory.
func GetConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, constants.ConfigFileName), nil
}

// EnsureConfigFiles creates the config directory and writes default config file if it doesn't exist.
func EnsureConfigFiles(configDir string) error {
	if err := os.MkdirAll(configDir, constants.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, constants.ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(configPath, defaultConfig, constants.FileMode); err != nil {
			return fmt.Errorf("failed to write %s: %w", constants.ConfigFileName, err)
		}
	}

	return nil
}

// defaults returns the built-in settings.
func defaults() *Config {
	return &Config{
		Git:   GitConfig{Program: "git"},
		Guard: GuardConfig{Delimiter: patterns.DefaultDelimiter, Mode: patterns.TypeFixed, ExcerptWidth: 160},
		Audit: AuditConfig{Enabled: true, MaxSize: 1 << 20, MaxArchives: 3},
		Output: OutputConfig{
			Color: ColorAuto,
		},
	}
}

// LoadConfig parses TOML data over the defaults and compiles the patterns.
// The environment is not consulted.
func LoadConfig(data []byte) (*Config, error) {
	cfg := defaults()
	if err := decode(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path (a missing file is not an error), applies
// environ on top and compiles the patterns. A nil environ means the process
// environment.
func Load(path string, environ map[string]string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(data, cfg); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			cfg.Path = path
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("no config file, using defaults", "path", path)
		default:
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	for _, section := range []any{&cfg.Git, &cfg.Guard, &cfg.Identity, &cfg.Audit, &cfg.Output} {
		if err := env.ParseWithOptions(section, opts); err != nil {
			return nil, fmt.Errorf("failed to parse environment: %w", err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		logger.Warn("ignoring unknown config keys", "keys", strings.Join(keys, ", "))
	}
	return nil
}

// finish validates settings and compiles the pattern list.
func (c *Config) finish() error {
	if c.Git.Program == "" {
		c.Git.Program = "git"
	}
	if c.Guard.Delimiter == "" {
		c.Guard.Delimiter = patterns.DefaultDelimiter
	}
	if c.Guard.Mode == "" {
		c.Guard.Mode = patterns.TypeFixed
	}
	if !patterns.ValidType(c.Guard.Mode) {
		return fmt.Errorf("invalid guard mode %q: must be %q or %q", c.Guard.Mode, patterns.TypeFixed, patterns.TypeRegex)
	}
	if c.Guard.ExcerptWidth < 0 {
		return fmt.Errorf("invalid excerpt_width %d: must not be negative", c.Guard.ExcerptWidth)
	}
	switch c.Output.Color {
	case "":
		c.Output.Color = ColorAuto
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color setting %q: must be auto, always or never", c.Output.Color)
	}

	compiled, err := patterns.CompileAll(c.PatternSources(), c.Guard.Mode)
	if err != nil {
		return fmt.Errorf("failed to compile disallowed patterns: %w", err)
	}
	c.Patterns = compiled
	return nil
}

// Init loads configuration from path, or from the default location when path
// is empty. If loading fails, it falls back to defaults plus the environment
// and returns the error, which InitError also reports afterwards.
func Init(path string) error {
	if configInitialized {
		return initErr
	}
	configInitialized = true

	if path == "" {
		var err error
		path, err = GetConfigPath()
		if err != nil {
			logger.Debug("failed to get config path, using defaults", "error", err)
			path = ""
		}
	}

	cfg, err := Load(path, nil)
	if err != nil {
		logger.Debug("failed to load config, using defaults", "error", err)
		initErr = err
		globalConfig = fallback()
		return err
	}

	logger.Debug("config loaded",
		"path", cfg.Path,
		"patterns", len(cfg.Patterns),
		"mode", cfg.Guard.Mode)
	globalConfig = cfg
	initErr = nil
	return nil
}

// fallback returns the defaults with whatever the environment supplies that
// still compiles.
func fallback() *Config {
	cfg, err := Load("", nil)
	if err != nil {
		cfg = defaults()
		_ = cfg.finish()
	}
	return cfg
}

// InitError returns the error from Init, if loading failed.
func InitError() error {
	return initErr
}

// Get returns the current configuration.
// If Init has not been called, it initializes with defaults.
func Get() *Config {
	if !configInitialized {
		Init("")
	}
	return globalConfig
}

// Reset resets the configuration state. Used for testing.
func Reset() {
	configInitialized = false
	globalConfig = nil
	initErr = nil
}

// GetDefaultConfig returns the embedded default configuration.
func GetDefaultConfig() []byte {
	return defaultConfig
}
