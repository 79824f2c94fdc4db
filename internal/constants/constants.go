// Package constants defines shared constants used across the gitu codebase.
package constants

import "os"

// File permissions
const (
	DirMode  os.FileMode = 0755
	FileMode os.FileMode = 0644
	ExecMode os.FileMode = 0755
)

// Environment variables
const (
	EnvConfigDir = "GITU_CONFIG"
	EnvLogFile   = "GITU_LOG_FILE"
)

// Application paths
const (
	AppName         = "gitu"
	XDGConfigSubdir = ".config"
	XDGDataSubdir   = ".local/share"
	ConfigFileName  = "config.toml"
	AuditFileName   = "audit.log"
)

// MaxVerbosity is the level at which repeated -v flags saturate.
const MaxVerbosity = 3
