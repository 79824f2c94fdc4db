package hook

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dgerlanc/gitu/internal/constants"
	"github.com/dgerlanc/gitu/internal/logger"
)

// HookName is the git hook gitu installs.
const HookName = "pre-commit"

// Script is the installed hook.
const Script = "#!/bin/sh\nexec gitu hook pre-commit \"$@\"\n"

// ErrHookExists is returned when a different hook is already installed and
// overwriting was neither forced nor confirmed.
var ErrHookExists = errors.New("a different pre-commit hook is already installed")

// Confirm asks whether the hook at path may be replaced.
type Confirm func(path string) (bool, error)

// Install writes Script to hooksDir and returns its path. An identical hook
// is left in place and reported as unchanged. A different hook is replaced
// only when force is set or confirm approves; confirm may be nil.
func Install(hooksDir string, force bool, confirm Confirm) (path string, changed bool, err error) {
	path = filepath.Join(hooksDir, HookName)

	existing, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(existing, []byte(Script)):
		// make sure it is still executable
		if err := os.Chmod(path, constants.ExecMode); err != nil {
			return path, false, err
		}
		return path, false, nil
	case err == nil && !force:
		if confirm == nil {
			return path, false, fmt.Errorf("%s: %w (use --force to replace it)", path, ErrHookExists)
		}
		ok, cerr := confirm(path)
		if cerr != nil {
			return path, false, cerr
		}
		if !ok {
			return path, false, fmt.Errorf("%s: %w", path, ErrHookExists)
		}
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return path, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := os.MkdirAll(hooksDir, constants.DirMode); err != nil {
		return path, false, fmt.Errorf("failed to create hooks directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(Script), constants.ExecMode); err != nil {
		return path, false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(path, constants.ExecMode); err != nil {
		return path, false, err
	}
	logger.Debug("hook installed", "path", path)
	return path, true, nil
}
