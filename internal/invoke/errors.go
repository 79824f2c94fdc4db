package invoke

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
)

// ErrLaunch is matched by every LaunchError.
var ErrLaunch = errors.New("failed to launch")

// LaunchError reports that a program could not be started at all. It is
// distinct from the program running and exiting non-zero.
type LaunchError struct {
	Invocation Invocation
	Err        error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Invocation.Program(), e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrLaunch) true for any LaunchError.
func (e *LaunchError) Is(target error) bool { return target == ErrLaunch }

// NotFound reports whether the program could not be located.
func (e *LaunchError) NotFound() bool {
	return errors.Is(e.Err, exec.ErrNotFound) || errors.Is(e.Err, fs.ErrNotExist)
}
