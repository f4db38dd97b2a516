package shell

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the shell backend. Typed errors carry the details and
// implement Is() so callers can match either way.
var (
	// ErrMissingParam is returned when a declared parameter has neither a
	// caller argument nor a default.
	ErrMissingParam = errors.New("required parameter not provided")

	// ErrShellFailed is returned when the subprocess exits non-zero or
	// cannot be spawned.
	ErrShellFailed = errors.New("shell command failed")
)

// MissingParamError identifies the unsatisfied parameter.
type MissingParamError struct {
	Extension string
	Param     string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf(
		"parameter %q not provided for %q and no default value is set",
		e.Param, e.Extension,
	)
}

// Is implements error matching for errors.Is() checks.
func (e *MissingParamError) Is(target error) bool {
	return target == ErrMissingParam
}

// ShellError carries the failed command text and its stderr.
type ShellError struct {
	Cmd    string
	Stderr string
	Err    error
}

func (e *ShellError) Error() string {
	msg := fmt.Sprintf("failed to execute command %q", e.Cmd)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Is implements error matching for errors.Is() checks.
func (e *ShellError) Is(target error) bool {
	return target == ErrShellFailed
}

func (e *ShellError) Unwrap() error {
	return e.Err
}
