// Package apperrors provides domain-specific error types for releasectl.
// These error types carry the context needed to report a failed release step
// and map every failure class to a process exit status.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrAborted is returned when the operator declines a confirmation gate.
// It is a deliberate early exit, not a failure, and maps to exit status 0.
var ErrAborted = errors.New("release aborted by operator")

// Exit statuses used by the CLI. Delegated command failures propagate the
// child process status instead.
const (
	ExitOK      = 0
	ExitFailure = 1
)

// ConfigurationError represents configuration-related errors.
// It includes the configuration file path and specific key that caused the error.
type ConfigurationError struct {
	ConfigPath string // Path to the configuration file
	Key        string // Configuration key that caused the error
	Err        error  // Underlying error
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("configuration error in %s (key: %s): %v", e.ConfigPath, e.Key, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.ConfigPath, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// MissingEnvError reports a required environment variable that is not set.
type MissingEnvError struct {
	Name string
}

// Error implements the error interface for MissingEnvError.
func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("required environment variable %s is not set", e.Name)
}

// MissingArtifactError reports an expected packaging output that does not exist.
type MissingArtifactError struct {
	Kind string // "channel descriptor", "installer", ...
	Path string
	Err  error
}

// Error implements the error interface for MissingArtifactError.
func (e *MissingArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s not found at %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s not found at %s", e.Kind, e.Path)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *MissingArtifactError) Unwrap() error {
	return e.Err
}

// CommandError represents a delegated external command that failed.
// ExitCode is the child's exit status, or -1 when it never started.
type CommandError struct {
	Command  string
	ExitCode int
	Err      error
}

// Error implements the error interface for CommandError.
func (e *CommandError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("command %q failed (exit code %d): %v", e.Command, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// InvalidVersionError reports a string that is not a valid semantic version.
type InvalidVersionError struct {
	Version string
	Err     error
}

// Error implements the error interface for InvalidVersionError.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid semantic version %q: %v", e.Version, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *InvalidVersionError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by a release run to a process exit status.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrAborted) {
		return ExitOK
	}

	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.ExitCode > 0 {
		return cmdErr.ExitCode
	}

	return ExitFailure
}
