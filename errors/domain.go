package errors

import "fmt"

// NotFound reports that no configuration file could be located.
func NotFound(message string, path string) *Error {
	e := New(CodeNotFound, message)
	if path != "" {
		e = e.WithContext(KeyPath, path)
	}
	return e
}

// Validation reports a missing or invalid configuration field.
func Validation(field, reason string) *Error {
	return Newf(CodeInvalidConfig, "invalid configuration: %s: %s", field, reason).
		WithContext(KeyField, field)
}

// ValidationWrap is Validation with an underlying cause.
func ValidationWrap(err error, field, reason string) error {
	if err == nil {
		return nil
	}
	e := Validation(field, reason)
	e.Cause = err
	return e
}

// AlreadyExists reports that path exists and overwriting was not requested.
func AlreadyExists(path string) *Error {
	return Newf(CodeAlreadyExists, "file already exists: %s", path).
		WithContext(KeyPath, path)
}

// ToolNotFound reports that the external binary could not be located or spawned.
// command is the attempted command line, kept for diagnosis only.
func ToolNotFound(program, command string, cause error) error {
	e := Newf(CodeToolNotFound, "%s not found; install it or put it on PATH", program).
		WithContext(KeyCommand, command)
	e.Cause = cause
	return e
}

// SyncFailed reports that the external tool exited with a non-zero status.
func SyncFailed(program string, exitCode int, command string) *Error {
	return New(CodeSyncFailed, fmt.Sprintf("%s exited with status %d", program, exitCode)).
		WithContext(KeyExitCode, exitCode).
		WithContext(KeyCommand, command)
}
