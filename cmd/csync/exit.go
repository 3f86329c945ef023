package main

import (
	stderrors "errors"
	"fmt"

	"github.com/t3bol90/csync/errors"
)

// Process exit statuses, following sysexits(3) where one applies.
const (
	exitOK           = 0
	exitFailure      = 1
	exitUsage        = 64
	exitUnavailable  = 69
	exitCantCreate   = 73
	exitConfig       = 78
	exitToolNotFound = 127
)

// usageError marks a mistake in how the command was invoked.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// exitCode maps an error returned by a command to the process exit status.
// A failed transfer exits with rsync's own status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ue *usageError
	if stderrors.As(err, &ue) {
		return exitUsage
	}

	switch errors.GetCode(err) {
	case errors.CodeNotFound, errors.CodeInvalidConfig:
		return exitConfig
	case errors.CodeAlreadyExists:
		return exitCantCreate
	case errors.CodeToolNotFound:
		return exitToolNotFound
	case errors.CodeUnavailable:
		return exitUnavailable
	case errors.CodeInvalidInput:
		return exitUsage
	case errors.CodeSyncFailed:
		if code, ok := errors.ExitCode(err); ok && code > 0 {
			return code
		}
	}
	return exitFailure
}
