package git

import (
	"errors"
	"fmt"
)

// Sentinel errors that can be checked with errors.Is().

// ErrUnsupportedFilesystem is returned when a matcher-based helper receives a
// filesystem that is not backed by go-billy.
var ErrUnsupportedFilesystem = errors.New("filesystem is not backed by go-billy")

// ErrInvalidPath is returned when the path to test against the ignore rules
// is empty or escapes the project directory.
var ErrInvalidPath = errors.New("invalid path")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
