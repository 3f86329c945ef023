// Package errors provides the error taxonomy used across csync.
// It extends Go's standard error handling with string error codes, a context map
// for structured details (field names, exit codes, command lines) and helpers for
// classifying errors at the outermost layer.
package errors

// ErrorCode represents a specific error condition in csync.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Resolution errors.

	// CodeNotFound indicates no configuration file could be located.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeInvalidConfig indicates a configuration field is missing or invalid.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeAlreadyExists indicates a file already exists and cannot be created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Execution errors.

	// CodeToolNotFound indicates the external synchronization binary could not be located or spawned.
	CodeToolNotFound ErrorCode = "TOOL_NOT_FOUND"

	// CodeSyncFailed indicates the external synchronization tool ran and exited non-zero.
	CodeSyncFailed ErrorCode = "SYNC_FAILED"

	// CodeUnavailable indicates the remote host could not be reached.
	CodeUnavailable ErrorCode = "SERVICE_UNAVAILABLE"

	// System errors.

	// CodeInvalidInput indicates invalid arguments were passed by the caller.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// Context keys attached by the domain constructors.
const (
	// KeyField names the configuration field a validation error refers to.
	KeyField = "field"

	// KeyPath is the filesystem path involved in the error.
	KeyPath = "path"

	// KeyCommand is the rendered command line that was attempted.
	KeyCommand = "command"

	// KeyExitCode is the exit status returned by a child process.
	KeyExitCode = "exit_code"

	// KeyStderr holds the last lines a failed child wrote to stderr.
	KeyStderr = "stderr"
)
