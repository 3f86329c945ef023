package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Error is the structured error type returned by csync packages.
// It carries a code for classification, a human message, optional context
// and the underlying cause.
type Error struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause so errors.Is and errors.As see through it.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
// This lets callers match on a code with errors.Is(err, &Error{Code: CodeNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// Details renders the context map as sorted key=value pairs.
func (e *Error) Details() string {
	if len(e.Context) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Context[k]))
	}
	return strings.Join(parts, " ")
}

// New creates an error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an error with the given code and a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and message. A nil err returns nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Cause: err}
}

// WrapWithContext wraps err with a code, message and context map. A nil err returns nil.
// The context map is copied.
func WrapWithContext(err error, code ErrorCode, message string, context map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Context: maps.Clone(context), Cause: err}
}

// WithContext returns a copy of e with key set to value in its context.
func (e *Error) WithContext(key string, value interface{}) *Error {
	cp := *e
	cp.Context = maps.Clone(e.Context)
	if cp.Context == nil {
		cp.Context = make(map[string]interface{}, 1)
	}
	cp.Context[key] = value
	return &cp
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// GetCode returns the code of the first *Error in err's chain, or CodeUnknown.
func GetCode(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeUnknown
}

// HasCode reports whether err's chain contains an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// GetContext returns the context value stored under key by the first *Error in
// err's chain that has one.
func GetContext(err error, key string) (interface{}, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if v, found := e.Context[key]; found {
				return v, true
			}
		}
		err = stderrors.Unwrap(err)
	}
	return nil, false
}

// Field returns the configuration field name carried by a validation error.
func Field(err error) string {
	v, ok := GetContext(err, KeyField)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// ExitCode returns the child exit status carried by a sync failure.
func ExitCode(err error) (int, bool) {
	v, ok := GetContext(err, KeyExitCode)
	if !ok {
		return 0, false
	}
	code, ok := v.(int)
	return code, ok
}

// Is is a passthrough to the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
