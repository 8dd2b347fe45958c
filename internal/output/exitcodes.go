// Package output carries exit-coded errors and the progress printer used on
// stderr. Documents never go through this package.
package output

import "errors"

// Exit codes:
// 0 = Success
// 1 = User error (bad flags, unclean repository, broken template)
// 2 = System error (git, file(1), I/O)
// 3 = Decode overload (too many undecodable characters in one file)
const (
	ExitSuccess        = 0
	ExitUserError      = 1
	ExitSystemError    = 2
	ExitDecodeOverload = 3
)

// ExitError is an error that carries an exit code for the CLI.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/errors.As support.
func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewUserError creates an error for user-caused issues (exit code 1).
func NewUserError(message string) *ExitError {
	return &ExitError{Code: ExitUserError, Message: message}
}

// NewSystemErrorWithCause creates a system error wrapping an underlying cause.
func NewSystemErrorWithCause(message string, cause error) *ExitError {
	return &ExitError{Code: ExitSystemError, Message: message, Cause: cause}
}

// NewDecodeOverloadError wraps a render failure caused by an exhausted
// decode budget (exit code 3).
func NewDecodeOverloadError(cause error) *ExitError {
	return &ExitError{Code: ExitDecodeOverload, Cause: cause}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil, ExitUserError for non-ExitError errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitUserError
}
