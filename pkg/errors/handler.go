package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory classifies failures surfaced to the operator.
type ErrorCategory string

const (
	// CategoryConfig covers a missing env file, token or unparsable setting.
	CategoryConfig ErrorCategory = "config"
	// CategoryStartup covers the application-info fetch and client construction.
	CategoryStartup ErrorCategory = "startup"
	// CategoryRunLoop covers errors returned by the running client. These are logged, never fatal.
	CategoryRunLoop ErrorCategory = "runloop"
)

// StartupError is returned by the bootstrapper. Config and startup categories abort the process.
type StartupError struct {
	Category  ErrorCategory
	Operation string
	Cause     error
}

func (e *StartupError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s %s failed", e.Category, e.Operation)
	}
	return fmt.Sprintf("%s %s: %v", e.Category, e.Operation, e.Cause)
}

func (e *StartupError) Unwrap() error { return e.Cause }

// Config wraps cause as a fatal configuration error.
func Config(operation string, cause error) error {
	return &StartupError{Category: CategoryConfig, Operation: operation, Cause: cause}
}

// Startup wraps cause as a fatal startup error.
func Startup(operation string, cause error) error {
	return &StartupError{Category: CategoryStartup, Operation: operation, Cause: cause}
}

// RunLoop wraps cause as a non-fatal error from the running client.
func RunLoop(operation string, cause error) error {
	return &StartupError{Category: CategoryRunLoop, Operation: operation, Cause: cause}
}

// IsFatal reports whether err should abort the process with a non-zero exit code.
func IsFatal(err error) bool {
	var se *StartupError
	if !stderrors.As(err, &se) {
		return false
	}
	return se.Category == CategoryConfig || se.Category == CategoryStartup
}

// CategoryOf returns the category of err, or "" when err is not a StartupError.
func CategoryOf(err error) ErrorCategory {
	var se *StartupError
	if stderrors.As(err, &se) {
		return se.Category
	}
	return ""
}
