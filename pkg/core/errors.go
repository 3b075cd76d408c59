package core

import (
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with category and details
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: no_such_element, not_connected, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context: xpath, action, window
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same code, so copies made by the With* helpers
// still match the predefined errors below.
func (e *ExecutionError) Is(target error) bool {
	var t *ExecutionError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithMessagef is WithMessage with formatting.
func (e *ExecutionError) WithMessagef(format string, args ...interface{}) *ExecutionError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Session errors
	ErrConnection = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "connection",
		Message:  "could not connect to WebDriver server",
	}
	ErrNotConnected = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "not_connected",
		Message:  "no WebDriver session is open",
	}

	// Assertion errors
	ErrAssertion = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "assertion_failed",
		Message:  "assertion failed",
	}

	// Configuration errors
	ErrInvalidTimeout = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_timeout",
		Message:  "invalid timeout option",
	}

	// Caller errors
	ErrInvalidAction = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "invalid_action",
		Message:  "action not supported by this element",
	}
	ErrInvalidArgument = &ExecutionError{
		Category: ErrCategoryAction,
		Code:     "invalid_argument",
		Message:  "invalid argument",
	}

	// Timeout errors
	ErrScriptTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "script_timeout",
		Message:  "script did not complete in time",
	}
	ErrNavigationTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "navigation_timeout",
		Message:  "page did not load in time",
	}
	ErrWaitTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "wait_timeout",
		Message:  "condition not met in time",
	}

	// Element errors
	ErrElementNotInteractable = &ExecutionError{
		Category: ErrCategoryElement,
		Code:     "element_not_interactable",
		Message:  "element not interactable",
	}
	ErrNoSuchElement = &ExecutionError{
		Category: ErrCategoryElement,
		Code:     "no_such_element",
		Message:  "element not found",
	}
	ErrNoSuchCookie = &ExecutionError{
		Category: ErrCategoryElement,
		Code:     "no_such_cookie",
		Message:  "cookie not found",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// CategoryOf returns the category of err, or ErrCategoryNone when err is not
// an ExecutionError.
func CategoryOf(err error) ErrorCategory {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	if err != nil {
		return ErrCategoryUnknown
	}
	return ErrCategoryNone
}
