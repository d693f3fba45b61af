// Package errors provides structured error handling for inlet
package errors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal framework errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents invalid arguments or framework misuse
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents missing or malformed configuration
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeToolMissing represents a required external executable that
	// could not be found on the search path
	ErrorTypeToolMissing ErrorType = "tool_missing"
	// ErrorTypeCommand represents an external executable that ran but
	// exited non-zero
	ErrorTypeCommand ErrorType = "command"
	// ErrorTypeParse represents output that no parser strategy recognized
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeStorage represents snapshot or journal write failures
	ErrorTypeStorage ErrorType = "storage"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails merges a detail map into the error
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	for k, v := range details {
		e.WithDetail(k, v)
	}
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	return Wrap(err, errType, fmt.Sprintf(format, args...))
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// GetType returns the error's type, or ErrorTypeInternal for foreign errors
func GetType(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// GetDetails returns the error's detail map, or nil for foreign errors
func GetDetails(err error) map[string]interface{} {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	return e.Details
}

// Message returns the error's message without the type prefix, the form
// reported on the event stream. Foreign errors yield their full Error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	return e.Message
}

// As is a convenience re-export of the standard library's errors.As, so
// callers do not need two errors imports.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Is is a convenience re-export of the standard library's errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Unwrap is a convenience re-export of the standard library's errors.Unwrap.
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
