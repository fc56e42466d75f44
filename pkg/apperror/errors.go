// Package apperror provides a structured way to handle application errors
// with specific codes and additional details, plus utilities for mapping
// errors onto HTTP status codes.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a specific application error code.
type ErrorCode string

const (
	// Input
	CodeValidation ErrorCode = "VALIDATION_ERROR"

	// Access
	CodeUnauthenticated  ErrorCode = "UNAUTHENTICATED"
	CodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	CodePathRejected     ErrorCode = "PATH_REJECTED"

	// Storage and generation
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeStoreFault      ErrorCode = "STORE_FAULT"
	CodeGenerationFault ErrorCode = "GENERATION_FAULT"

	// General
	CodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error is a custom error type that includes an ErrorCode, message,
// an optional field, additional details and an underlying cause.
type Error struct {
	Code    ErrorCode      // Code is a unique identifier for the type of error.
	Message string         // Message is a human-readable description of the error.
	Field   string         // Field indicates which input field caused the error, if applicable.
	Details map[string]any // Details provides additional structured information about the error.
	Cause   error          // Cause is the underlying error that triggered this application error.
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error, allowing for error chain introspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the ErrorCode onto an HTTP status code.
// CodePathRejected deliberately maps to 403: the caller learns only that
// access was denied, never why.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied, CodePathRejected:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new application error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewWithField creates a new application error with the given code, message, and field.
func NewWithField(code ErrorCode, message, field string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Field:   field,
		Details: make(map[string]any),
	}
}

// Wrap creates a new application error that wraps an existing error,
// providing additional context with a code and message.
func Wrap(cause error, code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Details: make(map[string]any),
	}
}

// WithDetails adds a key-value pair to the error's details map and returns the modified error.
func (e *Error) WithDetails(key string, value any) *Error {
	e.Details[key] = value
	return e
}

// WithField sets the field associated with the error and returns the modified error.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// Is checks if the given error is an application error with a matching ErrorCode.
// It uses errors.As to unwrap the error chain.
func Is(err error, code ErrorCode) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Code extracts the ErrorCode from an error. If the error is not an *Error,
// it returns CodeInternal.
func Code(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatus extracts an HTTP status code from any error.
// Non-application errors map to 500.
func HTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// Predefined errors for common scenarios.
var (
	ErrReportNotFound   = New(CodeNotFound, "report not found")
	ErrFileNotFound     = New(CodeNotFound, "report file not found")
	ErrNotReady         = New(CodePermissionDenied, "report is not ready for download")
	ErrPermissionDenied = New(CodePermissionDenied, "admin privileges required")
)
