// Package errors provides the error taxonomy for catalog sync operations.
package errors

import (
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeConfig indicates a configuration error (missing instance,
	// inactive instance, missing API key). Operations fail fast on these
	// before any network call.
	TypeConfig Type = "CONFIG_ERROR"

	// TypeValidation indicates invalid caller input
	TypeValidation Type = "VALIDATION_ERROR"

	// TypeProvider indicates a failed call to the payment provider
	TypeProvider Type = "PROVIDER_ERROR"

	// TypeStore indicates a persistence failure
	TypeStore Type = "STORE_ERROR"

	// TypeNotFound indicates a missing entity
	TypeNotFound Type = "NOT_FOUND"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, t Type) bool {
	if e, ok := err.(*Error); ok {
		return e.Type == t
	}
	return false
}

// Config creates a configuration error
func Config(message string) *Error {
	return New(TypeConfig, message)
}

// Validation creates an input validation error
func Validation(message string) *Error {
	return New(TypeValidation, message)
}

// Provider creates a provider error carrying the HTTP status and raw
// response body for diagnosis
func Provider(message string, status int, body string) *Error {
	e := New(TypeProvider, message)
	e.WithContext("status", status)
	if body != "" {
		e.WithContext("body", body)
	}
	return e
}

// Store creates a persistence error
func Store(message string, cause error) *Error {
	return Wrap(TypeStore, message, cause)
}

// NotFound creates a not found error
func NotFound(entityType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", entityType, identifier)
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
