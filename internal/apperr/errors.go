// Package apperr defines the error taxonomy shared by all request-handling
// code. Every handler failure is converted to an *Error carrying the HTTP
// status and the client-safe message; internal causes are kept for logging
// and never rendered.
package apperr

import (
	"fmt"
	"net/http"
)

// FieldError describes a single failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the unified application error.
type Error struct {
	Status  int
	Message string
	Details []FieldError
	cause   error
}

// Error implements the error interface.
func (applicationError *Error) Error() string {
	if applicationError.cause != nil {
		return fmt.Sprintf("%d: %s (cause: %v)", applicationError.Status, applicationError.Message, applicationError.cause)
	}
	return fmt.Sprintf("%d: %s", applicationError.Status, applicationError.Message)
}

// Unwrap returns the underlying cause.
func (applicationError *Error) Unwrap() error {
	return applicationError.cause
}

// Cause returns the underlying cause for logging.
func (applicationError *Error) Cause() error {
	return applicationError.cause
}

// Envelope is the uniform JSON error body.
type Envelope struct {
	Message string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// ToEnvelope renders the client-facing JSON body.
func (applicationError *Error) ToEnvelope() Envelope {
	return Envelope{
		Message: applicationError.Message,
		Details: applicationError.Details,
	}
}

// Validation reports malformed or missing input with field-level detail.
func Validation(details []FieldError) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: "Validation failed",
		Details: details,
	}
}

// BadRequest reports a rejected request without field detail.
func BadRequest(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message}
}

// Conflict reports a duplicate unique key.
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

// Unauthorized reports missing or invalid credentials.
func Unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: message}
}

// Forbidden reports a well-formed token whose identity was rejected.
func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Message: message}
}

// NotFound reports an absent entity.
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Internal wraps an unexpected failure. The cause is retained for logging;
// the client only ever sees the opaque message.
func Internal(cause error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
		cause:   cause,
	}
}
