package apperrors

import (
	"errors"
	"net/http"
)

// Code classifies a failure.
type Code string

const (
	CodeAuthenticationRequired Code = "AUTHENTICATION_REQUIRED"
	CodeValidation             Code = "VALIDATION"
	CodeDataAccess             Code = "DATA_ACCESS"
	CodeNotFound               Code = "NOT_FOUND"
	CodeConflict               Code = "CONFLICT"
	CodeForbidden              Code = "FORBIDDEN"
)

// HTTPStatus maps a code to the response status sent to clients.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeAuthenticationRequired:
		return http.StatusUnauthorized
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Message safe to show to callers
	Field   string // Offending input field, for validation errors
	Cause   error  // Wrapped underlying error, logged but never shown
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrAuthenticationRequired = &Error{Code: CodeAuthenticationRequired, Message: "Authentication required"}
	ErrValidation             = &Error{Code: CodeValidation, Message: "invalid input"}
	ErrDataAccess             = &Error{Code: CodeDataAccess, Message: "Unable to complete request"}
	ErrNotFound               = &Error{Code: CodeNotFound, Message: "not found"}
	ErrConflict               = &Error{Code: CodeConflict, Message: "conflict"}
	ErrForbidden              = &Error{Code: CodeForbidden, Message: "forbidden"}
)

// New creates a domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Validation creates a validation error naming the offending field.
func Validation(field, message string) *Error {
	return &Error{Code: CodeValidation, Message: message, Field: field}
}

// DataAccess wraps a store failure. message is what callers get to see.
func DataAccess(message string, cause error) *Error {
	return &Error{Code: CodeDataAccess, Message: message, Cause: cause}
}

// NotFound reports a missing record.
func NotFound(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

// CodeOf returns the code carried by err, or CodeDataAccess for anything
// that is not a domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeDataAccess
}

// PublicMessage returns the message a caller may see for err. Causes and
// non-domain errors are never exposed.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return ErrDataAccess.Message
}
