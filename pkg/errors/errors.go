// Package errors provides structured error types for kgviz.
//
// Every failure the client can observe falls into one of four categories:
//
//   - TRANSPORT_ERROR: the request never produced a usable response
//     (network failure, non-2xx status, malformed JSON body)
//   - APPLICATION_ERROR: the backend answered but reported ret != 0
//   - VALIDATION_ERROR: required input was missing before any request was made
//   - FORMAT_ERROR: an imported file is not valid graph JSON
//
// A few auxiliary codes cover local concerns (paths, configuration).
//
// # Usage
//
//	err := errors.New(errors.ErrCodeValidation, "entity id is required")
//	if errors.Is(err, errors.ErrCodeValidation) {
//	    // no request was sent
//	}
//
//	err = errors.Wrap(errors.ErrCodeTransport, cause, "GET %s", url)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

const (
	// Failure taxonomy of the sync client and import adapter.
	ErrCodeTransport   Code = "TRANSPORT_ERROR"
	ErrCodeApplication Code = "APPLICATION_ERROR"
	ErrCodeValidation  Code = "VALIDATION_ERROR"
	ErrCodeFormat      Code = "FORMAT_ERROR"

	// Local errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeInternal     Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// Only the outermost *Error in the chain is considered.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Transport reports whether err is a transport failure.
func Transport(err error) bool { return Is(err, ErrCodeTransport) }

// Application reports whether err was reported by the backend (ret != 0).
func Application(err error) bool { return Is(err, ErrCodeApplication) }

// Validation reports whether err was raised by client-side input checks.
func Validation(err error) bool { return Is(err, ErrCodeValidation) }

// Format reports whether err is a malformed or incomplete graph document.
func Format(err error) bool { return Is(err, ErrCodeFormat) }
