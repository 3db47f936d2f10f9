// Package errs defines the coded errors the registry returns to its callers.
package errs

import (
	stdErrors "errors"
	"fmt"
)

// Code classifies an Error.
type Code string

const (
	CodeValidation     Code = "VALIDATION_ERROR"
	CodeStorage        Code = "STORAGE_ERROR"
	CodeNotFound       Code = "NOT_FOUND"
	CodePartialFailure Code = "PARTIAL_FAILURE"
)

// Error is a coded registry error with optional details and cause.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

// New returns an Error without a cause.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap returns an Error caused by err.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// Storage wraps a persistence failure. A nil err stays nil.
func Storage(err error, message string) error {
	if err == nil {
		return nil
	}
	return Wrap(CodeStorage, err, message)
}

// Code returns the error code, or "" for a nil Error.
func (e *Error) Code() Code {
	if e == nil {
		return ""
	}
	return e.code
}

// Message returns the message without the code or cause.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Details returns what WithDetails attached.
func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches structured details such as per-field messages.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the first Error in the chain of err, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}
