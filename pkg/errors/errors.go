package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the stage of the crawl an error belongs to
type ErrorType string

const (
	ErrorTypeFetch         ErrorType = "fetch"
	ErrorTypeParse         ErrorType = "parse"
	ErrorTypePersist       ErrorType = "persist"
	ErrorTypeConfiguration ErrorType = "configuration"
)

// Error represents a crawl error with type information.
// Code carries the HTTP status for fetch errors and is 0 otherwise.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// NewFetchError creates a fetch error for one target
func NewFetchError(message string, code int, err error) *Error {
	return &Error{Type: ErrorTypeFetch, Message: message, Code: code, Err: err}
}

// NewParseError creates a parse error for one payload
func NewParseError(message string, err error) *Error {
	return &Error{Type: ErrorTypeParse, Message: message, Err: err}
}

// NewPersistError creates a persistence error for one record
func NewPersistError(message string, err error) *Error {
	return &Error{Type: ErrorTypePersist, Message: message, Err: err}
}

// NewConfigurationError creates a fatal configuration fault
func NewConfigurationError(message string, err error) *Error {
	return &Error{Type: ErrorTypeConfiguration, Message: message, Err: err}
}

// TypeOf returns the ErrorType of err, or "" when err is not a typed error
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ""
}

// Is reports whether err is a typed error of the given type
func Is(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// IsFatal reports whether err must abort the run.
// Only configuration faults are fatal; every per-target error is recoverable.
func IsFatal(err error) bool {
	return Is(err, ErrorTypeConfiguration)
}

// StatusCode returns the HTTP status carried by a fetch error, or 0
func StatusCode(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return 0
}
