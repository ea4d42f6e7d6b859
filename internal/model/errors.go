package model

import (
	"errors"
	"fmt"
	"time"
)

// Code classifies a domain error. The API maps each code to one HTTP status.
type Code string

const (
	CodeValidation Code = "validation"
	CodeNotFound   Code = "not_found"
	CodeForbidden  Code = "forbidden"
	CodeConflict   Code = "conflict"
	CodeInternal   Code = "internal"
)

// Error is a business-rule or storage failure with a user-facing message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// NewError builds an Error. err may be nil.
func NewError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// HTTPError wraps a non-2xx response received by the API client.
type HTTPError struct {
	StatusCode int
	Message    string        // server-provided message, empty if the body had none
	RetryAfter time.Duration // parsed from the Retry-After header; zero if absent
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}
