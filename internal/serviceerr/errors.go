// Package serviceerr defines the errors returned by the gate components and
// the coarse codes they collapse to at the HTTP boundary.
package serviceerr

import (
	"errors"
	"net/http"
)

// Code is the reason exposed to clients. Several internal errors share a code
// so that responses do not reveal which check failed.
type Code string

const (
	CodeMissingFields      Code = "missing_fields"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeUnauthorized       Code = "unauthorized"
	CodeTooManyAttempts    Code = "too_many_attempts"
	CodeUnknown            Code = "internal"
)

// Error carries an outward Code and an internal Description used for logging only.
type Error struct {
	Err         Code
	Description string

	parent *Error
}

func (e *Error) Error() string {
	if e.Description == "" {
		return string(e.Err)
	}
	return string(e.Err) + ": " + e.Description
}

// Unwrap exposes the broader error this one refines, if any.
func (e *Error) Unwrap() error {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// HTTPStatus returns the status code a response for this error carries.
func (e *Error) HTTPStatus() int {
	switch e.Err {
	case CodeMissingFields:
		return http.StatusBadRequest
	case CodeInvalidCredentials, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeTooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

var (
	// Credential validation
	ErrMissingFields = &Error{Err: CodeMissingFields, Description: "identifier and secret are required"}
	ErrInvalidDomain = &Error{Err: CodeInvalidCredentials, Description: "identifier domain not accepted"}
	ErrInvalidSecret = &Error{Err: CodeInvalidCredentials, Description: "secret mismatch"}

	// Session token verification
	ErrTamperedOrMalformed = &Error{Err: CodeUnauthorized, Description: "token integrity check failed"}
	ErrMalformed           = &Error{Err: CodeUnauthorized, Description: "token cannot be parsed", parent: ErrTamperedOrMalformed}
	ErrExpired             = &Error{Err: CodeUnauthorized, Description: "token expired"}
	ErrNoSession           = &Error{Err: CodeUnauthorized, Description: "no session cookie"}

	// Throttling
	ErrTooManyAttempts = &Error{Err: CodeTooManyAttempts, Description: "login temporarily locked"}

	ErrUnknown = &Error{Err: CodeUnknown, Description: "unknown error"}
)

// From returns the first *Error in err's chain, or ErrUnknown when there is none.
func From(err error) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return ErrUnknown
}
