// Package errors provides the structured error type used across the
// authorization pipeline. Every rejection produced by the pipeline is an
// *Error carrying a stable machine-readable code, a human-readable message,
// and optional structured details (request path, method, request identifier)
// that are serialized into the rejection body returned to the caller.
//
// # Error Codes
//
// Each error includes a snake_case code (e.g., "missing_token") that maps to
// exactly one HTTP status. The code is the contract: messages may be reworded,
// codes never change. See [Code] for the full set.
//
// # Usage
//
// Create a new error:
//
//	err := errors.New(errors.CodeMissingToken, "access_token cookie required")
//
// Wrap an underlying cause:
//
//	err := errors.Wrap(cause, errors.CodeInvalidToken, "token verification failed")
//
// Attach request context without mutating the original:
//
//	err = err.WithDetail("path", r.URL.Path)
package errors

import (
	"fmt"
)

// Error is a structured rejection with a stable code, a human-readable
// message, optional structured details, and an optional underlying cause.
//
// Error values are immutable after creation: WithDetail and WithDetails
// return copies. The zero details map is never exposed to callers.
type Error struct {
	// Code is the stable machine-readable code (e.g., "token_expired").
	Code Code

	// Message is the human-readable message. It may be shown to end users
	// and must not contain secrets or internal paths.
	Message string

	// Details holds structured context serialized into the rejection body
	// (request path, method, request identifier, denial reason).
	Details map[string]any

	// Cause is the underlying error, if any. Use Unwrap to traverse it.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, supporting errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the HTTP status the rejection must carry, derived
// from the error code.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetail returns a copy of the error with one detail added. The
// original error is not modified.
func (e *Error) WithDetail(key string, value any) *Error {
	return e.WithDetails(map[string]any{key: value})
}

// WithDetails returns a copy of the error with the given details merged in.
// Keys present in both maps take the new value. The original error is not
// modified.
func (e *Error) WithDetails(details map[string]any) *Error {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: merged,
		Cause:   e.Cause,
	}
}

// Format implements fmt.Formatter. Use %v for the standard one-line form
// and %+v for the detailed form including details and the cause chain.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "Error{Code: %q, Message: %q", e.Code, e.Message)
			if len(e.Details) > 0 {
				fmt.Fprintf(s, ", Details: %v", e.Details)
			}
			if e.Cause != nil {
				fmt.Fprintf(s, ", Cause: %+v", e.Cause)
			}
			fmt.Fprint(s, "}")
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
