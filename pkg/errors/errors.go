// Package errors provides structured error types for flowspace.
//
// Library packages report failures with plain sentinel errors (for example
// [flowchart.ErrUnknownEndpoint]). The CLI and HTTP server need a stable,
// machine-readable classification of those failures; this package supplies
// it through error codes and [Classify].
//
// # Error Codes
//
//   - UNRESOLVED_REFERENCE, CYCLIC_MEMBERSHIP, MALFORMED_SOURCE: a diagram
//     could not be built
//   - INVALID_*: input or configuration validation failures
//   - NOT_FOUND: a flowchart or entity does not exist
//   - NETWORK_ERROR, TIMEOUT: cache backend failures
//   - INTERNAL_ERROR: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "unknown format: %s", f)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Attach a code to a library error
//	err := errors.Classify(buildErr)
package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/matzehuels/flowspace/pkg/cache"
	"github.com/matzehuels/flowspace/pkg/flowchart"
	"github.com/matzehuels/flowspace/pkg/source"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Diagram build errors
	ErrCodeUnresolvedReference Code = "UNRESOLVED_REFERENCE"
	ErrCodeCyclicMembership    Code = "CYCLIC_MEMBERSHIP"
	ErrCodeMalformedSource     Code = "MALFORMED_SOURCE"

	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// It unwraps the error chain looking for an *Error with a matching code.
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

// Classify attaches a code to err based on the sentinel errors in its chain.
// Errors that already carry a code are returned unchanged, and nil stays nil.
func Classify(err error) error {
	if err == nil || GetCode(err) != "" {
		return err
	}
	return &Error{Code: CodeOf(err), Message: err.Error(), Cause: err}
}

// CodeOf returns the code [Classify] would attach to err.
func CodeOf(err error) Code {
	if c := GetCode(err); c != "" {
		return c
	}
	switch {
	case errors.Is(err, flowchart.ErrUnknownEndpoint),
		errors.Is(err, flowchart.ErrUnknownMember),
		errors.Is(err, flowchart.ErrUnknownChild):
		return ErrCodeUnresolvedReference
	case errors.Is(err, flowchart.ErrCyclicMembership):
		return ErrCodeCyclicMembership
	case errors.Is(err, source.ErrMalformed),
		errors.Is(err, flowchart.ErrEmptyID),
		errors.Is(err, flowchart.ErrDuplicateID),
		errors.Is(err, flowchart.ErrDuplicateChild):
		return ErrCodeMalformedSource
	case errors.Is(err, flowchart.ErrUnknownNode):
		return ErrCodeNotFound
	case errors.Is(err, cache.ErrNetwork):
		return ErrCodeNetwork
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	}
	return ErrCodeInternal
}
