// Package errors provides structured error types for layercake.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and storage backends
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNotFound, "project %s not found", id)
//	if errors.Is(err, errors.ErrCodeNotFound) {
//	    // Handle missing resource
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "failed to write archive")
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes, matching the taxonomy every layercake operation raises from.
const (
	// ErrCodeNotFound is raised when a row the caller referenced does not exist.
	ErrCodeNotFound Code = "NOT_FOUND"

	// ErrCodeValidation is raised when inputs fail a precondition: JSON
	// shape, id format, position range, self-loop, unsupported file
	// extension, empty min_shared_neighbors, or a relative/traversal path
	// inside an archive.
	ErrCodeValidation Code = "VALIDATION"

	// ErrCodeUnauthorized / ErrCodeForbidden are surfaced to callers of
	// the presentation layer; the core packages never raise them.
	ErrCodeUnauthorized Code = "UNAUTHORIZED"
	ErrCodeForbidden    Code = "FORBIDDEN"

	// ErrCodeIntegrityViolation is raised when VerifyGraphIntegrity
	// returns accumulated violation messages.
	ErrCodeIntegrityViolation Code = "INTEGRITY_VIOLATION"

	// ErrCodeMissingLayers is raised when a graph refers to layer ids not
	// present in the project's layer palette.
	ErrCodeMissingLayers Code = "MISSING_LAYERS"

	// ErrCodeInternal is raised for database, filesystem, or
	// serialization failures.
	ErrCodeInternal Code = "INTERNAL"
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

// IntegrityViolation wraps the accumulated violation messages produced by
// Graph.VerifyGraphIntegrity as a single *Error, preserving the full list
// on the Violations field for callers that need to display each one.
type IntegrityViolation struct {
	Violations []string
}

// NewIntegrityViolation builds the *Error for a non-empty violation list.
func NewIntegrityViolation(violations []string) *Error {
	return &Error{
		Code:    ErrCodeIntegrityViolation,
		Message: fmt.Sprintf("%d integrity violation(s) found", len(violations)),
		Cause:   &IntegrityViolation{Violations: violations},
	}
}

// Error implements the error interface for IntegrityViolation.
func (e *IntegrityViolation) Error() string {
	return fmt.Sprintf("%d integrity violation(s)", len(e.Violations))
}

// MissingLayers wraps the layer ids a graph referenced that are absent
// from its project's layer palette.
type MissingLayers struct {
	LayerIDs []string
}

// NewMissingLayers builds the *Error for a non-empty missing-layer list.
func NewMissingLayers(layerIDs []string) *Error {
	return &Error{
		Code:    ErrCodeMissingLayers,
		Message: fmt.Sprintf("%d layer(s) referenced but not defined", len(layerIDs)),
		Cause:   &MissingLayers{LayerIDs: layerIDs},
	}
}

// Error implements the error interface for MissingLayers.
func (e *MissingLayers) Error() string {
	return fmt.Sprintf("missing layers: %v", e.LayerIDs)
}
