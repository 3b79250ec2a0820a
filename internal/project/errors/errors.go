// Package errors defines the error taxonomy shared by the search engine.
//
// Sentinel errors identify a failure class and are matched with errors.Is.
// Typed errors (PathError, ValidationError, IntegrityError) carry the
// context needed to report a failure and unwrap to a sentinel.
package errors

import (
	"errors"
	"fmt"
)

// Standard errors returned by the search engine.
var (
	// ErrNotFound indicates a file or directory was not found.
	ErrNotFound = errors.New("not found")

	// ErrNotDirectory indicates the path is a file, not a directory.
	ErrNotDirectory = errors.New("path is not a directory")

	// ErrBinaryFile indicates the file appears to be binary.
	ErrBinaryFile = errors.New("binary file")

	// ErrFileTooLarge indicates the file exceeds the maximum size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidRequest indicates a malformed search request.
	ErrInvalidRequest = errors.New("invalid search request")

	// ErrAlreadyRunning indicates a search is already in progress.
	ErrAlreadyRunning = errors.New("search already running")

	// ErrResourceExhausted indicates the search worker could not be started.
	ErrResourceExhausted = errors.New("cannot start search worker")

	// ErrSearchCanceled indicates the search was canceled.
	ErrSearchCanceled = errors.New("search canceled")

	// ErrIntegrity indicates a replacement failed post-write verification.
	ErrIntegrity = errors.New("replacement integrity check failed")

	// ErrCrossDevice indicates the temporary file landed on another volume.
	ErrCrossDevice = errors.New("temporary file is on a different device")
)

// PathError represents an error associated with a file path.
type PathError struct {
	Op   string // Operation that failed (open, read, write, etc.)
	Path string // File path
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error {
	return e.Err
}

// NewPathError creates a new PathError.
func NewPathError(op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Err: err}
}

// ValidationError describes a rejected search request.
type ValidationError struct {
	Field  string // Request field that failed validation
	Reason string // Human readable reason
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidRequest, e.Field, e.Reason)
}

// Unwrap returns ErrInvalidRequest.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IntegrityError reports an abandoned replacement. The target file is
// guaranteed to be unchanged when this error is returned.
type IntegrityError struct {
	Path   string // Target file
	Reason string // Which check failed
	Err    error  // Underlying error, may be nil
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("replace %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("replace %s: %s", e.Path, e.Reason)
}

// Unwrap returns both ErrIntegrity and the underlying error.
func (e *IntegrityError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrIntegrity}
	}
	return []error{ErrIntegrity, e.Err}
}

// IsNotFound returns true if the error indicates a file was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation returns true if the error is a rejected request.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsIntegrity returns true if the error is an abandoned replacement.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// IsCanceled returns true if the error indicates cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrSearchCanceled)
}
