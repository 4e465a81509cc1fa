package core

import (
	"errors"
	"fmt"
)

var (
	// ErrRosterUnavailable signals that the roster source could not produce a
	// snapshot; the whole batch aborts before anything is applied.
	ErrRosterUnavailable = errors.New("roster source unavailable")

	// ErrInvalidIdentity signals a record whose name components are empty
	// after normalization; the item is skipped, the batch continues.
	ErrInvalidIdentity = errors.New("invalid identity: empty name after normalization")

	// ErrDuplicateLoginExhausted is defined for completeness; unbounded suffix
	// growth makes it practically unreachable.
	ErrDuplicateLoginExhausted = errors.New("could not derive a unique login")
)

// DirectoryUnavailableError is a connection-level failure: remaining batch
// items abort, already-applied items stand. Retrying is the caller's call.
type DirectoryUnavailableError struct {
	Server string
	Err    error
}

func (e *DirectoryUnavailableError) Error() string {
	return fmt.Sprintf("directory %s unavailable: %v", e.Server, e.Err)
}

func (e *DirectoryUnavailableError) Unwrap() error { return e.Err }

// DirectoryCommandError is a single-command failure with the raw remote
// stderr kept for operator remediation. Item-level only; batches continue.
type DirectoryCommandError struct {
	Command string
	Stderr  string
}

func (e *DirectoryCommandError) Error() string {
	return fmt.Sprintf("directory command %q failed: %s", e.Command, e.Stderr)
}

// IsDirectoryUnavailable reports whether err is (or wraps) a connection-level
// directory failure.
func IsDirectoryUnavailable(err error) bool {
	var de *DirectoryUnavailableError
	return errors.As(err, &de)
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}
