package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty name")
	ErrDuplicateName   = errors.New("duplicate name")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidSetting  = errors.New("invalid setting")
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
)

// ValidationError reports user input that fails a precondition.
// The store is left unchanged when one is returned.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// FormatError reports a period key or persisted record with the wrong shape.
type FormatError struct {
	Input  string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Input == "" {
		return "format error: " + e.Reason
	}
	return fmt.Sprintf("format error: %q: %s", e.Input, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// PersistenceError reports a failed write to the backend. The in-memory
// change that triggered the write has already been applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsPersistence reports whether err is a *PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsFormat reports whether err is a *FormatError.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}
