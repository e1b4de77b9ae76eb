// Package faults defines the error taxonomy shared by the services and the
// HTTP boundary: validation failures, missing records, and conflicting
// lifecycle transitions. Persistence errors are plain wrapped errors.
package faults

import (
	"errors"
	"fmt"
)

// ErrNotFound reports that a referenced help request does not exist.
var ErrNotFound = errors.New("help request not found")

// ValidationError reports malformed or missing caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError for the given field.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError reports a lifecycle transition attempted against a request
// that already reached a terminal state.
type ConflictError struct {
	RequestID string
	Status    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("request %s is already %s", e.RequestID, e.Status)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
