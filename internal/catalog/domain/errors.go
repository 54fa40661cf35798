package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input that cannot be persisted.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when a slug or id resolves to no store.
	ErrNotFound = errors.New("store not found")
	// ErrInvalidQuery is returned before any storage call for malformed search input.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrConflict is returned when a unique slug could not be claimed.
	ErrConflict = errors.New("slug conflict")
	// ErrForbidden is returned when a caller edits a store they do not own.
	ErrForbidden = errors.New("store is owned by another user")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
