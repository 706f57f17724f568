package models

import (
	"errors"
	"fmt"
)

// ErrAssetNotFound indicates a referenced fleet number has no registry entry.
var ErrAssetNotFound = errors.New("asset not found in registry")

// ErrNotATanker indicates the referenced asset exists but is not a tanker.
var ErrNotATanker = errors.New("referenced asset is not a tanker")

// ValidationError rejects an event whose required fields are missing or
// whose numeric fields violate their constraints. The append is refused
// entirely; nothing is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
