package service

import (
	"errors"
	"fmt"
)

// ErrNotFound and ErrConflict are checked by handlers to pick a status code.
var (
	ErrNotFound = errors.New("event not found")
	ErrConflict = errors.New("event already exists")
)

// ValidationError names the field that failed validation so the handler can
// report it back to the client.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid field %s: %s", e.Field, e.Reason)
	}
	return "missing field: " + e.Field
}

func missingField(field string) error {
	return &ValidationError{Field: field}
}

func invalidField(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
