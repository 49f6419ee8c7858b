package fields

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-formbuilder/pkg/model"
)

var (
	// ErrNotFound is returned when a type tag has no registered definition.
	ErrNotFound = errors.New("fields: field type not found")
	// ErrDuplicate is returned when a type tag is registered twice.
	ErrDuplicate = errors.New("fields: field type already registered")
	// ErrTypeMismatch is returned when a definition is asked to render a
	// field of another type.
	ErrTypeMismatch = errors.New("fields: field type mismatch")
)

// TypeMismatchError reports a field handed to the wrong definition.
type TypeMismatchError struct {
	Want    model.FieldType
	Got     model.FieldType
	FieldID string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("fields: field %q has type %q, renderer handles %q", e.FieldID, e.Got, e.Want)
}

// Unwrap lets errors.Is match ErrTypeMismatch.
func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}
