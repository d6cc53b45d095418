package errors

import (
	stdErrors "errors"
	"fmt"
	"sort"
	"strings"
)

// NotFoundError is returned when an operation references a book id that is not in the library
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("book not found: %s", e.ID)
}

// NewNotFoundError creates a NotFoundError for the given book id
func NewNotFoundError(id string) *NotFoundError {
	return &NotFoundError{ID: id}
}

// IsNotFoundError checks if err is a NotFoundError
func IsNotFoundError(err error) bool {
	var notFound *NotFoundError
	return stdErrors.As(err, &notFound)
}

// PersistenceError is returned when the storage layer rejects a write.
// The in-memory library is left untouched when this error is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist library (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps a storage failure that happened during op
func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistenceError checks if err is a PersistenceError
func IsPersistenceError(err error) bool {
	var persistErr *PersistenceError
	return stdErrors.As(err, &persistErr)
}

// MalformedImportError is returned when a snapshot fails shape or version validation
type MalformedImportError struct {
	Reason string
}

func (e *MalformedImportError) Error() string {
	return "invalid library file: " + e.Reason
}

// NewMalformedImportError creates a MalformedImportError with the given reason
func NewMalformedImportError(reason string) *MalformedImportError {
	return &MalformedImportError{Reason: reason}
}

// IsMalformedImportError checks if err is a MalformedImportError
func IsMalformedImportError(err error) bool {
	var importErr *MalformedImportError
	return stdErrors.As(err, &importErr)
}

// ValidationError lists the book fields that failed validation, keyed by JSON field name
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError creates a ValidationError from field messages
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

// IsValidationError checks if err is a ValidationError
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return stdErrors.As(err, &validationErr)
}
