package errors

import (
	"errors"
	"fmt"
)

// SelectionStoppedError means the user quit the catalog picker instead of choosing or skipping
type SelectionStoppedError struct {
	Query string
}

func (e *SelectionStoppedError) Error() string {
	if e.Query == "" {
		return "catalog selection stopped"
	}
	return fmt.Sprintf("catalog selection stopped for %q", e.Query)
}

// NewSelectionStoppedError records which search the user walked away from
func NewSelectionStoppedError(query string) *SelectionStoppedError {
	return &SelectionStoppedError{Query: query}
}

// IsSelectionStoppedError reports whether the user stopped the picker
func IsSelectionStoppedError(err error) bool {
	var stopped *SelectionStoppedError
	return errors.As(err, &stopped)
}
