package services

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by read operations when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a roster or result payload that cannot be used as given.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// FormatError reports a bracket format that is neither "ffa" nor "<size>v<teams>".
type FormatError struct {
	Format string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid bracket format %q: expected \"ffa\" or \"<team_size>v<number_of_teams>\"", e.Format)
}

func validationErrorf(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
