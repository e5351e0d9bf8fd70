// Package errors provides sentinel errors and structured error details for
// the optimize CLI.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// DetailError captures structured error information for terminal display.
type DetailError struct {
	// Type is the error category (required).
	Type string

	// Message is the specific description (required).
	Message string

	// Location is the file path the error refers to (optional).
	Location string

	// Field is the configuration key for shape errors (optional).
	Field string

	// Context contains additional key-value context (optional).
	Context map[string]string

	// Hint provides actionable guidance (optional).
	Hint string

	// Cause is the underlying error (optional).
	Cause error
}

// Error implements the error interface.
func (e *DetailError) Error() string {
	var b strings.Builder

	b.WriteString("Error: ")
	b.WriteString(e.Type)
	b.WriteString("\n")

	if e.Location != "" {
		b.WriteString("  Location: ")
		b.WriteString(e.Location)
		b.WriteString("\n")
	}
	if e.Field != "" {
		b.WriteString("  Field: ")
		b.WriteString(e.Field)
		b.WriteString("\n")
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("  ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(e.Context[k])
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(e.Message)
	b.WriteString("\n")

	if e.Hint != "" {
		b.WriteString("\nHint: ")
		b.WriteString(e.Hint)
		b.WriteString("\n")
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *DetailError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error with details.
func NewValidationError(message, location, field, hint string) error {
	return &DetailError{
		Type:     "validation failed",
		Message:  message,
		Location: location,
		Field:    field,
		Hint:     hint,
		Cause:    ErrValidation,
	}
}

// NewNotFoundError creates a not found error with details.
func NewNotFoundError(message, location, hint string) error {
	return &DetailError{
		Type:     "not found",
		Message:  message,
		Location: location,
		Hint:     hint,
		Cause:    ErrNotFound,
	}
}

// NewFilesystemError creates an output-root filesystem error.
func NewFilesystemError(message, location string, cause error) error {
	return &DetailError{
		Type:     "filesystem operation failed",
		Message:  message,
		Location: location,
		Cause:    fmt.Errorf("%w: %w", ErrFilesystem, cause),
	}
}
