package config

import (
	"fmt"
	"strings"

	oerrors "github.com/opmodel/optimize/internal/errors"
	"github.com/opmodel/optimize/internal/output"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

// Unwrap marks every ValidationErrors as ErrValidation.
func (e ValidationErrors) Unwrap() error {
	return oerrors.ErrValidation
}

// Validate checks resolved settings.
func Validate(s *Settings) error {
	var errs ValidationErrors

	if _, ok := output.ParseFormat(s.Output); !ok {
		errs = append(errs, ValidationError{
			Field:   "output",
			Message: fmt.Sprintf("must be one of %s", strings.Join(output.ValidFormats(), ", ")),
		})
	}

	if s.Concurrency < 0 {
		errs = append(errs, ValidationError{
			Field:   "concurrency",
			Message: "must not be negative",
		})
	}

	if s.Manifest != "" && strings.TrimSpace(s.Manifest) == "" {
		errs = append(errs, ValidationError{
			Field:   "manifest",
			Message: "must not be empty or whitespace only",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
