package cmd

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opmodel/optimize/internal/assemble"
	"github.com/opmodel/optimize/internal/bundler"
	"github.com/opmodel/optimize/internal/cmdtypes"
	oerrors "github.com/opmodel/optimize/internal/errors"
)

func TestExitCodeFromError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: ExitSuccess,
		},
		{
			name:     "validation error",
			err:      oerrors.NewValidationError("bad", "", "", ""),
			expected: ExitValidationError,
		},
		{
			name:     "not found error",
			err:      oerrors.NewNotFoundError("missing", "", ""),
			expected: ExitNotFound,
		},
		{
			name:     "build error inside a unit error",
			err:      &assemble.UnitError{Unit: "a", Phase: assemble.PhaseBuild, Cause: &bundler.BuildError{Entry: "a.js"}},
			expected: ExitBuildError,
		},
		{
			name:     "copy error",
			err:      fmt.Errorf("%w: x -> y: %w", oerrors.ErrResourceCopy, errors.New("no such file")),
			expected: ExitCopyError,
		},
		{
			name:     "filesystem error",
			err:      oerrors.NewFilesystemError("cleaning", "/svc/_optimize", errors.New("busy")),
			expected: ExitFilesystemError,
		},
		{
			name:     "explicit exit error",
			err:      &cmdtypes.ExitError{Code: 42, Err: errors.New("x")},
			expected: 42,
		},
		{
			name:     "config shape issues are not special",
			err:      oerrors.ErrConfigShape,
			expected: ExitGeneralError,
		},
		{
			name:     "unknown error returns general error",
			err:      errors.New("something went wrong"),
			expected: ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExitCodeFromError(tt.err))
		})
	}
}

func TestExitCodeName(t *testing.T) {
	assert.Equal(t, "Success", ExitCodeName(ExitSuccess))
	assert.Equal(t, "Build Error", ExitCodeName(ExitBuildError))
	assert.Equal(t, "Resource Copy Error", ExitCodeName(ExitCopyError))
	assert.Equal(t, "Unknown", ExitCodeName(99))
}
