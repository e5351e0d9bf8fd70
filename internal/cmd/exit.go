// Package cmd provides command implementations for the optimize CLI.
package cmd

import (
	"errors"

	"github.com/opmodel/optimize/internal/cmdtypes"
	oerrors "github.com/opmodel/optimize/internal/errors"
)

// Exit codes, re-exported for callers of this package.
const (
	ExitSuccess         = cmdtypes.ExitSuccess
	ExitGeneralError    = cmdtypes.ExitGeneralError
	ExitValidationError = cmdtypes.ExitValidationError
	ExitBuildError      = cmdtypes.ExitBuildError
	ExitCopyError       = cmdtypes.ExitCopyError
	ExitNotFound        = cmdtypes.ExitNotFound
	ExitFilesystemError = cmdtypes.ExitFilesystemError
)

// ExitCodeName returns the name of the exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "Success"
	case ExitGeneralError:
		return "General Error"
	case ExitValidationError:
		return "Validation Error"
	case ExitBuildError:
		return "Build Error"
	case ExitCopyError:
		return "Resource Copy Error"
	case ExitNotFound:
		return "Not Found"
	case ExitFilesystemError:
		return "Filesystem Error"
	default:
		return "Unknown"
	}
}

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *cmdtypes.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, oerrors.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, oerrors.ErrValidation):
		return ExitValidationError
	case errors.Is(err, oerrors.ErrBuild):
		return ExitBuildError
	case errors.Is(err, oerrors.ErrResourceCopy):
		return ExitCopyError
	case errors.Is(err, oerrors.ErrFilesystem):
		return ExitFilesystemError
	default:
		return ExitGeneralError
	}
}
