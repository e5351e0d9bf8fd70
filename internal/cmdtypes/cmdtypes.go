// Package cmdtypes provides shared types for the cmd package and the
// command helpers in cmdutil. It is separate from internal/cmd to avoid
// import cycles.
package cmdtypes

import (
	"github.com/opmodel/optimize/internal/bundler"
	"github.com/opmodel/optimize/internal/config"
	"github.com/opmodel/optimize/internal/fsutil"
)

// GlobalConfig holds CLI-wide configuration resolved during PersistentPreRunE.
// It is populated once at startup and passed explicitly into every
// sub-command constructor.
type GlobalConfig struct {
	Settings *config.Settings
	Verbose  bool

	// FS is the filesystem the service is read from and written to.
	FS *fsutil.FS

	// Builder produces bundles. Nil means esbuild.
	Builder bundler.Builder
}

// Exit codes.
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitValidationError = 2
	ExitBuildError      = 3
	ExitCopyError       = 4
	ExitNotFound        = 5
	ExitFilesystemError = 6
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code int
	Err  error

	// Printed is set once the command layer has reported Err.
	Printed bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit"
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
