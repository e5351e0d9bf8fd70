package pipeline

import (
	"fmt"
	"strings"

	oerrors "github.com/opmodel/optimize/internal/errors"
)

// FolderConflictError indicates two functions would write to the same
// output folder.
type FolderConflictError struct {
	// Folder is the shared service-relative output folder.
	Folder string

	// Functions are the conflicting function names, sorted.
	Functions []string
}

func (e *FolderConflictError) Error() string {
	return fmt.Sprintf("functions %s share output folder %q", strings.Join(e.Functions, ", "), e.Folder)
}

func (e *FolderConflictError) Unwrap() error {
	return oerrors.ErrValidation
}

// UnsafePrefixError indicates a prefix that does not name a folder inside
// the service directory. Cleaning it would remove files outside the output.
type UnsafePrefixError struct {
	Prefix string
}

func (e *UnsafePrefixError) Error() string {
	return fmt.Sprintf("prefix %q must be a relative folder inside the service directory", e.Prefix)
}

func (e *UnsafePrefixError) Unwrap() error {
	return oerrors.ErrValidation
}

// OptimizedHandlerError indicates a function whose handler already points
// into the output folder, as left behind by a saved rewritten manifest.
// Cleaning the output root would delete its entry file.
type OptimizedHandlerError struct {
	Function string
	Handler  string
	Prefix   string
}

func (e *OptimizedHandlerError) Error() string {
	return fmt.Sprintf("function %s: handler %q already points into %q; restore the original service manifest before building",
		e.Function, e.Handler, e.Prefix)
}

func (e *OptimizedHandlerError) Unwrap() error {
	return oerrors.ErrValidation
}
