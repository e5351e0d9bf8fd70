package errors

import "errors"

// Sentinel errors for known conditions.
var (
	// ErrConfigShape indicates an override field had the wrong type or shape.
	// It is never fatal: the field falls back to the next less specific layer.
	ErrConfigShape = errors.New("config shape error")

	// ErrBuild indicates the bundler could not produce a bundle.
	ErrBuild = errors.New("build error")

	// ErrResourceCopy indicates an include path or external resource could not be copied.
	ErrResourceCopy = errors.New("resource copy error")

	// ErrFilesystem indicates the output root could not be cleaned or created.
	ErrFilesystem = errors.New("filesystem error")

	// ErrValidation indicates the service definition is not buildable as given.
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates a function, manifest, or file was not found.
	ErrNotFound = errors.New("not found")
)
