// Package bundler defines the contract for producing a single-file bundle
// of a function's module graph and provides an esbuild-backed
// implementation.
package bundler

import (
	"context"
	"fmt"
	"strings"

	oerrors "github.com/opmodel/optimize/internal/errors"
	"github.com/opmodel/optimize/internal/options"
)

// Options configures one bundle build.
type Options struct {
	// Root is the service root. Ignore globs match paths relative to it.
	Root string

	// Exclude lists module globs left out of the bundle.
	Exclude []string

	// External lists modules left out of the bundle and shipped beside it.
	External []string

	// Extensions lists extra resolvable extensions.
	Extensions []string

	// Global applies plugins to node_modules files too.
	Global bool

	// Ignore lists globs of files the plugins leave untouched.
	Ignore []string

	// Plugins are source transforms applied on load, in order.
	Plugins []options.Transform

	// Presets are applied in order; minify comes first when present.
	Presets []options.Transform
}

// FromOptions builds bundler options from an effective configuration.
func FromOptions(root string, o options.Options) Options {
	return Options{
		Root:       root,
		Exclude:    o.Exclude,
		External:   o.External,
		Extensions: o.Extensions,
		Global:     o.Global,
		Ignore:     o.Ignore,
		Plugins:    o.Plugins,
		Presets:    o.BuildPresets(),
	}
}

// Builder produces a bundle for an entry file. Implementations must be safe
// for concurrent use.
type Builder interface {
	Build(ctx context.Context, entryFile string, opts Options) ([]byte, error)
}

// BuildError reports why a bundle could not be produced.
type BuildError struct {
	// Entry is the entry file being bundled.
	Entry string

	// Messages are the bundler diagnostics, one per problem.
	Messages []string

	// Cause is set when the failure did not come from diagnostics.
	Cause error
}

func (e *BuildError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "bundling %s", e.Entry)
	if len(e.Messages) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Messages, "; "))
	} else if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes ErrBuild and the cause.
func (e *BuildError) Unwrap() []error {
	if e.Cause != nil {
		return []error{oerrors.ErrBuild, e.Cause}
	}
	return []error{oerrors.ErrBuild}
}
