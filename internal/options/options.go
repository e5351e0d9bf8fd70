// Package options resolves the effective optimize configuration of a
// function from three layers: built-in defaults, the service-wide
// custom.optimize block and the function's own optimize block.
package options

import (
	"maps"
	"slices"
)

// Preset and plugin names understood by the bundler.
const (
	PresetEnv    = "env"
	PresetMinify = "minify"
)

// DefaultPrefix is the output folder used when none is configured.
const DefaultPrefix = "_optimize"

// Transform is one entry of a preset or plugin list.
type Transform struct {
	Name    string         `json:"name"`
	Options map[string]any `json:"options,omitempty"`
}

// Options is the effective configuration of one function. Values returned
// by Resolve share no slices or maps with their inputs.
type Options struct {
	// Exclude lists module globs that are never bundled.
	Exclude []string `json:"exclude"`

	// External lists modules left out of the bundle and copied beside it.
	External []string `json:"external"`

	// ExternalPaths maps an external name to an explicit service-relative source.
	ExternalPaths map[string]string `json:"externalPaths"`

	// Extensions lists extra file extensions resolved while bundling.
	Extensions []string `json:"extensions"`

	// Global applies plugins to files under node_modules too.
	Global bool `json:"global"`

	// IncludePaths lists files copied unmodified into the function folder.
	IncludePaths []string `json:"includePaths"`

	// Ignore lists globs of files the plugins leave untouched.
	Ignore []string `json:"ignore"`

	// Minify prepends the minify preset.
	Minify bool `json:"minify"`

	// Plugins lists source transforms applied on load.
	Plugins []Transform `json:"plugins"`

	// Presets lists transform presets in application order.
	Presets []Transform `json:"presets"`

	// Prefix is the service-relative output root. Service level only.
	Prefix string `json:"prefix"`

	// Debug keeps the output tree after packaging. Service level only.
	Debug bool `json:"debug"`

	// Individually packages each function on its own. Service level only.
	Individually bool `json:"individually"`
}

// Defaults returns the built-in layer for the given node target version.
func Defaults(nodeVersion string) Options {
	return Options{
		Exclude:       []string{"aws-sdk"},
		External:      []string{},
		ExternalPaths: map[string]string{},
		Extensions:    []string{},
		IncludePaths:  []string{},
		Ignore:        []string{},
		Minify:        true,
		Plugins:       []Transform{},
		Presets: []Transform{{
			Name: PresetEnv,
			Options: map[string]any{
				"targets": map[string]any{"node": nodeVersion},
			},
		}},
		Prefix: DefaultPrefix,
	}
}

// MinifyPreset returns the preset injected when Minify is on. Identifiers
// are not mangled so handler exports keep their names.
func MinifyPreset() Transform {
	return Transform{
		Name:    PresetMinify,
		Options: map[string]any{"builtIns": false, "mangle": false},
	}
}

// BuildPresets returns the preset list handed to the bundler. When Minify is
// on the minify preset comes first so it runs before user presets.
func (o Options) BuildPresets() []Transform {
	presets := cloneTransforms(o.Presets)
	if o.Minify {
		presets = append([]Transform{MinifyPreset()}, presets...)
	}
	return presets
}

// Clone returns a deep copy of o.
func (o Options) Clone() Options {
	c := o
	c.Exclude = slices.Clone(o.Exclude)
	c.External = slices.Clone(o.External)
	c.ExternalPaths = maps.Clone(o.ExternalPaths)
	c.Extensions = slices.Clone(o.Extensions)
	c.IncludePaths = slices.Clone(o.IncludePaths)
	c.Ignore = slices.Clone(o.Ignore)
	c.Plugins = cloneTransforms(o.Plugins)
	c.Presets = cloneTransforms(o.Presets)
	return c
}

func cloneTransforms(in []Transform) []Transform {
	if in == nil {
		return nil
	}
	out := make([]Transform, len(in))
	for i, t := range in {
		out[i] = Transform{Name: t.Name, Options: cloneMap(t.Options)}
	}
	return out
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch tv := v.(type) {
		case map[string]any:
			out[k] = cloneMap(tv)
		case []any:
			out[k] = slices.Clone(tv)
		default:
			out[k] = v
		}
	}
	return out
}
