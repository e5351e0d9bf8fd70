package bundler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/evanw/esbuild/pkg/api"

	"github.com/opmodel/optimize/internal/options"
)

// defaultExtensions are always resolvable; configured extensions are added.
var defaultExtensions = []string{".js", ".json"}

const (
	loadFilter    = `\.(c|m)?js$`
	modulesMarker = string(filepath.Separator) + "node_modules" + string(filepath.Separator)
)

// ESBuild bundles with esbuild into a single CommonJS file for node.
type ESBuild struct {
	registry *Registry
}

// NewESBuild returns a Builder using registry for plugin lookups. A nil
// registry means the built-in transforms only.
func NewESBuild(registry *Registry) *ESBuild {
	if registry == nil {
		registry = NewRegistry()
	}
	return &ESBuild{registry: registry}
}

// Build implements Builder.
func (b *ESBuild) Build(ctx context.Context, entryFile string, opts Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &BuildError{Entry: entryFile, Cause: err}
	}

	buildOpts, err := b.buildOptions(entryFile, opts)
	if err != nil {
		return nil, &BuildError{Entry: entryFile, Cause: err}
	}

	result := api.Build(buildOpts)
	if len(result.Errors) > 0 {
		return nil, &BuildError{Entry: entryFile, Messages: formatMessages(result.Errors)}
	}
	for _, f := range result.OutputFiles {
		if strings.HasSuffix(f.Path, ".js") {
			return f.Contents, nil
		}
	}
	return nil, &BuildError{Entry: entryFile, Cause: fmt.Errorf("esbuild produced no output")}
}

func (b *ESBuild) buildOptions(entryFile string, opts Options) (api.BuildOptions, error) {
	workDir := opts.Root
	if workDir == "" {
		workDir = filepath.Dir(entryFile)
	}

	external := make([]string, 0, len(opts.Exclude)+len(opts.External))
	external = append(external, opts.Exclude...)
	external = append(external, opts.External...)

	buildOpts := api.BuildOptions{
		EntryPoints:       []string{entryFile},
		AbsWorkingDir:     workDir,
		Outfile:           "bundle.js",
		Bundle:            true,
		Write:             false,
		Platform:          api.PlatformNode,
		Format:            api.FormatCommonJS,
		Target:            api.ESNext,
		External:          external,
		ResolveExtensions: resolveExtensions(opts.Extensions),
		LegalComments:     api.LegalCommentsNone,
		LogLevel:          api.LogLevelSilent,
	}

	for _, preset := range opts.Presets {
		if err := applyPreset(&buildOpts, preset); err != nil {
			return api.BuildOptions{}, err
		}
	}

	if len(opts.Plugins) > 0 {
		plugin, err := b.transformPlugin(workDir, opts)
		if err != nil {
			return api.BuildOptions{}, err
		}
		buildOpts.Plugins = []api.Plugin{plugin}
	}

	return buildOpts, nil
}

func applyPreset(o *api.BuildOptions, preset options.Transform) error {
	switch preset.Name {
	case options.PresetEnv:
		version := nodeTarget(preset.Options)
		if version == "" || version == "current" {
			o.Target = api.ESNext
			o.Engines = nil
			return nil
		}
		o.Engines = []api.Engine{{Name: api.EngineNode, Version: version}}
	case options.PresetMinify:
		o.MinifyWhitespace = true
		o.MinifySyntax = true
		if mangle, ok := preset.Options["mangle"].(bool); ok && mangle {
			o.MinifyIdentifiers = true
		}
	default:
		return fmt.Errorf("unknown preset %q (known: %s, %s)", preset.Name, options.PresetEnv, options.PresetMinify)
	}
	return nil
}

// nodeTarget reads targets.node, accepting strings and numbers.
func nodeTarget(opts map[string]any) string {
	targets, ok := opts["targets"].(map[string]any)
	if !ok {
		return ""
	}
	switch v := targets["node"].(type) {
	case string:
		return v
	case int:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return ""
	}
}

func resolveExtensions(extra []string) []string {
	exts := append([]string{}, defaultExtensions...)
	for _, e := range extra {
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

type boundTransform struct {
	name string
	fn   TransformFunc
	opts map[string]any
}

func (b *ESBuild) transformPlugin(workDir string, opts Options) (api.Plugin, error) {
	chain := make([]boundTransform, 0, len(opts.Plugins))
	for _, p := range opts.Plugins {
		fn, ok := b.registry.Lookup(p.Name)
		if !ok {
			return api.Plugin{}, fmt.Errorf("unknown plugin %q (known: %s)", p.Name, strings.Join(b.registry.Names(), ", "))
		}
		chain = append(chain, boundTransform{name: p.Name, fn: fn, opts: p.Options})
	}

	for _, pattern := range opts.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			return api.Plugin{}, fmt.Errorf("invalid ignore pattern %q", pattern)
		}
	}

	return api.Plugin{
		Name: "optimize-transforms",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: loadFilter, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					if !opts.Global && strings.Contains(args.Path, modulesMarker) {
						return api.OnLoadResult{}, nil
					}
					if ignored(workDir, args.Path, opts.Ignore) {
						return api.OnLoadResult{}, nil
					}

					src, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					for _, t := range chain {
						if src, err = t.fn(args.Path, src, t.opts); err != nil {
							return api.OnLoadResult{}, fmt.Errorf("plugin %s: %w", t.name, err)
						}
					}

					contents := string(src)
					return api.OnLoadResult{
						Contents:   &contents,
						ResolveDir: filepath.Dir(args.Path),
						Loader:     api.LoaderJS,
					}, nil
				})
		},
	}, nil
}

func ignored(workDir, file string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel, err := filepath.Rel(workDir, file)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func formatMessages(msgs []api.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			out = append(out, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		out = append(out, m.Text)
	}
	return out
}
