// Package assemble turns one function into an optimized artifact: bundle,
// copied includes and externals, rewritten handler and packaging manifest.
package assemble

import (
	"context"
	"encoding/hex"
	"fmt"
	"path"

	"github.com/zeebo/blake3"

	"github.com/opmodel/optimize/internal/bundler"
	oerrors "github.com/opmodel/optimize/internal/errors"
	"github.com/opmodel/optimize/internal/fsutil"
	"github.com/opmodel/optimize/internal/locate"
	"github.com/opmodel/optimize/internal/options"
	"github.com/opmodel/optimize/internal/output"
	"github.com/opmodel/optimize/internal/paths"
	"github.com/opmodel/optimize/internal/service"
)

// Status is the terminal state of one assembly.
type Status string

const (
	StatusSkipped Status = "skipped"
	StatusBuilt   Status = "built"
	StatusFailed  Status = "failed"
)

// Phase names the step a unit failed in.
type Phase string

const (
	PhaseHandler  Phase = "handler"
	PhaseBuild    Phase = "build"
	PhaseWrite    Phase = "write"
	PhaseInclude  Phase = "include"
	PhaseExternal Phase = "external"
	PhaseUpdate   Phase = "update"
)

// Result is the outcome of assembling one function.
type Result struct {
	Function string `json:"function"`
	Status   Status `json:"status"`

	// Bundle is the absolute path of the written bundle.
	Bundle string `json:"bundle,omitempty"`

	HandlerOriginal string            `json:"handlerOriginal"`
	HandlerOptimize string            `json:"handlerOptimize,omitempty"`
	Package         *service.Manifest `json:"package,omitempty"`

	Options   *options.Options  `json:"options,omitempty"`
	Includes  []string          `json:"includes,omitempty"`
	Externals []locate.Resource `json:"externals,omitempty"`

	// Digest is "blake3:<hex>" of the bundle.
	Digest string `json:"digest,omitempty"`
	Size   int    `json:"size,omitempty"`
}

// UnitError wraps any failure of one function's assembly.
type UnitError struct {
	Unit  string
	Phase Phase
	Cause error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("function %s: %s: %v", e.Unit, e.Phase, e.Cause)
}

func (e *UnitError) Unwrap() error {
	return e.Cause
}

// Config wires an Assembler.
type Config struct {
	FS      *fsutil.FS
	Paths   paths.Resolver
	Locator *locate.Locator
	Builder bundler.Builder

	// Defaults is the built-in layer, System the parsed custom.optimize.
	Defaults options.Options
	System   options.Override

	// Shared selects the whole-service packaging manifest for results.
	Shared bool
}

// Assembler builds single functions. It holds no per-function state and is
// safe for concurrent use.
type Assembler struct {
	cfg Config
}

// New returns an Assembler.
func New(cfg Config) *Assembler {
	return &Assembler{cfg: cfg}
}

// Plan is a function with its options resolved, ready to assemble.
type Plan struct {
	Unit    service.Unit
	Options options.Options

	// Folder is the service-relative output folder of the function.
	Folder string
}

// Effective resolves the options of u without building anything. Shape
// problems in the function's override are logged at debug level.
func (a *Assembler) Effective(u service.Unit) options.Options {
	unit, issues := options.ParseOverride(u.Override)
	for _, issue := range issues {
		output.Debug("ignoring malformed function option", "function", u.Name, "issue", issue)
	}
	return options.Resolve(a.cfg.Defaults, a.cfg.System, unit)
}

// Plan resolves u once so validation and assembly share the result.
func (a *Assembler) Plan(u service.Unit) Plan {
	opts := a.Effective(u)
	return Plan{Unit: u, Options: opts, Folder: paths.UnitFolder(opts.Prefix, u.Name)}
}

// Assemble runs every step for p in order. An opted-out function is
// returned as skipped with nothing written.
func (a *Assembler) Assemble(ctx context.Context, p Plan) (Result, error) {
	u := p.Unit
	res := Result{Function: u.Name, HandlerOriginal: u.Handler}
	if u.OptOut {
		res.Status = StatusSkipped
		return res, nil
	}

	log := output.UnitLogger(u.Name)
	fail := func(phase Phase, err error) (Result, error) {
		res.Status = StatusFailed
		return res, &UnitError{Unit: u.Name, Phase: phase, Cause: err}
	}

	h, err := paths.ParseHandler(u.Handler)
	if err != nil {
		return fail(PhaseHandler, fmt.Errorf("%w: %w", oerrors.ErrValidation, err))
	}

	opts := p.Options
	res.Options = &opts
	folder := p.Folder
	optimized := h.Rebase(folder)

	log.Debug("bundling", "entry", h.File(), "minify", opts.Minify)
	bundle, err := a.cfg.Builder.Build(ctx, a.cfg.Paths.Abs(h.File()), bundler.FromOptions(a.cfg.Paths.Root(), opts))
	if err != nil {
		return fail(PhaseBuild, err)
	}

	res.Bundle = a.cfg.Paths.Abs(optimized.File())
	if err := a.cfg.FS.WriteFile(res.Bundle, bundle); err != nil {
		return fail(PhaseWrite, oerrors.NewFilesystemError("writing bundle", res.Bundle, err))
	}
	res.Digest = digest(bundle)
	res.Size = len(bundle)

	for _, include := range opts.IncludePaths {
		rel := paths.StripRelative(include)
		dst := path.Join(folder, rel)
		if err := a.copy(a.cfg.Paths.Abs(rel), a.cfg.Paths.Abs(dst)); err != nil {
			return fail(PhaseInclude, err)
		}
		log.Debug("included", "path", rel)
		res.Includes = append(res.Includes, dst)
	}

	for _, external := range opts.External {
		r := a.cfg.Locator.Locate(external, h, folder, opts.ExternalPaths)
		if err := a.copy(r.Source, r.Dest); err != nil {
			return fail(PhaseExternal, err)
		}
		log.Debug("external copied", "name", external, "from", r.Source)
		res.Externals = append(res.Externals, r)
	}

	res.HandlerOptimize = optimized.String()
	res.Package = a.manifest(opts.Prefix, folder)
	res.Status = StatusBuilt
	return res, nil
}

func (a *Assembler) copy(src, dst string) error {
	if err := a.cfg.FS.Copy(src, dst); err != nil {
		return fmt.Errorf("%w: %s -> %s: %w", oerrors.ErrResourceCopy, src, dst, err)
	}
	return nil
}

func (a *Assembler) manifest(prefix, folder string) *service.Manifest {
	if a.cfg.Shared {
		m := SharedManifest(prefix)
		return &m
	}
	return &service.Manifest{Exclude: []string{"**"}, Include: []string{folder + "/**"}}
}

// SharedManifest is the whole-service manifest used when functions are not
// packaged individually.
func SharedManifest(prefix string) service.Manifest {
	return service.Manifest{Exclude: []string{"**"}, Include: []string{prefix + "/**"}}
}

func digest(data []byte) string {
	sum := blake3.Sum256(data)
	return "blake3:" + hex.EncodeToString(sum[:])
}
