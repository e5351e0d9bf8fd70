// Package pipeline drives one optimize invocation around the host's
// packaging step: clean, assemble every function, then keep or remove the
// output tree.
package pipeline

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/opmodel/optimize/internal/assemble"
	"github.com/opmodel/optimize/internal/bundler"
	oerrors "github.com/opmodel/optimize/internal/errors"
	"github.com/opmodel/optimize/internal/fsutil"
	"github.com/opmodel/optimize/internal/locate"
	"github.com/opmodel/optimize/internal/options"
	"github.com/opmodel/optimize/internal/output"
	"github.com/opmodel/optimize/internal/paths"
	"github.com/opmodel/optimize/internal/service"
)

// Scope limits an invocation to one function. The zero value means all.
type Scope struct {
	Function string
}

// Report summarizes an invocation.
type Report struct {
	Service      string            `json:"service,omitempty"`
	OutputRoot   string            `json:"outputRoot"`
	Individually bool              `json:"individually"`
	Debug        bool              `json:"debug"`
	Disabled     bool              `json:"disabled,omitempty"`
	Functions    []assemble.Result `json:"functions"`

	// Package is the whole-service manifest installed in shared mode.
	Package *service.Manifest `json:"package,omitempty"`
}

// Built counts built and skipped functions.
func (r *Report) Built() (built, skipped int) {
	for _, f := range r.Functions {
		switch f.Status {
		case assemble.StatusBuilt:
			built++
		case assemble.StatusSkipped:
			skipped++
		}
	}
	return built, skipped
}

// Config wires a Controller.
type Config struct {
	Host    service.Host
	FS      *fsutil.FS
	Builder bundler.Builder

	// Concurrency bounds parallel function builds. Zero or less means one
	// goroutine per function.
	Concurrency int
}

// Controller runs the before and after phases for one service.
type Controller struct {
	cfg      Config
	paths    paths.Resolver
	enabled  bool
	defaults options.Options
	system   options.Override
	service  options.Options

	mu      sync.Mutex
	results []assemble.Result
}

// New returns a Controller. An unsupported provider runtime disables it:
// every phase becomes a no-op.
func New(cfg Config) *Controller {
	c := &Controller{
		cfg:   cfg,
		paths: paths.NewResolver(cfg.Host.ServicePath()),
	}

	nodeVersion, ok := options.NodeVersion(cfg.Host.Runtime())
	if !ok {
		output.Warn("runtime not supported, skipping optimization", "runtime", cfg.Host.Runtime())
		return c
	}
	c.enabled = true

	system, issues := options.ParseOverride(cfg.Host.Custom())
	for _, issue := range issues {
		output.Debug("ignoring malformed service option", "issue", issue)
	}
	c.system = system

	c.defaults = options.Defaults(nodeVersion)
	c.defaults.Individually = cfg.Host.Individually()
	c.service = options.Resolve(c.defaults, c.system, options.Override{})
	return c
}

// Enabled reports whether the runtime can be optimized.
func (c *Controller) Enabled() bool { return c.enabled }

// OutputRoot is the absolute output root.
func (c *Controller) OutputRoot() string {
	return c.paths.Abs(c.service.Prefix)
}

func (c *Controller) assembler() *assemble.Assembler {
	return assemble.New(assemble.Config{
		FS:       c.cfg.FS,
		Paths:    c.paths,
		Locator:  locate.New(c.cfg.FS, c.paths),
		Builder:  c.cfg.Builder,
		Defaults: c.defaults,
		System:   c.system,
		Shared:   !c.service.Individually,
	})
}

// Effective returns the resolved options of one function.
func (c *Controller) Effective(name string) (options.Options, error) {
	u, ok := c.cfg.Host.Unit(name)
	if !ok {
		return options.Options{}, unknownFunction(name)
	}
	if !c.enabled {
		return options.Options{}, oerrors.NewValidationError(
			"runtime not supported", c.cfg.Host.ServicePath(), "provider.runtime",
			"use a nodejs runtime")
	}
	return c.assembler().Effective(u), nil
}

// Defaults returns the built-in layer for the service runtime.
func (c *Controller) Defaults() options.Options {
	return c.defaults.Clone()
}

// Before prepares artifacts ahead of the host's packaging step.
//
// Phase sequence:
//  1. VALIDATE: prefix and per-function output folders
//  2. CLEAN:    remove the output root
//  3. PACKAGE:  shared mode installs the whole-service manifest
//  4. CREATE:   recreate the output root
//  5. ASSEMBLE: one named function, or all of them concurrently
//
// The first assembly failure is returned; artifacts already written stay
// in place.
func (c *Controller) Before(ctx context.Context, scope Scope) (*Report, error) {
	report := c.report()
	if !c.enabled {
		return report, nil
	}
	c.reset()

	units, err := c.scope(scope)
	if err != nil {
		return nil, err
	}
	asm := c.assembler()
	plans := make([]assemble.Plan, 0, len(units))
	for _, u := range units {
		plans = append(plans, asm.Plan(u))
	}
	if err := c.validate(plans); err != nil {
		return nil, err
	}

	root := c.OutputRoot()
	if err := c.cfg.FS.RemoveAll(root); err != nil {
		return nil, oerrors.NewFilesystemError("cleaning output root", root, err)
	}

	if !c.service.Individually {
		c.cfg.Host.SetPackage(assemble.SharedManifest(c.service.Prefix))
	}

	if err := c.cfg.FS.MkdirAll(root); err != nil {
		return nil, oerrors.NewFilesystemError("creating output root", root, err)
	}

	output.Info("optimizing functions", "count", len(units), "individually", c.service.Individually)

	if err := c.assembleAll(ctx, asm, plans); err != nil {
		return nil, err
	}

	report.Functions = c.snapshot()
	if !c.service.Individually {
		pkg := c.cfg.Host.Package()
		report.Package = &pkg
	}
	return report, nil
}

// After runs once the host has packaged. With debug set the output tree is
// kept and the report of this invocation returned; otherwise the tree is
// removed.
func (c *Controller) After(_ context.Context) (*Report, error) {
	report := c.report()
	if !c.enabled {
		return report, nil
	}
	report.Functions = c.snapshot()

	if c.service.Debug {
		output.Info("debug enabled, keeping output", "path", c.OutputRoot())
		return report, nil
	}

	root := c.OutputRoot()
	if err := c.cfg.FS.RemoveAll(root); err != nil {
		return nil, oerrors.NewFilesystemError("removing output root", root, err)
	}
	output.Debug("output removed", "path", root)
	return report, nil
}

// Run executes Before, the host packaging step, then After. After does not
// run when an earlier step fails.
func (c *Controller) Run(ctx context.Context, scope Scope, packageStep func(context.Context) error) (*Report, error) {
	if _, err := c.Before(ctx, scope); err != nil {
		return nil, err
	}
	if packageStep != nil {
		if err := packageStep(ctx); err != nil {
			return nil, fmt.Errorf("packaging step: %w", err)
		}
	}
	return c.After(ctx)
}

func (c *Controller) report() *Report {
	r := &Report{
		OutputRoot:   c.OutputRoot(),
		Individually: c.service.Individually,
		Debug:        c.service.Debug,
		Disabled:     !c.enabled,
		Functions:    []assemble.Result{},
	}
	if s, ok := c.cfg.Host.(interface{ Name() string }); ok {
		r.Service = s.Name()
	}
	return r
}

func (c *Controller) scope(scope Scope) ([]service.Unit, error) {
	if scope.Function == "" {
		return c.cfg.Host.Units(), nil
	}
	u, ok := c.cfg.Host.Unit(scope.Function)
	if !ok {
		return nil, unknownFunction(scope.Function)
	}
	return []service.Unit{u}, nil
}

func unknownFunction(name string) error {
	return oerrors.NewNotFoundError(
		fmt.Sprintf("function %q not found", name),
		"functions."+name,
		"list the service functions in the manifest",
	)
}

// validate rejects an unsafe prefix, handlers already rewritten into the
// output root, and functions sharing an output folder, compared
// case-insensitively.
// Opted-out functions write nothing and are not checked.
func (c *Controller) validate(plans []assemble.Plan) error {
	prefix := c.service.Prefix
	cleaned := path.Clean(filepath.ToSlash(prefix))
	if prefix == "" || cleaned == "." || path.IsAbs(cleaned) || filepath.IsAbs(prefix) ||
		cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return &UnsafePrefixError{Prefix: prefix}
	}

	owners := map[string][]string{}
	for _, p := range plans {
		u := p.Unit
		if u.OptOut {
			continue
		}
		if u.Name == "" || u.Name == "." || u.Name == ".." || strings.ContainsAny(u.Name, `/\`) {
			return oerrors.NewValidationError(
				fmt.Sprintf("function name %q cannot be used as a folder name", u.Name),
				"functions."+u.Name, "name", "")
		}
		if strings.HasPrefix(path.Clean(filepath.ToSlash(u.Handler)), cleaned+"/") {
			return &OptimizedHandlerError{Function: u.Name, Handler: u.Handler, Prefix: prefix}
		}
		// Case-insensitive filesystems map "A" and "a" to one folder.
		folder := strings.ToLower(p.Folder)
		owners[folder] = append(owners[folder], u.Name)
	}

	folders := make([]string, 0, len(owners))
	for f := range owners {
		folders = append(folders, f)
	}
	sort.Strings(folders)
	for _, f := range folders {
		if names := owners[f]; len(names) > 1 {
			sort.Strings(names)
			return &FolderConflictError{Folder: f, Functions: names}
		}
	}
	return nil
}

// assembleAll fans out one goroutine per function. Siblings of a failed
// function run to completion; their results are not reported.
func (c *Controller) assembleAll(ctx context.Context, asm *assemble.Assembler, plans []assemble.Plan) error {
	var g errgroup.Group
	if c.cfg.Concurrency > 0 {
		g.SetLimit(c.cfg.Concurrency)
	}

	for _, p := range plans {
		p := p
		u := p.Unit
		g.Go(func() error {
			res, err := asm.Assemble(ctx, p)
			if err != nil {
				return err
			}
			if res.Status == assemble.StatusBuilt {
				if err := c.cfg.Host.UpdateUnit(u.Name, res.HandlerOptimize, *res.Package); err != nil {
					return &assemble.UnitError{Unit: u.Name, Phase: assemble.PhaseUpdate, Cause: err}
				}
			}
			output.UnitLogger(u.Name).Debug(string(res.Status), "handler", res.HandlerOptimize)
			c.record(res)
			return nil
		})
	}
	return g.Wait()
}

func (c *Controller) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = nil
}

func (c *Controller) record(res assemble.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, res)
}

func (c *Controller) snapshot() []assemble.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := append([]assemble.Result{}, c.results...)
	sort.Slice(out, func(i, j int) bool { return out[i].Function < out[j].Function })
	return out
}
