// Package service reads and rewrites a serverless service manifest: the
// host that owns the functions being optimized.
package service

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	oerrors "github.com/opmodel/optimize/internal/errors"
	"github.com/opmodel/optimize/internal/fsutil"
)

// ManifestNames are tried in order when no manifest file is named.
var ManifestNames = []string{"serverless.yml", "serverless.yaml", "serverless.json", "serverless.jsonc"}

// Manifest is a packaging include/exclude pair.
type Manifest struct {
	Exclude []string `json:"exclude" yaml:"exclude"`
	Include []string `json:"include" yaml:"include"`
}

// Unit is one function of the service.
type Unit struct {
	Name    string
	Handler string

	// OptOut is set by `optimize: false`.
	OptOut bool

	// Override is the raw `optimize: {...}` map, nil when absent.
	Override map[string]any

	// Package is the function's packaging manifest, nil when absent.
	Package *Manifest
}

// Host is what the optimizer needs from the service it runs inside.
type Host interface {
	// ServicePath is the absolute service root.
	ServicePath() string

	// Runtime is the provider runtime, e.g. "nodejs14.x". Empty when unset.
	Runtime() string

	// Custom is the raw system-wide override (custom.optimize), nil when absent.
	Custom() map[string]any

	// Individually reports package.individually.
	Individually() bool

	// Units lists the functions sorted by name.
	Units() []Unit

	// Unit returns one function by name.
	Unit(name string) (Unit, bool)

	// UpdateUnit rewrites a function's handler and packaging manifest.
	UpdateUnit(name, handler string, pkg Manifest) error

	// SetPackage installs the whole-service packaging manifest.
	SetPackage(m Manifest)

	// Package returns the whole-service packaging manifest.
	Package() Manifest
}

type format int

const (
	formatYAML format = iota
	formatJSON
)

// Service is a Host backed by a manifest document. The document is kept as
// generic data so keys the optimizer does not know survive a Save.
type Service struct {
	root   string
	file   string
	format format

	mu  sync.RWMutex
	doc map[string]any
}

var _ Host = (*Service)(nil)

// Load reads the manifest from dir. When name is empty the first existing
// entry of ManifestNames is used.
func Load(fs *fsutil.FS, dir, name string) (*Service, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, oerrors.NewFilesystemError("resolving service directory", dir, err)
	}
	if !fs.IsDir(root) {
		return nil, oerrors.NewNotFoundError("service directory not found", root, "pass the service folder with --service")
	}

	candidates := ManifestNames
	if name != "" {
		candidates = []string{name}
	}

	for _, c := range candidates {
		file := c
		if !filepath.IsAbs(file) {
			file = filepath.Join(root, c)
		}
		if !fs.Exists(file) {
			continue
		}
		data, err := fs.ReadFile(file)
		if err != nil {
			return nil, oerrors.NewFilesystemError("reading service manifest", file, err)
		}
		return Decode(root, file, data)
	}

	return nil, oerrors.NewNotFoundError(
		"no service manifest found",
		root,
		fmt.Sprintf("expected one of: %s", strings.Join(candidates, ", ")),
	)
}

// Decode parses manifest data. file selects the format by extension and is
// where Save writes.
func Decode(root, file string, data []byte) (*Service, error) {
	f := formatYAML
	switch strings.ToLower(filepath.Ext(file)) {
	case ".json", ".jsonc":
		f = formatJSON
		data = jsonc.ToJSON(data)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &oerrors.DetailError{
			Type:     "validation failed",
			Message:  "service manifest is not valid " + f.String(),
			Location: file,
			Cause:    fmt.Errorf("%w: %w", oerrors.ErrValidation, err),
		}
	}
	if doc == nil {
		doc = map[string]any{}
	}

	s := &Service{root: root, file: file, format: f, doc: doc}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (f format) String() string {
	if f == formatJSON {
		return "JSON"
	}
	return "YAML"
}

func (s *Service) validate() error {
	fns, ok := s.doc["functions"]
	if !ok || fns == nil {
		return nil
	}
	m, ok := fns.(map[string]any)
	if !ok {
		return oerrors.NewValidationError("functions must be a map", s.file, "functions", "")
	}
	for name, raw := range m {
		fn, ok := raw.(map[string]any)
		if !ok {
			return oerrors.NewValidationError("function must be a map", s.file, "functions."+name, "")
		}
		if h, _ := fn["handler"].(string); h == "" {
			return oerrors.NewValidationError("function has no handler", s.file, "functions."+name+".handler",
				"set handler to <module path>.<exported symbol>")
		}
	}
	return nil
}

// Name is the service name.
func (s *Service) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, _ := s.doc["service"].(string)
	return name
}

// File is the manifest path.
func (s *Service) File() string { return s.file }

func (s *Service) ServicePath() string { return s.root }

func (s *Service) Runtime() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rt, _ := child(s.doc, "provider")["runtime"].(string)
	return rt
}

func (s *Service) Custom() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := child(s.doc, "custom")["optimize"].(map[string]any)
	if !ok {
		return nil
	}
	return raw
}

func (s *Service) Individually() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, _ := child(s.doc, "package")["individually"].(bool)
	return v
}

func (s *Service) Units() []Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fns := child(s.doc, "functions")
	names := make([]string, 0, len(fns))
	for n := range fns {
		names = append(names, n)
	}
	sort.Strings(names)

	units := make([]Unit, 0, len(names))
	for _, n := range names {
		units = append(units, toUnit(n, child(fns, n)))
	}
	return units
}

func (s *Service) Unit(name string) (Unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := child(s.doc, "functions")[name].(map[string]any)
	if !ok {
		return Unit{}, false
	}
	return toUnit(name, fn), true
}

func (s *Service) UpdateUnit(name, handler string, pkg Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn, ok := child(s.doc, "functions")[name].(map[string]any)
	if !ok {
		return oerrors.NewNotFoundError(fmt.Sprintf("function %q not found", name), s.file, "")
	}
	fn["handler"] = handler
	fn["package"] = pkg.toMap()
	return nil
}

// SetPackage merges m into the service-level package section, keeping any
// other keys (individually, artifact, ...).
func (s *Service) SetPackage(m Manifest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pkg, ok := s.doc["package"].(map[string]any)
	if !ok {
		pkg = map[string]any{}
		s.doc["package"] = pkg
	}
	for k, v := range m.toMap() {
		pkg[k] = v
	}
}

// Package returns the service-level packaging manifest.
func (s *Service) Package() Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return manifestFrom(child(s.doc, "package"))
}

// Encode renders the document in its original format.
func (s *Service) Encode() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.format == formatJSON {
		out, err := json.MarshalIndent(s.doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	}
	return yaml.Marshal(s.doc)
}

// Save writes the document back to its manifest file. JSONC comments are
// not preserved.
func (s *Service) Save(fs *fsutil.FS) error {
	data, err := s.Encode()
	if err != nil {
		return fmt.Errorf("encoding service manifest: %w", err)
	}
	if err := fs.WriteFile(s.file, data); err != nil {
		return oerrors.NewFilesystemError("writing service manifest", s.file, err)
	}
	return nil
}

func toUnit(name string, fn map[string]any) Unit {
	u := Unit{Name: name}
	u.Handler, _ = fn["handler"].(string)

	switch o := fn["optimize"].(type) {
	case bool:
		u.OptOut = !o
	case map[string]any:
		u.Override = o
	}

	if pkg, ok := fn["package"].(map[string]any); ok {
		m := manifestFrom(pkg)
		u.Package = &m
	}
	return u
}

func (m Manifest) toMap() map[string]any {
	return map[string]any{
		"exclude": toAnyList(m.Exclude),
		"include": toAnyList(m.Include),
	}
}

func manifestFrom(pkg map[string]any) Manifest {
	return Manifest{
		Exclude: stringList(pkg["exclude"]),
		Include: stringList(pkg["include"]),
	}
}

func child(m map[string]any, key string) map[string]any {
	c, _ := m[key].(map[string]any)
	return c
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toAnyList(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
