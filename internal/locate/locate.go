// Package locate finds the on-disk source of external resources and the
// location they are replicated to inside a function's output folder.
package locate

import (
	"path"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/opmodel/optimize/internal/fsutil"
	"github.com/opmodel/optimize/internal/output"
	"github.com/opmodel/optimize/internal/paths"
)

const (
	modulesDir = "node_modules"
	cacheSize  = 512
)

// Resource is an external dependency resolved for one function.
type Resource struct {
	// Name is the external as declared, including any "./" marker.
	Name string `json:"name"`

	// Source is the absolute path copied from.
	Source string `json:"source"`

	// Dest is the absolute path copied to.
	Dest string `json:"dest"`

	// Local is set for "./" externals, which are copied verbatim.
	Local bool `json:"local,omitempty"`

	// Override is set when Source came from externalPaths.
	Override bool `json:"override,omitempty"`
}

type lookupKey struct {
	dir  string
	name string
}

// Locator resolves externals against a service root. Lookups are memoized
// for the lifetime of the Locator; build a new one per invocation.
// A Locator is safe for concurrent use.
type Locator struct {
	fs    *fsutil.FS
	paths paths.Resolver
	cache *lru.Cache[lookupKey, string]
}

// New returns a Locator reading from fs under the given service root.
func New(fs *fsutil.FS, resolver paths.Resolver) *Locator {
	cache, err := lru.New[lookupKey, string](cacheSize)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(err)
	}
	return &Locator{fs: fs, paths: resolver, cache: cache}
}

// Locate resolves external name for a function whose handler is h and whose
// output folder is unitFolder (service-relative).
//
// An entry in overrides wins unconditionally. A "./" name is a local
// dependency copied from the service root. Anything else is looked up in
// node_modules directories walking up from the handler's directory, falling
// back to <handler dir>/node_modules/<name> when nothing is found.
func (l *Locator) Locate(name string, h paths.Handler, unitFolder string, overrides map[string]string) Resource {
	stripped := paths.StripRelative(name)
	res := Resource{
		Name:  name,
		Dest:  l.paths.Abs(path.Join(unitFolder, h.Dir(), modulesDir, stripped)),
		Local: paths.IsRelative(name),
	}

	if src, ok := override(overrides, name, stripped); ok {
		res.Source = l.abs(src)
		res.Override = true
		return res
	}

	if res.Local {
		res.Source = l.paths.Abs(stripped)
		return res
	}

	res.Source = l.Source(stripped, l.paths.Abs(h.File()))
	return res
}

// Source performs the node_modules lookup for a package name starting at
// the directory of entryFile. The returned path ends in node_modules/<name>
// and keeps every segment between the service root and that directory.
func (l *Locator) Source(name, entryFile string) string {
	entryDir := filepath.Dir(entryFile)
	if found, ok := l.lookup(entryDir, name); ok {
		return found
	}

	output.Debug("external not found in node_modules, using handler directory",
		"external", name,
		"from", entryDir,
	)
	return filepath.Join(entryDir, modulesDir, filepath.FromSlash(name))
}

func (l *Locator) lookup(dir, name string) (string, bool) {
	key := lookupKey{dir: dir, name: name}
	if found, ok := l.cache.Get(key); ok {
		return found, found != ""
	}

	found := ""
	candidate := filepath.Join(dir, modulesDir, filepath.FromSlash(name))
	if l.fs.Exists(candidate) {
		found = candidate
	} else if parent := filepath.Dir(dir); parent != dir {
		found, _ = l.lookup(parent, name)
	}

	l.cache.Add(key, found)
	return found, found != ""
}

func (l *Locator) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return l.paths.Abs(paths.StripRelative(p))
}

func override(overrides map[string]string, names ...string) (string, bool) {
	for _, n := range names {
		if p := overrides[n]; p != "" {
			return p, true
		}
	}
	return "", false
}
