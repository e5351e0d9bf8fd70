// Package paths maps service-relative identifiers (handler modules, output
// prefixes, include paths) to absolute filesystem locations under a service
// root.
//
// Service-relative paths always use forward slashes; absolute paths use the
// host separator.
package paths

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// relativeMarker is the leading "./" accepted on include paths and
// externals.
const relativeMarker = "./"

// Resolver resolves service-relative paths against a service root.
type Resolver struct {
	root string
}

// NewResolver returns a Resolver rooted at servicePath.
func NewResolver(servicePath string) Resolver {
	return Resolver{root: filepath.Clean(servicePath)}
}

// Root returns the absolute service root.
func (r Resolver) Root() string {
	return r.root
}

// Abs returns the absolute location of a service-relative path.
func (r Resolver) Abs(rel string) string {
	return filepath.Join(r.root, filepath.FromSlash(rel))
}

// Rel returns the service-relative, slash-separated form of abs.
func (r Resolver) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// StripRelative removes one leading "./" marker.
func StripRelative(p string) string {
	return strings.TrimPrefix(p, relativeMarker)
}

// IsRelative reports whether p carries the leading "./" marker.
func IsRelative(p string) bool {
	return strings.HasPrefix(p, relativeMarker)
}

// UnitFolder returns the private output folder of a function: <prefix>/<name>.
func UnitFolder(prefix, name string) string {
	return path.Join(prefix, name)
}

// Handler is a parsed entry reference of the form "<module>.<symbol>", for
// example "handlers/users.create".
type Handler struct {
	// Module is the slash-separated module path without extension.
	Module string

	// Symbol is the exported handler name. It never contains a dot; the
	// module path may.
	Symbol string
}

// ParseHandler splits ref on its last dot into module path and symbol.
func ParseHandler(ref string) (Handler, error) {
	i := strings.LastIndex(ref, ".")
	if i <= 0 || i == len(ref)-1 {
		return Handler{}, fmt.Errorf("handler %q: expected <module>.<function>", ref)
	}

	module := ref[:i]
	if path.IsAbs(module) || filepath.IsAbs(module) {
		return Handler{}, fmt.Errorf("handler %q: module path must be relative to the service", ref)
	}
	if cleaned := path.Clean(module); cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return Handler{}, fmt.Errorf("handler %q: module path escapes the service directory", ref)
	}

	return Handler{Module: module, Symbol: ref[i+1:]}, nil
}

// String returns the entry reference form.
func (h Handler) String() string {
	return h.Module + "." + h.Symbol
}

// File returns the service-relative source file of the handler module.
func (h Handler) File() string {
	return h.Module + ".js"
}

// Dir returns the directory of the handler module, or "" when the module
// sits at the service root.
func (h Handler) Dir() string {
	i := strings.LastIndex(h.Module, "/")
	if i < 0 {
		return ""
	}
	return h.Module[:i]
}

// Rebase returns the handler with its module moved under folder.
func (h Handler) Rebase(folder string) Handler {
	return Handler{Module: folder + "/" + h.Module, Symbol: h.Symbol}
}
