package bundler

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TransformFunc rewrites the source of one file. path is absolute.
type TransformFunc func(path string, src []byte, opts map[string]any) ([]byte, error)

// Registry maps plugin names to source transforms.
type Registry struct {
	mu         sync.RWMutex
	transforms map[string]TransformFunc
}

// NewRegistry returns a Registry holding the built-in transforms.
func NewRegistry() *Registry {
	r := &Registry{transforms: map[string]TransformFunc{}}
	r.Register("use-strict", useStrict)
	r.Register("replace", replace)
	return r
}

// Register adds or replaces a named transform.
func (r *Registry) Register(name string, fn TransformFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transforms[name] = fn
}

// Lookup returns the transform registered under name.
func (r *Registry) Lookup(name string) (TransformFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.transforms[name]
	return fn, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.transforms))
	for n := range r.transforms {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

const strictDirective = "'use strict';\n"

func useStrict(_ string, src []byte, _ map[string]any) ([]byte, error) {
	trimmed := strings.TrimSpace(string(src))
	if strings.HasPrefix(trimmed, "'use strict'") || strings.HasPrefix(trimmed, `"use strict"`) {
		return src, nil
	}
	return append([]byte(strictDirective), src...), nil
}

// replace substitutes literal text. Options: {values: {from: to}}.
func replace(path string, src []byte, opts map[string]any) ([]byte, error) {
	raw, ok := opts["values"]
	if !ok {
		return src, nil
	}
	values, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("replace: options.values must be a map, got %T", raw)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	// Longest first so overlapping keys behave predictably.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		v, ok := values[k].(string)
		if !ok {
			return nil, fmt.Errorf("replace: value for %q in %s must be a string", k, path)
		}
		pairs = append(pairs, k, v)
	}
	return []byte(strings.NewReplacer(pairs...).Replace(string(src))), nil
}
