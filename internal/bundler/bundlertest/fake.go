// Package bundlertest provides an in-memory Builder for tests.
package bundlertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/opmodel/optimize/internal/bundler"
)

// Call records one Build invocation.
type Call struct {
	Entry   string
	Options bundler.Options
}

// Fake returns a deterministic bundle per entry and records calls.
type Fake struct {
	mu    sync.Mutex
	calls []Call

	// Fail maps an entry file suffix to the error returned for it.
	Fail map[string]error
}

// Build implements bundler.Builder. The bundle text names the entry and
// whether minification was requested, so tests can tell units apart.
func (f *Fake) Build(ctx context.Context, entryFile string, opts bundler.Options) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Entry: entryFile, Options: opts})
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for suffix, err := range f.Fail {
		if strings.HasSuffix(entryFile, suffix) {
			return nil, &bundler.BuildError{Entry: entryFile, Cause: err}
		}
	}

	minified := len(opts.Presets) > 0 && opts.Presets[0].Name == "minify"
	return []byte(fmt.Sprintf("// bundle of %s minified=%t\n", entryFile, minified)), nil
}

// Calls returns a snapshot of recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

var _ bundler.Builder = (*Fake)(nil)
