package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opmodel/optimize/internal/assemble"
	"github.com/opmodel/optimize/internal/bundler/bundlertest"
	oerrors "github.com/opmodel/optimize/internal/errors"
	"github.com/opmodel/optimize/internal/fsutil"
	"github.com/opmodel/optimize/internal/output"
	"github.com/opmodel/optimize/internal/service"
)

const root = "/svc"

type fixture struct {
	fs      *fsutil.FS
	svc     *service.Service
	builder *bundlertest.Fake
	ctl     *Controller
}

func newFixture(t *testing.T, manifest string, files ...string) *fixture {
	t.Helper()
	fs := fsutil.New(afero.NewMemMapFs())
	for _, f := range files {
		require.NoError(t, fs.WriteFile(root+"/"+f, []byte("source of "+f)))
	}

	svc, err := service.Decode(root, root+"/serverless.yml", []byte(manifest))
	require.NoError(t, err)

	builder := &bundlertest.Fake{}
	return &fixture{
		fs:      fs,
		svc:     svc,
		builder: builder,
		ctl:     New(Config{Host: svc, FS: fs, Builder: builder}),
	}
}

func (f *fixture) read(t *testing.T, p string) string {
	t.Helper()
	data, err := f.fs.ReadFile(root + "/" + p)
	require.NoError(t, err)
	return string(data)
}

const abManifest = `service: ab
provider:
  runtime: nodejs14.x
package:
  individually: true
custom:
  optimize:
    prefix: _build
functions:
  A:
    handler: handlers/a.main
  B:
    handler: handlers/b.main
    optimize:
      minify: false
`

func TestBefore_EndToEndIndividual(t *testing.T) {
	f := newFixture(t, abManifest, "handlers/a.js", "handlers/b.js")

	report, err := f.ctl.Before(context.Background(), Scope{})
	require.NoError(t, err)

	assert.Contains(t, f.read(t, "_build/A/handlers/a.js"), "minified=true")
	assert.Contains(t, f.read(t, "_build/B/handlers/b.js"), "minified=false")

	a, _ := f.svc.Unit("A")
	assert.Equal(t, "_build/A/handlers/a.main", a.Handler)

	b, _ := f.svc.Unit("B")
	require.NotNil(t, b.Package)
	assert.Equal(t, service.Manifest{Exclude: []string{"**"}, Include: []string{"_build/B/**"}}, *b.Package)
	require.NotNil(t, a.Package)
	assert.NotContains(t, a.Package.Include, "_build/B/**")

	require.Len(t, report.Functions, 2)
	assert.Equal(t, "A", report.Functions[0].Function)
	assert.Equal(t, "B", report.Functions[1].Function)
	assert.True(t, report.Individually)
	assert.Equal(t, "/svc/_build", report.OutputRoot)
	assert.Equal(t, "ab", report.Service)

	built, skipped := report.Built()
	assert.Equal(t, 2, built)
	assert.Equal(t, 0, skipped)

	assert.Empty(t, f.svc.Package().Include, "individual mode leaves the service package alone")
}

func TestBefore_SharedMode(t *testing.T) {
	f := newFixture(t, `functions:
  a:
    handler: a.main
`, "a.js")

	report, err := f.ctl.Before(context.Background(), Scope{})
	require.NoError(t, err)

	assert.Equal(t, service.Manifest{Exclude: []string{"**"}, Include: []string{"_optimize/**"}}, f.svc.Package())
	require.NotNil(t, report.Package)
	assert.Equal(t, f.svc.Package(), *report.Package)
	a, _ := f.svc.Unit("a")
	assert.Equal(t, []string{"_optimize/**"}, a.Package.Include)
}

func TestBefore_CleansStaleFiles(t *testing.T) {
	f := newFixture(t, abManifest, "handlers/a.js", "handlers/b.js", "_build/stale.txt", "_build/A/old.js")

	_, err := f.ctl.Before(context.Background(), Scope{Function: "A"})
	require.NoError(t, err)

	assert.False(t, f.fs.Exists("/svc/_build/stale.txt"))
	assert.False(t, f.fs.Exists("/svc/_build/A/old.js"))
	assert.True(t, f.fs.Exists("/svc/_build/A/handlers/a.js"))
}

func TestBefore_CleanHappensBeforeAnyBuild(t *testing.T) {
	f := newFixture(t, abManifest, "handlers/a.js", "handlers/b.js", "_build/stale.txt")
	f.builder.Fail = map[string]error{"a.js": errors.New("boom"), "b.js": errors.New("boom")}

	_, err := f.ctl.Before(context.Background(), Scope{})
	require.Error(t, err)

	assert.False(t, f.fs.Exists("/svc/_build/stale.txt"))
	assert.True(t, f.fs.IsDir("/svc/_build"), "output root exists and is not cleaned on failure")
}

func TestBefore_SingleFunction(t *testing.T) {
	f := newFixture(t, abManifest, "handlers/a.js", "handlers/b.js")

	report, err := f.ctl.Before(context.Background(), Scope{Function: "B"})
	require.NoError(t, err)
	require.Len(t, report.Functions, 1)
	assert.Equal(t, "B", report.Functions[0].Function)

	a, _ := f.svc.Unit("A")
	assert.Equal(t, "handlers/a.main", a.Handler, "other functions untouched")
	assert.Nil(t, a.Package)
	assert.False(t, f.fs.Exists("/svc/_build/A"))
}

func TestBefore_UnknownFunction(t *testing.T) {
	f := newFixture(t, abManifest)

	_, err := f.ctl.Before(context.Background(), Scope{Function: "Z"})
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrNotFound)
}

func TestBefore_OptOutUntouched(t *testing.T) {
	f := newFixture(t, `package:
  individually: true
functions:
  a:
    handler: a.main
    optimize: false
    package:
      include: [a.js]
`, "a.js")

	report, err := f.ctl.Before(context.Background(), Scope{})
	require.NoError(t, err)

	a, _ := f.svc.Unit("a")
	assert.Equal(t, "a.main", a.Handler)
	assert.Equal(t, []string{"a.js"}, a.Package.Include)
	assert.False(t, f.fs.Exists("/svc/_optimize/a"))
	assert.Empty(t, f.builder.Calls())

	require.Len(t, report.Functions, 1)
	assert.Equal(t, assemble.StatusSkipped, report.Functions[0].Status)
}

func TestBefore_FirstFailureNamesFunction(t *testing.T) {
	f := newFixture(t, abManifest, "handlers/a.js", "handlers/b.js")
	f.builder.Fail = map[string]error{"b.js": errors.New("syntax error")}

	_, err := f.ctl.Before(context.Background(), Scope{})
	require.Error(t, err)

	var ue *assemble.UnitError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "B", ue.Unit)
	assert.ErrorIs(t, err, oerrors.ErrBuild)

	assert.Len(t, f.builder.Calls(), 2, "siblings are not cancelled")
}

func TestBefore_ConcurrencyLimit(t *testing.T) {
	f := newFixture(t, abManifest, "handlers/a.js", "handlers/b.js")
	f.ctl = New(Config{Host: f.svc, FS: f.fs, Builder: f.builder, Concurrency: 1})

	report, err := f.ctl.Before(context.Background(), Scope{})
	require.NoError(t, err)
	assert.Len(t, report.Functions, 2)
}

func TestBefore_FolderConflict(t *testing.T) {
	f := newFixture(t, `functions:
  api:
    handler: a.main
  API:
    handler: b.main
`, "a.js", "b.js")

	_, err := f.ctl.Before(context.Background(), Scope{})
	require.Error(t, err)

	var fc *FolderConflictError
	require.ErrorAs(t, err, &fc)
	assert.Equal(t, []string{"API", "api"}, fc.Functions)
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	assert.Empty(t, f.builder.Calls())
}

func TestBefore_UnsafePrefix(t *testing.T) {
	for _, prefix := range []string{"..", "../out", "/tmp/out", "."} {
		t.Run(prefix, func(t *testing.T) {
			f := newFixture(t, `custom:
  optimize:
    prefix: "`+prefix+`"
functions:
  a:
    handler: a.main
`, "a.js")

			_, err := f.ctl.Before(context.Background(), Scope{})
			require.Error(t, err)
			assert.ErrorIs(t, err, oerrors.ErrValidation)
			assert.True(t, f.fs.Exists("/svc/a.js"))
		})
	}
}

func TestUnsupportedRuntimeIsNoop(t *testing.T) {
	f := newFixture(t, `provider:
  runtime: python3.9
functions:
  a:
    handler: a.main
`, "a.js", "_optimize/keep.txt")

	assert.False(t, f.ctl.Enabled())

	report, err := f.ctl.Run(context.Background(), Scope{}, nil)
	require.NoError(t, err)
	assert.True(t, report.Disabled)
	assert.True(t, f.fs.Exists("/svc/_optimize/keep.txt"))

	a, _ := f.svc.Unit("a")
	assert.Equal(t, "a.main", a.Handler)
}

func TestAfter_RemovesOutput(t *testing.T) {
	f := newFixture(t, abManifest, "handlers/a.js", "handlers/b.js")

	_, err := f.ctl.Before(context.Background(), Scope{})
	require.NoError(t, err)
	_, err = f.ctl.After(context.Background())
	require.NoError(t, err)

	assert.False(t, f.fs.Exists("/svc/_build"))
}

func TestAfter_DebugKeepsOutput(t *testing.T) {
	manifest := strings.Replace(abManifest, "prefix: _build", "prefix: _build\n    debug: true", 1)
	f := newFixture(t, manifest, "handlers/a.js", "handlers/b.js")

	_, err := f.ctl.Before(context.Background(), Scope{})
	require.NoError(t, err)
	report, err := f.ctl.After(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Debug)
	assert.Len(t, report.Functions, 2)
	assert.True(t, f.fs.Exists("/svc/_build/A/handlers/a.js"))
}

func TestAfter_WithoutBeforeIsIdempotent(t *testing.T) {
	f := newFixture(t, abManifest)

	_, err := f.ctl.After(context.Background())
	require.NoError(t, err)
}

func TestRun_PackageStepSeesArtifacts(t *testing.T) {
	f := newFixture(t, abManifest, "handlers/a.js", "handlers/b.js")

	var seen bool
	_, err := f.ctl.Run(context.Background(), Scope{}, func(context.Context) error {
		seen = f.fs.Exists("/svc/_build/A/handlers/a.js")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, seen)
	assert.False(t, f.fs.Exists("/svc/_build"))
}

func TestRun_PackageStepFailureKeepsOutput(t *testing.T) {
	f := newFixture(t, abManifest, "handlers/a.js", "handlers/b.js")

	_, err := f.ctl.Run(context.Background(), Scope{}, func(context.Context) error {
		return errors.New("deploy failed")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deploy failed")
	assert.True(t, f.fs.Exists("/svc/_build/A/handlers/a.js"))
}

func TestEffective(t *testing.T) {
	f := newFixture(t, abManifest)

	opts, err := f.ctl.Effective("B")
	require.NoError(t, err)
	assert.False(t, opts.Minify)
	assert.Equal(t, "_build", opts.Prefix)
	assert.True(t, opts.Individually)

	_, err = f.ctl.Effective("nope")
	assert.ErrorIs(t, err, oerrors.ErrNotFound)

	assert.True(t, f.ctl.Defaults().Minify)
}

func TestBefore_RejectsHandlerInsideOutputRoot(t *testing.T) {
	f := newFixture(t, `package:
  individually: true
functions:
  a:
    handler: _optimize/a/src/a.main
`, "_optimize/a/src/a.js")

	_, err := f.ctl.Before(context.Background(), Scope{})
	require.Error(t, err)

	var stale *OptimizedHandlerError
	require.ErrorAs(t, err, &stale)
	assert.Equal(t, "a", stale.Function)
	assert.ErrorIs(t, err, oerrors.ErrValidation)
	assert.True(t, f.fs.Exists("/svc/_optimize/a/src/a.js"), "nothing is cleaned")
	assert.Empty(t, f.builder.Calls())
}

func TestBefore_ResolvesEachFunctionOnce(t *testing.T) {
	var buf bytes.Buffer
	output.SetupLogging(output.LogConfig{Verbose: true})
	output.SetLogWriter(&buf)
	t.Cleanup(func() { output.SetupLogging(output.LogConfig{}) })

	f := newFixture(t, `package:
  individually: true
functions:
  a:
    handler: a.main
    optimize:
      minify: "yes"
`, "a.js")

	_, err := f.ctl.Before(context.Background(), Scope{})
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(buf.String(), "ignoring malformed function option"))
}
