package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/opmodel/optimize/internal/errors"
)

// clearEnv isolates a test from OPTIMIZE_* variables in the environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvService, EnvConfig, EnvManifest, EnvConcurrency, EnvOutput, EnvTimestamps} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
}

func TestResolve_Defaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	s, err := Resolve(Flags{Service: dir})
	require.NoError(t, err)

	assert.Equal(t, dir, s.ServiceDir)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), s.ConfigFile)
	assert.Equal(t, "yaml", s.Output)
	assert.Zero(t, s.Concurrency)
	assert.Empty(t, s.Manifest)
	assert.Nil(t, s.Timestamps)
}

func TestResolve_FlagPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "output: table\nconcurrency: 2\n")
	t.Setenv(EnvOutput, "yaml")

	s, err := Resolve(Flags{Service: dir, Output: "json", Concurrency: 8, ConcurrencyChanged: true})
	require.NoError(t, err)

	assert.Equal(t, "json", s.Output)
	assert.Equal(t, 8, s.Concurrency)

	rv := find(t, s.Values, "output")
	assert.Equal(t, SourceFlag, rv.Source)
	assert.Equal(t, "yaml", rv.Shadowed[SourceEnv])
	assert.Equal(t, "table", rv.Shadowed[SourceConfig])
	assert.Equal(t, "yaml", rv.Shadowed[SourceDefault])
}

func TestResolve_EnvPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "manifest: a.yml\n")
	t.Setenv(EnvManifest, "b.yml")
	t.Setenv(EnvConcurrency, "3")
	t.Setenv(EnvTimestamps, "false")

	s, err := Resolve(Flags{Service: dir})
	require.NoError(t, err)

	assert.Equal(t, "b.yml", s.Manifest)
	assert.Equal(t, 3, s.Concurrency)
	require.NotNil(t, s.Timestamps)
	assert.False(t, *s.Timestamps)

	rv := find(t, s.Values, "manifest")
	assert.Equal(t, SourceEnv, rv.Source)
	assert.Equal(t, "a.yml", rv.Shadowed[SourceConfig])
	assert.NotContains(t, rv.Shadowed, SourceFlag)
}

func TestResolve_ConfigFallback(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "output: table\nlog:\n  timestamps: true\n")

	s, err := Resolve(Flags{Service: dir})
	require.NoError(t, err)

	assert.Equal(t, "table", s.Output)
	assert.Equal(t, SourceConfig, find(t, s.Values, "output").Source)
	require.NotNil(t, s.Timestamps)
	assert.True(t, *s.Timestamps)
}

func TestResolve_ConfigFlagAndDotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	other := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(other, []byte("output: json\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFileName), []byte(EnvConcurrency+"=5\n"), 0o644))
	require.NoError(t, os.Unsetenv(EnvConcurrency))

	s, err := Resolve(Flags{Service: dir, Config: other})
	require.NoError(t, err)

	assert.Equal(t, other, s.ConfigFile)
	assert.Equal(t, "json", s.Output)
	assert.Equal(t, 5, s.Concurrency, ".env feeds the env layer")
}

func TestResolve_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	_, err := Resolve(Flags{Service: dir, Output: "xml"})
	require.Error(t, err)
	assert.ErrorIs(t, err, oerrors.ErrValidation)

	t.Setenv(EnvConcurrency, "many")
	_, err = Resolve(Flags{Service: dir})
	assert.Error(t, err)
}

func find(t *testing.T, values []ResolvedValue, key string) ResolvedValue {
	t.Helper()
	for _, v := range values {
		if v.Key == key {
			return v
		}
	}
	t.Fatalf("no resolved value for %q", key)
	return ResolvedValue{}
}
