package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/opmodel/optimize/internal/errors"
)

func mustParse(t *testing.T, raw map[string]any) Override {
	t.Helper()
	o, _ := ParseOverride(raw)
	return o
}

func TestResolve_DefaultsOnly(t *testing.T) {
	got := Resolve(Defaults("14"), Override{}, Override{})

	assert.Equal(t, []string{"aws-sdk"}, got.Exclude)
	assert.True(t, got.Minify)
	assert.Equal(t, DefaultPrefix, got.Prefix)
	require.Len(t, got.Presets, 1)
	assert.Equal(t, PresetEnv, got.Presets[0].Name)
	assert.Equal(t, map[string]any{"node": "14"}, got.Presets[0].Options["targets"])
}

// Every field: unit beats system beats default.
func TestResolve_Precedence(t *testing.T) {
	system := mustParse(t, map[string]any{
		"exclude":       []any{"sys"},
		"external":      []any{"sys"},
		"externalPaths": map[string]any{"sys": "vendor/sys"},
		"extensions":    []any{".sys"},
		"global":        true,
		"includePaths":  []any{"sys.json"},
		"ignore":        []any{"sys/**"},
		"minify":        false,
		"plugins":       []any{"sys-plugin"},
		"presets":       []any{"sys-preset"},
	})
	unit := mustParse(t, map[string]any{
		"exclude":       []any{"unit"},
		"external":      []any{"unit"},
		"externalPaths": map[string]any{"unit": "vendor/unit"},
		"extensions":    []any{".unit"},
		"global":        false,
		"includePaths":  []any{"unit.json"},
		"ignore":        []any{"unit/**"},
		"minify":        true,
		"plugins":       []any{"unit-plugin"},
		"presets":       []any{"unit-preset"},
	})

	sysOnly := Resolve(Defaults("14"), system, Override{})
	assert.Equal(t, []string{"sys"}, sysOnly.Exclude)
	assert.Equal(t, []string{"sys"}, sysOnly.External)
	assert.Equal(t, map[string]string{"sys": "vendor/sys"}, sysOnly.ExternalPaths)
	assert.Equal(t, []string{".sys"}, sysOnly.Extensions)
	assert.True(t, sysOnly.Global)
	assert.Equal(t, []string{"sys.json"}, sysOnly.IncludePaths)
	assert.Equal(t, []string{"sys/**"}, sysOnly.Ignore)
	assert.False(t, sysOnly.Minify)
	assert.Equal(t, []Transform{{Name: "sys-plugin"}}, sysOnly.Plugins)
	assert.Equal(t, []Transform{{Name: "sys-preset"}}, sysOnly.Presets)

	both := Resolve(Defaults("14"), system, unit)
	assert.Equal(t, []string{"unit"}, both.Exclude)
	assert.Equal(t, []string{"unit"}, both.External)
	assert.Equal(t, map[string]string{"unit": "vendor/unit"}, both.ExternalPaths)
	assert.Equal(t, []string{".unit"}, both.Extensions)
	assert.False(t, both.Global)
	assert.Equal(t, []string{"unit.json"}, both.IncludePaths)
	assert.Equal(t, []string{"unit/**"}, both.Ignore)
	assert.True(t, both.Minify)
	assert.Equal(t, []Transform{{Name: "unit-plugin"}}, both.Plugins)
	assert.Equal(t, []Transform{{Name: "unit-preset"}}, both.Presets)
}

func TestResolve_ListReplacesNeverMerges(t *testing.T) {
	system := mustParse(t, map[string]any{"exclude": []any{"a"}})
	unit := mustParse(t, map[string]any{"exclude": []any{"b"}})

	got := Resolve(Defaults("14"), system, unit)

	assert.Equal(t, []string{"b"}, got.Exclude)
}

func TestResolve_FieldLocal(t *testing.T) {
	system := mustParse(t, map[string]any{"exclude": []any{"sys"}, "minify": true})
	unit := mustParse(t, map[string]any{"minify": false})

	got := Resolve(Defaults("14"), system, unit)

	assert.False(t, got.Minify)
	assert.Equal(t, []string{"sys"}, got.Exclude)
}

// A malformed override behaves exactly like an absent one.
func TestResolve_MalformedEqualsAbsent(t *testing.T) {
	system := mustParse(t, map[string]any{
		"exclude": []any{"sys"},
		"minify":  false,
		"presets": []any{"sys-preset"},
		"prefix":  "_build",
	})

	malformed := []map[string]any{
		{"exclude": "not-a-list"},
		{"exclude": []any{"ok", 3}},
		{"external": map[string]any{"a": "b"}},
		{"externalPaths": []any{"a"}},
		{"externalPaths": map[string]any{"a": 1}},
		{"extensions": true},
		{"global": "yes"},
		{"includePaths": []any{nil}},
		{"ignore": 12},
		{"minify": "false"},
		{"plugins": []any{42}},
		{"presets": []any{[]any{"x", "not-options"}}},
		{"presets": map[string]any{"name": "x"}},
	}

	want := Resolve(Defaults("14"), system, Override{})
	for _, raw := range malformed {
		unit, issues := ParseOverride(raw)
		assert.NotEmpty(t, issues, "%v should be reported", raw)
		assert.Equal(t, want, Resolve(Defaults("14"), system, unit), "%v", raw)
	}
}

func TestResolve_ServiceLevelOnlyFields(t *testing.T) {
	system := mustParse(t, map[string]any{"prefix": "_build", "debug": true})
	system.Individually = Set(true)
	unit := mustParse(t, map[string]any{"prefix": "_other", "debug": false})
	unit.Individually = Set(false)

	got := Resolve(Defaults("14"), system, unit)

	assert.Equal(t, "_build", got.Prefix)
	assert.True(t, got.Debug)
	assert.True(t, got.Individually)
}

func TestResolve_NoSharedMemory(t *testing.T) {
	defaults := Defaults("14")
	system := mustParse(t, map[string]any{"external": []any{"sharp"}})

	a := Resolve(defaults, system, Override{})
	b := Resolve(defaults, system, Override{})
	a.External[0] = "mutated"
	a.Exclude[0] = "mutated"
	a.Presets[0].Options["targets"] = "mutated"

	assert.Equal(t, []string{"sharp"}, b.External)
	assert.Equal(t, []string{"aws-sdk"}, defaults.Exclude)
	assert.Equal(t, map[string]any{"node": "14"}, defaults.Presets[0].Options["targets"])
}

func TestBuildPresets_MinifyFirst(t *testing.T) {
	o := Defaults("14")

	presets := o.BuildPresets()
	require.Len(t, presets, 2)
	assert.Equal(t, PresetMinify, presets[0].Name)
	assert.Equal(t, false, presets[0].Options["mangle"])
	assert.Equal(t, PresetEnv, presets[1].Name)
	assert.Len(t, o.Presets, 1, "presets are not mutated")

	o.Minify = false
	presets = o.BuildPresets()
	require.Len(t, presets, 1)
	assert.Equal(t, PresetEnv, presets[0].Name)
}

func TestParseOverride_TransformShapes(t *testing.T) {
	o, issues := ParseOverride(map[string]any{
		"presets": []any{
			"plain",
			[]any{"tuple"},
			[]any{"tuple-opts", map[string]any{"targets": map[string]any{"node": "12"}}},
			map[string]any{"name": "object", "options": map[string]any{"k": "v"}},
		},
	})

	assert.Empty(t, issues)
	presets, ok := o.Presets.Get()
	require.True(t, ok)
	assert.Equal(t, []Transform{
		{Name: "plain"},
		{Name: "tuple"},
		{Name: "tuple-opts", Options: map[string]any{"targets": map[string]any{"node": "12"}}},
		{Name: "object", Options: map[string]any{"k": "v"}},
	}, presets)
}

func TestParseOverride_IssuesWrapConfigShape(t *testing.T) {
	_, issues := ParseOverride(map[string]any{"minify": "nope", "typo": true})

	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.True(t, errors.Is(issue, oerrors.ErrConfigShape))
	}

	var shape *ShapeError
	require.True(t, errors.As(issues[0], &shape))
	assert.Equal(t, "minify", shape.Key)
	assert.Equal(t, "boolean", shape.Want)
	assert.Equal(t, "string", shape.Got)
}

func TestParseOverride_EmptyListIsPresent(t *testing.T) {
	o, issues := ParseOverride(map[string]any{"exclude": []any{}})

	assert.Empty(t, issues)
	got := Resolve(Defaults("14"), Override{}, o)
	assert.Empty(t, got.Exclude)
}

func TestNodeVersion(t *testing.T) {
	tests := []struct {
		runtime string
		version string
		ok      bool
	}{
		{"", "current", true},
		{"nodejs4.3", "4.3", true},
		{"nodejs6.10", "6.10", true},
		{"nodejs8.10", "8.10", true},
		{"nodejs14.x", "14", true},
		{"nodejs20.x", "20", true},
		{"python3.12", "", false},
		{"nodejs", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.runtime, func(t *testing.T) {
			v, ok := NodeVersion(tt.runtime)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.version, v)
		})
	}
}

func TestField(t *testing.T) {
	var absent Field[string]
	_, ok := absent.Get()
	assert.False(t, ok)
	assert.False(t, absent.IsSet())
	assert.Equal(t, "fallback", absent.Or("fallback"))

	present := Set("value")
	v, ok := present.Get()
	assert.True(t, ok)
	assert.Equal(t, "value", v)
	assert.Equal(t, "value", present.Or("fallback"))
}
