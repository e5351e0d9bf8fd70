package options

import (
	"fmt"
	"sort"

	oerrors "github.com/opmodel/optimize/internal/errors"
)

// Field is an optional override value. The zero Field is absent.
type Field[T any] struct {
	value T
	set   bool
}

// Set returns a present Field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Get returns the value and whether it is present.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.set
}

// IsSet reports whether the field is present.
func (f Field[T]) IsSet() bool {
	return f.set
}

// Or returns the value when present and fallback otherwise.
func (f Field[T]) Or(fallback T) T {
	if f.set {
		return f.value
	}
	return fallback
}

// Override is one well-typed configuration layer. Every field is optional.
type Override struct {
	Exclude       Field[[]string]
	External      Field[[]string]
	ExternalPaths Field[map[string]string]
	Extensions    Field[[]string]
	Global        Field[bool]
	IncludePaths  Field[[]string]
	Ignore        Field[[]string]
	Minify        Field[bool]
	Plugins       Field[[]Transform]
	Presets       Field[[]Transform]
	Prefix        Field[string]
	Debug         Field[bool]
	Individually  Field[bool]
}

// ShapeError describes an override key whose value was discarded because of
// its type. It wraps ErrConfigShape.
type ShapeError struct {
	Key  string
	Want string
	Got  string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("optimize.%s: expected %s, got %s", e.Key, e.Want, e.Got)
}

func (e *ShapeError) Unwrap() error {
	return oerrors.ErrConfigShape
}

// ParseOverride converts a loosely shaped optimize block into an Override.
// Keys whose value has the wrong shape are left absent and reported; this
// never fails. Unknown keys are reported too. individually is not read here:
// it comes from the service packaging settings.
func ParseOverride(raw map[string]any) (Override, []error) {
	var (
		o      Override
		issues []error
	)

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := raw[key]
		var ok bool
		switch key {
		case "exclude":
			o.Exclude, ok = stringList(v)
		case "external":
			o.External, ok = stringList(v)
		case "externalPaths":
			o.ExternalPaths, ok = stringMap(v)
		case "extensions":
			o.Extensions, ok = stringList(v)
		case "global":
			o.Global, ok = boolean(v)
		case "includePaths":
			o.IncludePaths, ok = stringList(v)
		case "ignore":
			o.Ignore, ok = stringList(v)
		case "minify":
			o.Minify, ok = boolean(v)
		case "plugins":
			o.Plugins, ok = transformList(v)
		case "presets":
			o.Presets, ok = transformList(v)
		case "prefix":
			o.Prefix, ok = str(v)
		case "debug":
			o.Debug, ok = boolean(v)
		default:
			issues = append(issues, &ShapeError{Key: key, Want: "a known key", Got: "unknown key"})
			continue
		}
		if !ok {
			issues = append(issues, &ShapeError{Key: key, Want: wantShape[key], Got: describe(v)})
		}
	}

	return o, issues
}

var wantShape = map[string]string{
	"exclude":       "list of strings",
	"external":      "list of strings",
	"externalPaths": "map of strings",
	"extensions":    "list of strings",
	"global":        "boolean",
	"includePaths":  "list of strings",
	"ignore":        "list of strings",
	"minify":        "boolean",
	"plugins":       "list of transforms",
	"presets":       "list of transforms",
	"prefix":        "string",
	"debug":         "boolean",
}

func stringList(v any) (Field[[]string], bool) {
	switch tv := v.(type) {
	case []string:
		return Set(append([]string{}, tv...)), true
	case []any:
		out := make([]string, 0, len(tv))
		for _, e := range tv {
			s, ok := e.(string)
			if !ok {
				return Field[[]string]{}, false
			}
			out = append(out, s)
		}
		return Set(out), true
	default:
		return Field[[]string]{}, false
	}
}

func stringMap(v any) (Field[map[string]string], bool) {
	switch tv := v.(type) {
	case map[string]string:
		out := make(map[string]string, len(tv))
		for k, s := range tv {
			out[k] = s
		}
		return Set(out), true
	case map[string]any:
		out := make(map[string]string, len(tv))
		for k, e := range tv {
			s, ok := e.(string)
			if !ok {
				return Field[map[string]string]{}, false
			}
			out[k] = s
		}
		return Set(out), true
	default:
		return Field[map[string]string]{}, false
	}
}

func boolean(v any) (Field[bool], bool) {
	b, ok := v.(bool)
	if !ok {
		return Field[bool]{}, false
	}
	return Set(b), true
}

func str(v any) (Field[string], bool) {
	s, ok := v.(string)
	if !ok {
		return Field[string]{}, false
	}
	return Set(s), true
}

// transformList accepts entries written as "name", ["name"],
// ["name", {options}] or {name: "name", options: {...}}.
func transformList(v any) (Field[[]Transform], bool) {
	switch tv := v.(type) {
	case []Transform:
		return Set(cloneTransforms(tv)), true
	case []any:
		out := make([]Transform, 0, len(tv))
		for _, e := range tv {
			t, ok := transform(e)
			if !ok {
				return Field[[]Transform]{}, false
			}
			out = append(out, t)
		}
		return Set(out), true
	default:
		return Field[[]Transform]{}, false
	}
}

func transform(v any) (Transform, bool) {
	switch tv := v.(type) {
	case string:
		return Transform{Name: tv}, tv != ""
	case []any:
		if len(tv) == 0 || len(tv) > 2 {
			return Transform{}, false
		}
		name, ok := tv[0].(string)
		if !ok || name == "" {
			return Transform{}, false
		}
		t := Transform{Name: name}
		if len(tv) == 2 {
			opts, ok := tv[1].(map[string]any)
			if !ok {
				return Transform{}, false
			}
			t.Options = cloneMap(opts)
		}
		return t, true
	case map[string]any:
		name, ok := tv["name"].(string)
		if !ok || name == "" {
			return Transform{}, false
		}
		t := Transform{Name: name}
		if raw, present := tv["options"]; present {
			opts, ok := raw.(map[string]any)
			if !ok {
				return Transform{}, false
			}
			t.Options = cloneMap(opts)
		}
		return t, true
	default:
		return Transform{}, false
	}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case int, int64, float64, uint64:
		return "number"
	case []any, []string:
		return "list with mismatched elements"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
