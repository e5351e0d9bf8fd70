package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/opmodel/optimize/internal/output"
)

// ConfigSource indicates where a configuration value came from.
type ConfigSource string

const (
	// SourceFlag indicates value came from command-line flag.
	SourceFlag ConfigSource = "flag"
	// SourceEnv indicates value came from environment variable.
	SourceEnv ConfigSource = "env"
	// SourceConfig indicates value came from config file.
	SourceConfig ConfigSource = "config"
	// SourceDefault indicates value is the built-in default.
	SourceDefault ConfigSource = "default"
)

// ResolvedValue is one setting with its origin.
type ResolvedValue struct {
	Key    string
	Value  any
	Source ConfigSource
	// Shadowed contains values that were overridden by higher precedence.
	Shadowed map[ConfigSource]any
}

// candidate is one layer's value for a key; set is false when the layer is
// silent.
type candidate struct {
	source ConfigSource
	value  any
	set    bool
}

// resolve picks the first set candidate and records the rest as shadowed.
func resolve(key string, layers ...candidate) ResolvedValue {
	rv := ResolvedValue{Key: key, Shadowed: map[ConfigSource]any{}}
	for _, c := range layers {
		if !c.set {
			continue
		}
		if rv.Source == "" {
			rv.Value = c.value
			rv.Source = c.source
			continue
		}
		rv.Shadowed[c.source] = c.value
	}
	return rv
}

// Flags carries command-line values. Zero values mean "not given" except
// where a Changed flag says otherwise.
type Flags struct {
	Service  string
	Config   string
	Manifest string
	Output   string

	Concurrency        int
	ConcurrencyChanged bool

	Timestamps *bool
}

// Resolve computes Settings using precedence flag > env > config > default.
// The service directory's .env file is loaded first so it can feed the
// env layer.
func Resolve(flags Flags) (*Settings, error) {
	serviceFlag := flags.Service
	serviceRV := resolve("service",
		candidate{SourceFlag, serviceFlag, serviceFlag != ""},
		envCandidate(EnvService),
		candidate{SourceDefault, ".", true},
	)
	serviceDir, err := filepath.Abs(serviceRV.Value.(string))
	if err != nil {
		return nil, fmt.Errorf("resolving service directory: %w", err)
	}

	loaded, err := LoadDotEnv(serviceDir)
	if err != nil {
		return nil, err
	}
	if loaded {
		output.Debug("loaded env file", "path", filepath.Join(serviceDir, EnvFileName))
	}

	configRV := resolve("config",
		candidate{SourceFlag, flags.Config, flags.Config != ""},
		envCandidate(EnvConfig),
		candidate{SourceDefault, DefaultConfigFile(serviceDir), true},
	)
	configFile := configRV.Value.(string)

	loader := NewLoader()
	cfg, err := loader.Load(configFile)
	if err != nil {
		return nil, err
	}
	def := DefaultConfig()

	manifestRV := resolve("manifest",
		candidate{SourceFlag, flags.Manifest, flags.Manifest != ""},
		envCandidate(EnvManifest),
		candidate{SourceConfig, cfg.Manifest, loader.InConfig("manifest")},
		candidate{SourceDefault, def.Manifest, true},
	)

	outputRV := resolve("output",
		candidate{SourceFlag, flags.Output, flags.Output != ""},
		envCandidate(EnvOutput),
		candidate{SourceConfig, cfg.Output, loader.InConfig("output")},
		candidate{SourceDefault, def.Output, true},
	)

	envConcurrency, err := intEnv(EnvConcurrency)
	if err != nil {
		return nil, err
	}
	concurrencyRV := resolve("concurrency",
		candidate{SourceFlag, flags.Concurrency, flags.ConcurrencyChanged},
		envConcurrency,
		candidate{SourceConfig, cfg.Concurrency, loader.InConfig("concurrency")},
		candidate{SourceDefault, def.Concurrency, true},
	)

	envTimestamps, err := boolEnv(EnvTimestamps)
	if err != nil {
		return nil, err
	}
	timestampsRV := resolve("log.timestamps",
		candidate{SourceFlag, flags.Timestamps, flags.Timestamps != nil},
		envTimestamps,
		candidate{SourceConfig, cfg.Log.Timestamps, cfg.Log.Timestamps != nil},
	)

	s := &Settings{
		ServiceDir:  serviceDir,
		ConfigFile:  configFile,
		Manifest:    manifestRV.Value.(string),
		Output:      outputRV.Value.(string),
		Concurrency: concurrencyRV.Value.(int),
		Values:      []ResolvedValue{serviceRV, configRV, manifestRV, outputRV, concurrencyRV},
	}
	if timestampsRV.Source != "" {
		s.Timestamps = timestampsRV.Value.(*bool)
		s.Values = append(s.Values, timestampsRV)
	}

	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func envCandidate(name string) candidate {
	v, ok := os.LookupEnv(name)
	return candidate{SourceEnv, v, ok && v != ""}
}

func intEnv(name string) (candidate, error) {
	c := envCandidate(name)
	if !c.set {
		return candidate{}, nil
	}
	n, err := strconv.Atoi(c.value.(string))
	if err != nil {
		return candidate{}, fmt.Errorf("%s: %w", name, err)
	}
	return candidate{SourceEnv, n, true}, nil
}

func boolEnv(name string) (candidate, error) {
	c := envCandidate(name)
	if !c.set {
		return candidate{}, nil
	}
	b, err := strconv.ParseBool(c.value.(string))
	if err != nil {
		return candidate{}, fmt.Errorf("%s: %w", name, err)
	}
	return candidate{SourceEnv, &b, true}, nil
}

// LogResolvedValues logs configuration resolution at DEBUG level.
func LogResolvedValues(values []ResolvedValue) {
	for _, v := range values {
		output.Debug("config value resolved",
			"key", v.Key,
			"value", v.Value,
			"source", v.Source,
		)
		for source, shadowed := range v.Shadowed {
			output.Debug("  shadowed by higher precedence",
				"key", v.Key,
				"shadowed_source", source,
				"shadowed_value", shadowed,
			)
		}
	}
}
