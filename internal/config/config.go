// Package config provides loading and resolution of the tool's own
// settings. Function build options live in the service manifest instead.
package config

// LogConfig contains logging-related settings.
type LogConfig struct {
	// Timestamps controls whether timestamps are shown in log output.
	// Default: true. Override with --timestamps flag.
	Timestamps *bool `mapstructure:"timestamps" json:"timestamps,omitempty"`
}

// Config is the content of .optimize.yaml.
type Config struct {
	// Manifest is the service manifest file name. Empty means the first of
	// serverless.yml, serverless.yaml, serverless.json, serverless.jsonc.
	// Env: OPTIMIZE_MANIFEST
	Manifest string `mapstructure:"manifest" json:"manifest,omitempty"`

	// Concurrency bounds parallel function builds. 0 means one per function.
	// Env: OPTIMIZE_CONCURRENCY
	Concurrency int `mapstructure:"concurrency" json:"concurrency,omitempty"`

	// Output is the report format: yaml, json or table.
	// Env: OPTIMIZE_OUTPUT, Default: yaml
	Output string `mapstructure:"output" json:"output,omitempty"`

	// Log contains logging-related settings.
	Log LogConfig `mapstructure:"log" json:"log,omitempty"`
}

// DefaultConfig returns a Config with all default values populated.
func DefaultConfig() *Config {
	return &Config{Output: "yaml"}
}

// Settings are the resolved values a command runs with.
type Settings struct {
	// ServiceDir is the absolute service directory.
	ServiceDir string

	// ConfigFile is the settings file that was consulted.
	ConfigFile string

	Manifest    string
	Concurrency int
	Output      string
	Timestamps  *bool

	// Values records where each setting came from.
	Values []ResolvedValue
}
