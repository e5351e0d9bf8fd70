package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Environment variable prefix for optimize settings.
const envPrefix = "OPTIMIZE"

// Env variable names.
const (
	EnvService     = envPrefix + "_SERVICE"
	EnvConfig      = envPrefix + "_CONFIG"
	EnvManifest    = envPrefix + "_MANIFEST"
	EnvConcurrency = envPrefix + "_CONCURRENCY"
	EnvOutput      = envPrefix + "_OUTPUT"
	EnvTimestamps  = envPrefix + "_LOG_TIMESTAMPS"
)

// Loader reads the settings file.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new settings loader.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("output", DefaultConfig().Output)
	return &Loader{v: v}
}

// Load reads configFile. A missing file yields the defaults.
func (l *Loader) Load(configFile string) (*Config, error) {
	expanded, err := ExpandPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("expanding config path: %w", err)
	}

	if expanded != "" {
		l.v.SetConfigFile(expanded)
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading config file %s: %w", expanded, err)
			}
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// InConfig reports whether key was set by the settings file.
func (l *Loader) InConfig(key string) bool {
	return l.v.InConfig(key)
}

// LoadDotEnv loads <serviceDir>/.env into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(serviceDir string) (bool, error) {
	path := filepath.Join(serviceDir, EnvFileName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("loading %s: %w", path, err)
	}
	return true, nil
}
