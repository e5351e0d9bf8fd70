package config

import (
	"os"
	"path/filepath"
)

const (
	// ConfigFileName is the settings file looked up in the service directory.
	ConfigFileName = ".optimize.yaml"

	// EnvFileName is loaded into the environment before settings resolve.
	EnvFileName = ".env"
)

// DefaultConfigFile returns the settings file path for a service directory.
func DefaultConfigFile(serviceDir string) string {
	return filepath.Join(serviceDir, ConfigFileName)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	// Handle ~/path/to/something
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// Handle ~username (not supported, return as-is)
	return path, nil
}
