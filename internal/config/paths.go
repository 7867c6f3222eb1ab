package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mrz1836/transmute/internal/constants"
	"github.com/mrz1836/transmute/internal/errors"
)

// GlobalConfigDir returns the path to the global TRANSMUTE configuration
// directory, typically ~/.transmute. TRANSMUTE_HOME overrides the location.
func GlobalConfigDir() (string, error) {
	if transmuteHome := os.Getenv("TRANSMUTE_HOME"); transmuteHome != "" {
		return transmuteHome, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, constants.TransmuteHome), nil
}

// ProjectConfigDir returns the relative path to the project configuration
// directory. This is always .transmute relative to the project root.
func ProjectConfigDir() string {
	return constants.TransmuteHome
}

// GlobalConfigPath returns the full path to the global configuration file,
// typically ~/.transmute/config.yaml.
func GlobalConfigPath() (string, error) {
	dir, err := GlobalConfigDir()
	if err != nil {
		return "", fmt.Errorf("get global config path: %w", err)
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// ProjectConfigPath returns the relative path to the project configuration
// file. This is always .transmute/config.yaml relative to the project root.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir(), "config.yaml")
}
