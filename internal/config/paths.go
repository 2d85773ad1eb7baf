package config

import (
	"os"
	"path/filepath"
)

// DefaultConfigName is the config file looked up in the working directory.
const DefaultConfigName = "cliff.toml"

// UserConfigPath returns the path to the user-level config file.
// This follows the XDG Base Directory Specification:
// - Linux: ~/.config/pretty-changelog/cliff.toml
// - macOS: ~/Library/Application Support/pretty-changelog/cliff.toml
// - Windows: %APPDATA%\pretty-changelog\cliff.toml
//
// If XDG_CONFIG_HOME is set, it will be respected on Linux.
func UserConfigPath() (string, error) {
	dir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigName), nil
}

// UserConfigDir returns the path to the user-level config directory.
func UserConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "pretty-changelog"), nil
}

// ProjectConfigPath returns the config file path inside workDir, or the
// current directory when workDir is empty.
func ProjectConfigPath(workDir string) string {
	return filepath.Join(workDir, DefaultConfigName)
}
