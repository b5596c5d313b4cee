package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the home directory.
const HomeEnv = "MICROASSESS_HOME"

// GetHome returns the microassess home directory
// Priority order:
//  1. MICROASSESS_HOME environment variable (if set)
//  2. .microassess in the current working directory
//
// The directory is created if it doesn't exist
func GetHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		home = filepath.Join(cwd, ".microassess")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create home directory: %w", err)
	}
	return home, nil
}

// ResolveHome returns override when set (creating it), else GetHome().
func ResolveHome(override string) (string, error) {
	if override == "" {
		return GetHome()
	}
	if err := os.MkdirAll(override, 0755); err != nil {
		return "", fmt.Errorf("create home directory: %w", err)
	}
	return override, nil
}

// ConfigPath returns the config file location inside home.
func ConfigPath(home string) string {
	return filepath.Join(home, "config.yaml")
}

// ResolvePath anchors a relative path at home. Empty stays empty.
func ResolvePath(home, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(home, path)
}
