package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv overrides the nuxview home directory.
const HomeEnv = "NUXVIEW_HOME"

// GetHome returns the nuxview home directory, creating it if needed.
// Priority order:
//  1. NUXVIEW_HOME environment variable (if set)
//  2. ~/.nuxview
func GetHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve user home: %w", err)
		}
		home = filepath.Join(userHome, ".nuxview")
	}

	abs, err := filepath.Abs(home)
	if err != nil {
		return "", fmt.Errorf("resolve nuxview home: %w", err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return "", fmt.Errorf("create nuxview home directory: %w", err)
	}
	return abs, nil
}

// ConfigPath returns $home/config.yaml.
func ConfigPath(home string) string {
	return filepath.Join(home, "config.yaml")
}
