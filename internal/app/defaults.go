package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - CFBAK_CONFIG_PATH: config file location (default: ~/.config/cfbak.toml)
//   - CFBAK_HOME: base directory for cfbak data (default: ~/.local/share/cfbak)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking CFBAK_CONFIG_PATH env var first,
// then falling back to the default ~/.config/cfbak.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("CFBAK_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "cfbak.toml"), nil
}

// getBaseDir returns the base directory for cfbak data, checking CFBAK_HOME env var first,
// then falling back to the XDG default ~/.local/share/cfbak.
func getBaseDir() (string, error) {
	if path := os.Getenv("CFBAK_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "cfbak"), nil
}
