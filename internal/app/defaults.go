package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// Defaults are the locations used when no flag says otherwise. The log
// directory is not listed: it lives under BaseDir, see config.NewConfig.
type Defaults struct {
	ConfigPath string // $UA_CONFIG_PATH or ~/.config/ua.toml
	BaseDir    string // $UA_HOME or ~/.local/share/ua
}

// GetDefaults resolves the default locations, preferring the environment.
func GetDefaults() (Defaults, error) {
	configPath, err := envOrHome("UA_CONFIG_PATH", ".config", "ua.toml")
	if err != nil {
		return Defaults{}, err
	}
	baseDir, err := envOrHome("UA_HOME", ".local", "share", "ua")
	if err != nil {
		return Defaults{}, err
	}
	return Defaults{ConfigPath: configPath, BaseDir: baseDir}, nil
}

// envOrHome returns the value of env, or the path rel under the user's
// home directory when env is unset or empty.
func envOrHome(env string, rel ...string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory for %s: %w", env, err)
	}
	return filepath.Join(append([]string{home}, rel...)...), nil
}
