// Package config handles the global carrel configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the user-wide configuration stored in
// ~/.config/carrel/config.yml.
type Config struct {
	// Active is the library root the tool operates on.
	Active string `yaml:"active,omitempty"`
	// Editor is the command template for manual BibTeX edits.
	Editor string `yaml:"editor,omitempty"`
	// Viewer is the command template for opening documents.
	Viewer string `yaml:"viewer,omitempty"`
}

const (
	// ConfigDirName is the directory name under XDG_CONFIG_HOME.
	ConfigDirName = "carrel"
	// ConfigFileName is the config file name.
	ConfigFileName = "config.yml"
)

// globalConfigCache caches the loaded config for the process.
var globalConfigCache *Config

// Path returns the path to the global config file. Respects
// XDG_CONFIG_HOME, defaults to ~/.config/carrel/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, ConfigDirName, ConfigFileName)
}

// Load reads the global configuration. A missing file yields an empty
// config, not an error. Environment variables CARREL_LIBRARY,
// CARREL_EDITOR, and CARREL_VIEWER override the file's values.
func Load() (*Config, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg := &Config{}
	path := Path()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	if v := os.Getenv("CARREL_LIBRARY"); v != "" {
		cfg.Active = v
	}
	if v := os.Getenv("CARREL_EDITOR"); v != "" {
		cfg.Editor = v
	}
	if v := os.Getenv("CARREL_VIEWER"); v != "" {
		cfg.Viewer = v
	}
	cfg.Active = ExpandPath(cfg.Active)

	globalConfigCache = cfg
	return cfg, nil
}

// Save writes the configuration to the global config file, creating
// the config directory if needed.
func (c *Config) Save() error {
	path := Path()
	if path == "" {
		return errors.New("cannot determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	globalConfigCache = nil
	return nil
}

// ResetCache clears the cached global config. Useful for testing.
func ResetCache() {
	globalConfigCache = nil
}

// ErrNoActiveLibrary is returned when no library root is configured.
var ErrNoActiveLibrary = errors.New("no active library configured")

// ErrActiveNotExist is returned when the configured library root does
// not exist.
var ErrActiveNotExist = errors.New("active library does not exist")

// ActiveLibrary returns the configured library root after validation.
func ActiveLibrary() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	if cfg.Active == "" {
		return "", ErrNoActiveLibrary
	}
	info, err := os.Stat(cfg.Active)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrActiveNotExist, cfg.Active)
	}
	return cfg.Active, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
