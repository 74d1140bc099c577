package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked for in the working and config
// directories.
const FileName = "3dsconv.yaml"

// Load builds the settings for one run. A config file, when one is given or
// found, is layered over the defaults and the command line wins over both.
func Load(o Overrides) (*Config, error) {
	cfg := Default()

	path := o.ConfigPath
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	o.apply(cfg)
	return cfg, nil
}

// findConfigFile returns the first existing FileName in the working
// directory or ConfigDir, or "" when there is none.
func findConfigFile() string {
	for _, dir := range []string{".", ConfigDir()} {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir is where saved settings live.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "3dsconv")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "3dsconv")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "3dsconv")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "3dsconv")
}

// loadFromFile overlays the keys present in a YAML file onto cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
