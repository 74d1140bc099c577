package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Save stores the settings as FileName in ConfigDir, where later runs pick
// them up.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), FileName))
}

// SaveTo stores the settings as YAML at path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
