package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/eschalon-utils/internal/logger"
)

// Save writes the preferences back to the file they were loaded from, or
// to the user's config directory when they never had one.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = filepath.Join(ConfigDir(), configFile)
	}
	return c.SaveTo(path)
}

// SaveTo writes the preferences to path. The file is replaced in one
// rename, so a failed write leaves the previous preferences intact.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".prefs-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	c.path = path
	logger.Debug("preferences saved", zap.String("path", path))
	return nil
}
