package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user-level CLI defaults, loaded from a YAML file.
type Config struct {
	// DefaultProject is opened when no --project flag is given.
	DefaultProject string `yaml:"default_project"`
	// RegistryPath overrides where the recent-projects database lives.
	RegistryPath string `yaml:"registry_path"`
	// PreviewRows is the default row count for preview output.
	PreviewRows uint64 `yaml:"preview_rows"`
}

// DefaultConfigPath returns the conventional config location under the
// user config directory, or "" when that directory cannot be resolved.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "quarry", "config.yaml")
}

func defaultRegistryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "quarry-recent.db"
	}
	return filepath.Join(dir, "quarry", "recent.db")
}

// LoadConfig reads the config file at path. A missing file yields the
// built-in defaults; a malformed file is an error.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		RegistryPath: defaultRegistryPath(),
		PreviewRows:  20,
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.RegistryPath == "" {
		cfg.RegistryPath = defaultRegistryPath()
	}
	if cfg.PreviewRows == 0 {
		cfg.PreviewRows = 20
	}
	return cfg, nil
}
