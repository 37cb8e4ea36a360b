package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// LocalConfigFile is looked up in the working directory.
const LocalConfigFile = "riuff.yaml"

// XDGConfigFile is looked up relative to the XDG config directories.
const XDGConfigFile = "riuff/config.yaml"

// ErrConfigNotFound is returned when an explicitly named file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// FindConfigFile returns the configuration file to use: explicit if given,
// otherwise ./riuff.yaml, otherwise riuff/config.yaml in the XDG config
// directories. It returns an empty string if there is none.
func FindConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}

	if _, err := os.Stat(LocalConfigFile); err == nil {
		return LocalConfigFile
	}

	if path, err := xdg.SearchConfigFile(XDGConfigFile); err == nil {
		return path
	}

	return ""
}

// LoadConfigFile reads a YAML file over the defaults, so the file only has
// to name the settings it changes.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load finds and reads the configuration. Without any file it returns the
// defaults. The returned path is empty in that case.
func Load(explicit string) (*Config, string, error) {
	path := FindConfigFile(explicit)
	if path == "" {
		return Default(), "", nil
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
