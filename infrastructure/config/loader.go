package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader layers configuration sources, lowest priority first:
// defaults, base.yaml, <environment>.yaml, environment variables.
type Loader struct {
	dir         string
	environment string
	sources     []string
}

// NewLoader creates a loader reading overlays from dir
func NewLoader(dir, environment string) *Loader {
	if dir == "" {
		dir = "config"
	}
	if environment == "" {
		environment = "development"
	}
	return &Loader{dir: dir, environment: environment}
}

// Load builds and validates the configuration
func (l *Loader) Load() (*Config, error) {
	cfg := Default()
	cfg.Environment = l.environment
	cfg.ConfigDir = l.dir
	l.sources = []string{"defaults"}

	for _, name := range []string{"base", strings.ToLower(l.environment)} {
		if err := l.loadFile(name, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	l.sources = append(l.sources, "environment")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Sources lists where the last Load read configuration from
func (l *Loader) Sources() []string {
	return l.sources
}

// Dir returns the overlay directory
func (l *Loader) Dir() string {
	return l.dir
}

func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, ext := range []string{"yaml", "yml"} {
		path := filepath.Join(l.dir, name+"."+ext)

		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		l.sources = append(l.sources, path)
		return nil
	}
	return nil
}

func isConfigFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
