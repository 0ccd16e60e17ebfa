// Package config loads the top-level ctldash configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ctldash/ctldash/internal/engine"
)

const (
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// Config is the top-level configuration for ctldash. It aggregates
// all subsystem configurations and is populated from a YAML
// configuration file via Parse.
type Config struct {
	// LogLevel is the log level: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	Engine engine.Config `yaml:"engine"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Engine.ApplyDefaults()
}

// Validate checks that values are acceptable.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log_level %q (must be \"debug\", \"info\", \"warn\" or \"error\")", c.LogLevel)
	}
	return c.Engine.Validate()
}

// Parse reads a YAML configuration file and returns a Config. It
// applies defaults and validates the configuration.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
