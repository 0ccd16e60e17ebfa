package engine

import (
	"errors"
	"time"
)

// Defaults for zero-valued Config fields.
const (
	DefaultPollInterval = 5 * time.Second
	DefaultCallTimeout  = 30 * time.Second
	DefaultLogLines     = 100
)

// Config holds the configuration for the synchronization engine.
// Config is passed as a constructor argument — no file I/O in this
// package.
type Config struct {
	// PollInterval is the time between periodic refreshes of the
	// selected unit.
	// Default: 5s
	PollInterval time.Duration `yaml:"poll_interval"`

	// CallTimeout bounds every bus call and subprocess invocation.
	// A negative value disables the bound.
	// Default: 30s
	CallTimeout time.Duration `yaml:"call_timeout"`

	// LogLines is the number of journal lines fetched per unit.
	// Default: 100
	LogLines int `yaml:"log_lines"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.LogLines == 0 {
		c.LogLines = DefaultLogLines
	}
}

// Validate checks that configuration values are acceptable.
func (c *Config) Validate() error {
	if c.PollInterval < time.Second {
		return errors.New("engine: config: PollInterval must be at least 1s")
	}
	if c.LogLines < 1 {
		return errors.New("engine: config: LogLines must be at least 1")
	}
	return nil
}
