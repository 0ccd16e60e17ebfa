package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if cfg.Engine.PollInterval == 0 {
		t.Error("Engine.PollInterval not defaulted")
	}
}

func TestConfig_Validate_InvalidLogLevel(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	cfg.LogLevel = "verbose"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid log_level")
	}
}

func TestParse_ValidYAML(t *testing.T) {
	yaml := `
log_level: debug
engine:
  poll_interval: 10s
  log_lines: 250
`
	path := writeTemp(t, yaml)
	cfg, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Engine.PollInterval != 10*time.Second {
		t.Errorf("Engine.PollInterval = %v, want 10s", cfg.Engine.PollInterval)
	}
	if cfg.Engine.LogLines != 250 {
		t.Errorf("Engine.LogLines = %d, want 250", cfg.Engine.LogLines)
	}
}

func TestParse_InvalidValue(t *testing.T) {
	yaml := `
engine:
  poll_interval: 100ms
`
	path := writeTemp(t, yaml)
	if _, err := Parse(path); err == nil {
		t.Fatal("expected error for sub-second poll_interval")
	}
}

func TestParse_MissingFile(t *testing.T) {
	if _, err := Parse(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestParse_EmptyFileGetsDefaults(t *testing.T) {
	path := writeTemp(t, "")
	cfg, err := Parse(path)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %q, want default %q", cfg.LogLevel, DefaultLogLevel)
	}
}
