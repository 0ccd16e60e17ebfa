package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ctldash/ctldash/internal/bus"
)

func TestRootCommand_Help(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{})

	_ = rootCmd.Execute()

	output := buf.String()
	if !strings.Contains(output, "ctldash") {
		t.Errorf("help output should contain 'ctldash', got: %s", output)
	}
	if !strings.Contains(output, "service units") {
		t.Errorf("help output should contain 'service units', got: %s", output)
	}
}

func TestRootCommand_Version(t *testing.T) {
	SetVersionInfo("1.2.3", "abc123", "2025-01-01")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"--version"})

	_ = rootCmd.Execute()

	output := buf.String()
	if !strings.Contains(output, "1.2.3") {
		t.Errorf("version output should contain '1.2.3', got: %s", output)
	}
	if !strings.Contains(output, "abc123") {
		t.Errorf("version output should contain 'abc123', got: %s", output)
	}
}

func TestSelectedScope(t *testing.T) {
	t.Cleanup(func() { userScope = false })

	userScope = false
	if got := selectedScope(); got != bus.ScopeSystem {
		t.Errorf("selectedScope() = %v, want system", got)
	}
	userScope = true
	if got := selectedScope(); got != bus.ScopeUser {
		t.Errorf("selectedScope() with --user = %v, want user", got)
	}
}

func TestLoadConfig_FlagOverride(t *testing.T) {
	t.Cleanup(func() { logLevel = "" })

	logLevel = "debug"
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want flag override %q", cfg.LogLevel, "debug")
	}
}

func TestLoadConfig_InvalidOverride(t *testing.T) {
	t.Cleanup(func() { logLevel = "" })

	logLevel = "chatty"
	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for invalid log level override")
	}
}

func TestNormalizeUnitArg(t *testing.T) {
	tests := []struct{ in, want string }{
		{"foo", "foo.service"},
		{"foo.service", "foo.service"},
	}
	for _, tt := range tests {
		if got := normalizeUnitArg(tt.in); got != tt.want {
			t.Errorf("normalizeUnitArg(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
