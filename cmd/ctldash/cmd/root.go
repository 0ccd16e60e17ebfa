// Package cmd implements the ctldash CLI commands.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctldash/ctldash/internal/bus"
	"github.com/ctldash/ctldash/internal/config"
)

var (
	cfgFile   string
	logLevel  string
	userScope bool
)

// Build info set from main.
var (
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

// SetVersionInfo sets the version info from build-time ldflags.
func SetVersionInfo(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("ctldash version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

var rootCmd = &cobra.Command{
	Use:   "ctldash",
	Short: "ctldash inspects and controls systemd service units",
	Long: "ctldash talks to the systemd manager over D-Bus to list service units,\n" +
		"show their state, fetch their journal logs, and start, stop, restart,\n" +
		"enable or disable them — escalating privileges and escaping application\n" +
		"sandboxes as needed.",
	// No Run function — prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error; overrides config)")
	rootCmd.PersistentFlags().BoolVar(&userScope, "user", false, "talk to the per-user service manager")

	rootCmd.Version = buildVersion
	rootCmd.SetVersionTemplate(fmt.Sprintf("ctldash version {{.Version}}\ncommit: %s\nbuilt: %s\n", buildCommit, buildDate))
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file if one was given, otherwise starts
// from defaults, and applies CLI flag overrides either way.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if cfgFile != "" {
		parsed, err := config.Parse(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	} else {
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// selectedScope maps the --user flag onto a bus scope.
func selectedScope() bus.Scope {
	if userScope {
		return bus.ScopeUser
	}
	return bus.ScopeSystem
}

func setupLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
