package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctldash/ctldash/internal/bus"
	"github.com/ctldash/ctldash/internal/elevate"
)

var startCmd = &cobra.Command{
	Use:   "start <unit>",
	Short: "Start a service unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBusAction(cmd, "start", args[0])
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop <unit>",
	Short: "Stop a service unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBusAction(cmd, "stop", args[0])
	},
}

var restartCmd = &cobra.Command{
	Use:   "restart <unit>",
	Short: "Restart a service unit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBusAction(cmd, "restart", args[0])
	},
}

var enableCmd = &cobra.Command{
	Use:   "enable <unit>",
	Short: "Enable a service unit",
	Long:  "Enable a service unit's unit file, escalating privileges as needed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runElevatedAction(cmd, elevate.ActionEnable, args[0])
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <unit>",
	Short: "Disable a service unit",
	Long:  "Disable a service unit's unit file, escalating privileges as needed.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runElevatedAction(cmd, elevate.ActionDisable, args[0])
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(enableCmd)
	rootCmd.AddCommand(disableCmd)
}

// runBusAction enqueues a start/stop/restart job over the bus.
func runBusAction(cmd *cobra.Command, verb, unit string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("ctldash %s: %w", verb, err)
	}
	logger := setupLogger(cfg.LogLevel)

	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	dialer := &bus.SystemdDialer{Logger: logger}
	conn, err := dialer.Dial(ctx, selectedScope())
	if err != nil {
		return fmt.Errorf("ctldash %s: %w", verb, err)
	}
	defer conn.Close()

	name := normalizeUnitArg(unit)
	switch verb {
	case "start":
		err = conn.StartUnit(ctx, name)
	case "stop":
		err = conn.StopUnit(ctx, name)
	default:
		err = conn.RestartUnit(ctx, name)
	}
	if err != nil {
		return fmt.Errorf("ctldash %s: %w", verb, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s requested\n", name, verb)
	return nil
}

// runElevatedAction changes unit file enablement through the elevation
// runner, with the bus as fallback when systemctl is absent.
func runElevatedAction(cmd *cobra.Command, action elevate.Action, unit string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("ctldash %s: %w", action, err)
	}
	logger := setupLogger(cfg.LogLevel)

	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	dialer := &bus.SystemdDialer{Logger: logger}
	runner := elevate.NewRunner(logger)
	runner.SetFallback(&dialToggler{dialer: dialer, scope: selectedScope()})

	name := normalizeUnitArg(unit)
	if err := runner.Run(ctx, selectedScope(), action, name); err != nil {
		return fmt.Errorf("ctldash %s: %w", action, err)
	}

	// Reload the manager so a follow-up list reflects the change.
	if conn, err := dialer.Dial(ctx, selectedScope()); err == nil {
		if rerr := conn.Reload(ctx); rerr != nil {
			logger.Debug("daemon reload failed", "error", rerr)
		}
		conn.Close()
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %sd\n", name, action)
	return nil
}

// dialToggler adapts the dialer to the runner's fallback interface,
// opening a fresh connection per call.
type dialToggler struct {
	dialer bus.Dialer
	scope  bus.Scope
}

func (t *dialToggler) EnableUnitFiles(ctx context.Context, names []string) error {
	conn, err := t.dialer.Dial(ctx, t.scope)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.EnableUnitFiles(ctx, names)
}

func (t *dialToggler) DisableUnitFiles(ctx context.Context, names []string) error {
	conn, err := t.dialer.Dial(ctx, t.scope)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.DisableUnitFiles(ctx, names)
}
