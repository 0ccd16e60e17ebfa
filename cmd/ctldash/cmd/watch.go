package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ctldash/ctldash/internal/bus"
	"github.com/ctldash/ctldash/internal/catalog"
	"github.com/ctldash/ctldash/internal/elevate"
	"github.com/ctldash/ctldash/internal/engine"
	"github.com/ctldash/ctldash/internal/journal"
)

var (
	watchSelect string
	watchFilter string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Continuously watch service units",
	Long: "Run the synchronization engine and print the unit catalog on every\n" +
		"poll cycle. With --select, the named unit's state and logs are kept\n" +
		"fresh and shown alongside the catalog.",
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchSelect, "select", "", "unit to keep selected and refreshed")
	watchCmd.Flags().StringVar(&watchFilter, "filter", "", "only show units whose name or description contains this text")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("ctldash watch: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	logger.Info("starting ctldash watch",
		"version", buildVersion,
		"scope", selectedScope().String(),
	)

	dialer := &bus.SystemdDialer{Logger: logger}
	runner := elevate.NewRunner(logger)
	runner.SetFallback(&dialToggler{dialer: dialer, scope: selectedScope()})

	eng := engine.New(
		cfg.Engine,
		catalog.NewBuilder(dialer, logger),
		dialer,
		runner,
		journal.NewReader(logger),
		logger,
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	done := make(chan error, 1)
	go func() {
		done <- eng.Run(ctx)
	}()

	eng.LoadServices(selectedScope())
	if watchFilter != "" {
		eng.SetFilter(watchFilter)
	}
	if watchSelect != "" {
		eng.SelectService(normalizeUnitArg(watchSelect))
	}

	ticker := time.NewTicker(cfg.Engine.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			err := <-done
			if err != nil && !isCanceled(err) {
				return fmt.Errorf("ctldash watch: %w", err)
			}
			logger.Info("ctldash watch stopped")
			return nil

		case <-ticker.C:
			printSnapshot(cmd, eng.Snapshot())
		}
	}
}

func printSnapshot(cmd *cobra.Command, snap engine.Snapshot) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "--- %s scope, %d units", snap.Scope, len(snap.Units))
	if snap.IsLoading {
		fmt.Fprint(w, ", reloading")
	}
	fmt.Fprintln(w)

	for _, u := range snap.Units {
		fmt.Fprintf(w, "%-40s %s/%s (%s)\n", u.Name, u.ActiveState, u.SubState, u.Enablement)
	}

	if sel := snap.Selection; sel != nil {
		fmt.Fprintf(w, "\nselected: %s %s/%s\n", sel.Unit.Name, sel.Unit.ActiveState, sel.Unit.SubState)
		if sel.LogsUnavailable {
			fmt.Fprintln(w, "no log output available")
		} else {
			fmt.Fprint(w, sel.Logs)
		}
	}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
