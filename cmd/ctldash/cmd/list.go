package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ctldash/ctldash/internal/bus"
	"github.com/ctldash/ctldash/internal/catalog"
	"github.com/ctldash/ctldash/internal/config"
	"github.com/ctldash/ctldash/internal/engine"
)

var listFilter string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List service units",
	Long:  "List installed service units with their load, active and enablement state.",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listFilter, "filter", "", "only show units whose name or description contains this text")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("ctldash list: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	builder := catalog.NewBuilder(&bus.SystemdDialer{Logger: logger}, logger)
	units, err := builder.Build(ctx, selectedScope())
	if err != nil {
		return fmt.Errorf("ctldash list: %w", err)
	}
	units = engine.FilterUnits(units, listFilter)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "UNIT\tLOAD\tACTIVE\tSUB\tENABLEMENT\tDESCRIPTION")
	for _, u := range units {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			u.Name, u.LoadState, u.ActiveState, u.SubState, u.Enablement, u.Description)
	}
	return w.Flush()
}

// commandContext bounds a one-shot command by the configured call
// timeout, if any.
func commandContext(parent context.Context, cfg *config.Config) (context.Context, context.CancelFunc) {
	if cfg.Engine.CallTimeout > 0 {
		return context.WithTimeout(parent, cfg.Engine.CallTimeout)
	}
	return context.WithCancel(parent)
}
