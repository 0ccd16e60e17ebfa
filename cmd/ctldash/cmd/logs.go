package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ctldash/ctldash/internal/journal"
)

var logsLines int

var logsCmd = &cobra.Command{
	Use:   "logs <unit>",
	Short: "Show journal logs for a unit",
	Long:  "Fetch the most recent journal lines for a service unit.",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 0, "number of journal lines (default from config)")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("ctldash logs: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	lines := logsLines
	if lines <= 0 {
		lines = cfg.Engine.LogLines
	}

	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	text := journal.NewReader(logger).Fetch(ctx, selectedScope(), args[0], lines)
	if text == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "no log output available")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), text)
	return nil
}
