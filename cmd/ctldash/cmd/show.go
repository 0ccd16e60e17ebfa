package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ctldash/ctldash/internal/bus"
	"github.com/ctldash/ctldash/internal/catalog"
)

var showCmd = &cobra.Command{
	Use:   "show <unit>",
	Short: "Show one service unit",
	Long:  "Show the cached record of a single service unit.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("ctldash show: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)

	ctx, cancel := commandContext(cmd.Context(), cfg)
	defer cancel()

	builder := catalog.NewBuilder(&bus.SystemdDialer{Logger: logger}, logger)
	units, err := builder.Build(ctx, selectedScope())
	if err != nil {
		return fmt.Errorf("ctldash show: %w", err)
	}

	name := normalizeUnitArg(args[0])
	for _, u := range units {
		if u.Name != name {
			continue
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Unit:        %s\n", u.Name)
		fmt.Fprintf(w, "Description: %s\n", u.Description)
		fmt.Fprintf(w, "Load state:  %s\n", u.LoadState)
		fmt.Fprintf(w, "Active:      %s (%s)\n", u.ActiveState, u.SubState)
		fmt.Fprintf(w, "Enablement:  %s\n", u.Enablement)
		fmt.Fprintf(w, "Unit file:   %s\n", u.UnitFilePath)
		return nil
	}
	return fmt.Errorf("ctldash show: unit %q not found in %s scope", name, selectedScope())
}

// normalizeUnitArg lets users pass "foo" for "foo.service".
func normalizeUnitArg(name string) string {
	if strings.HasSuffix(name, catalog.UnitSuffix) {
		return name
	}
	return name + catalog.UnitSuffix
}
