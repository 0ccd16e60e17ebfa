package engine

import (
	"strings"

	"github.com/ctldash/ctldash/internal/bus"
	"github.com/ctldash/ctldash/internal/catalog"
)

// Selection is the read-only view of the currently selected unit.
type Selection struct {
	Unit catalog.ServiceUnit
	// Logs is the most recently fetched log text for the unit. It is
	// opaque and may be arbitrarily large.
	Logs string
	// LogsUnavailable is set when the last log fetch produced nothing,
	// so a UI can show a placeholder instead of an empty pane.
	LogsUnavailable bool
}

// Snapshot is a consistent copy of the engine's cached state for one
// render pass. Units is already filtered by the current search filter.
type Snapshot struct {
	Scope     bus.Scope
	IsLoading bool
	Units     []catalog.ServiceUnit
	Selection *Selection
}

// FilterUnits returns the units whose name or description contains
// filter, case-insensitively. An empty filter returns a copy of units
// unchanged. The projection is pure; it never mutates its input.
func FilterUnits(units []catalog.ServiceUnit, filter string) []catalog.ServiceUnit {
	out := make([]catalog.ServiceUnit, 0, len(units))
	needle := strings.ToLower(filter)
	for _, u := range units {
		if needle == "" ||
			strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.Description), needle) {
			out = append(out, u)
		}
	}
	return out
}
