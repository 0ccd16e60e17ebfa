package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/ctldash/ctldash/internal/bus"
)

// Builder produces unit catalogs for a scope by combining the
// manager's unit file listing with per-unit property reads.
type Builder struct {
	dialer bus.Dialer
	logger *slog.Logger
}

// NewBuilder creates a Builder using the given dialer.
func NewBuilder(dialer bus.Dialer, logger *slog.Logger) *Builder {
	return &Builder{
		dialer: dialer,
		logger: logger.With("component", "catalog"),
	}
}

// Build returns one ServiceUnit per installed .service unit file, in
// the order the manager reported them. The build fails only if the
// connection or the initial listing fails; per-unit property failures
// degrade to documented defaults.
func (b *Builder) Build(ctx context.Context, scope bus.Scope) ([]ServiceUnit, error) {
	conn, err := b.dialer.Dial(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s scope: %w", scope, err)
	}
	defer conn.Close()

	files, err := conn.ListUnitFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s scope: %w", scope, err)
	}

	units := make([]ServiceUnit, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		name := path.Base(f.Path)
		if !strings.HasSuffix(name, UnitSuffix) {
			continue
		}
		// Unit files can shadow each other across search directories;
		// the first occurrence wins so names stay unique per catalog.
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		units = append(units, b.buildUnit(ctx, conn, name, f))
	}
	return units, nil
}

func (b *Builder) buildUnit(ctx context.Context, conn bus.Conn, name string, file bus.UnitFile) ServiceUnit {
	unit := ServiceUnit{
		Name:         name,
		UnitFilePath: file.Path,
		Enablement:   EnablementFromUnitFileState(file.State),
	}
	unit.Description = b.readProperty(ctx, conn, name, "Description", DefaultDescription)
	unit.LoadState = b.readProperty(ctx, conn, name, "LoadState", DefaultLoadState)
	unit.ActiveState = b.readProperty(ctx, conn, name, "ActiveState", DefaultActiveState)
	unit.SubState = b.readProperty(ctx, conn, name, "SubState", DefaultSubState)
	return unit
}

// readProperty reads one unit property, degrading to fallback on any
// failure. One unreachable unit must never fail the whole listing.
func (b *Builder) readProperty(ctx context.Context, conn bus.Conn, unit, property, fallback string) string {
	value, err := conn.GetUnitProperty(ctx, unit, property)
	if err != nil {
		b.logger.Debug("property read failed, using default",
			"unit", unit,
			"property", property,
			"error", err,
		)
		return fallback
	}
	return value
}
