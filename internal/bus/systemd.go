package bus

import (
	"context"
	"fmt"
	"log/slog"

	sd "github.com/coreos/go-systemd/v22/dbus"
	"github.com/godbus/dbus/v5"
)

// replaceMode is the job mode used for all start/stop/restart calls:
// a queued job replaces any conflicting pending job.
const replaceMode = "replace"

// SystemdDialer opens real connections to the system or session
// instance of systemd.
type SystemdDialer struct {
	Logger *slog.Logger
}

// Dial connects to the systemd instance selected by scope.
func (d *SystemdDialer) Dial(ctx context.Context, scope Scope) (Conn, error) {
	var (
		conn *sd.Conn
		err  error
	)
	switch scope {
	case ScopeUser:
		conn, err = sd.NewUserConnectionContext(ctx)
	default:
		conn, err = sd.NewSystemConnectionContext(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s scope: %v", ErrBusUnavailable, scope, err)
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &systemdConn{conn: conn, logger: logger}, nil
}

// systemdConn implements Conn on top of a go-systemd manager connection.
type systemdConn struct {
	conn   *sd.Conn
	logger *slog.Logger
}

func (c *systemdConn) ListUnitFiles(ctx context.Context) ([]UnitFile, error) {
	files, err := c.conn.ListUnitFilesContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("bus: ListUnitFiles: %w", err)
	}
	out := make([]UnitFile, len(files))
	for i, f := range files {
		out[i] = UnitFile{Path: f.Path, State: f.Type}
	}
	return out, nil
}

func (c *systemdConn) GetUnitProperty(ctx context.Context, unit, property string) (string, error) {
	prop, err := c.conn.GetUnitPropertyContext(ctx, unit, property)
	if err != nil {
		return "", fmt.Errorf("bus: get %s of %s: %w", property, unit, err)
	}
	return decodeStringVariant(prop.Value), nil
}

func (c *systemdConn) StartUnit(ctx context.Context, name string) error {
	if _, err := c.conn.StartUnitContext(ctx, name, replaceMode, nil); err != nil {
		return fmt.Errorf("bus: StartUnit %s: %w", name, err)
	}
	return nil
}

func (c *systemdConn) StopUnit(ctx context.Context, name string) error {
	if _, err := c.conn.StopUnitContext(ctx, name, replaceMode, nil); err != nil {
		return fmt.Errorf("bus: StopUnit %s: %w", name, err)
	}
	return nil
}

func (c *systemdConn) RestartUnit(ctx context.Context, name string) error {
	if _, err := c.conn.RestartUnitContext(ctx, name, replaceMode, nil); err != nil {
		return fmt.Errorf("bus: RestartUnit %s: %w", name, err)
	}
	return nil
}

func (c *systemdConn) EnableUnitFiles(ctx context.Context, names []string) error {
	// runtime=false: persist under /etc; force=true: replace existing
	// symlinks, which keeps enable idempotent for already-enabled units.
	if _, _, err := c.conn.EnableUnitFilesContext(ctx, names, false, true); err != nil {
		return fmt.Errorf("bus: EnableUnitFiles %v: %w", names, err)
	}
	return nil
}

func (c *systemdConn) DisableUnitFiles(ctx context.Context, names []string) error {
	if _, err := c.conn.DisableUnitFilesContext(ctx, names, false); err != nil {
		return fmt.Errorf("bus: DisableUnitFiles %v: %w", names, err)
	}
	return nil
}

func (c *systemdConn) Reload(ctx context.Context) error {
	if err := c.conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("bus: Reload: %w", err)
	}
	return nil
}

func (c *systemdConn) Close() {
	c.conn.Close()
}

// decodeStringVariant extracts a string payload from a D-Bus variant.
// Non-string variants decode to "" so the caller's default policy
// applies instead of propagating a type surprise from the host.
func decodeStringVariant(v dbus.Variant) string {
	s, ok := v.Value().(string)
	if !ok {
		return ""
	}
	return s
}
