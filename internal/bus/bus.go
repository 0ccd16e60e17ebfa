// Package bus provides a scope-aware client for the systemd manager's
// D-Bus API. It exposes the small request/response surface the rest of
// the engine needs and hides the underlying wire protocol.
package bus

import (
	"context"
	"errors"
)

// ErrBusUnavailable is returned when a connection to the requested
// systemd instance cannot be established.
var ErrBusUnavailable = errors.New("bus: systemd bus unavailable")

// Scope selects which systemd instance a connection talks to.
type Scope int

const (
	// ScopeSystem targets the system-wide manager on the system bus.
	ScopeSystem Scope = iota
	// ScopeUser targets the caller's per-user manager on the session bus.
	ScopeUser
)

func (s Scope) String() string {
	if s == ScopeUser {
		return "user"
	}
	return "system"
}

// UnitFile is one installed unit file as reported by the manager,
// regardless of whether the unit is loaded or running.
type UnitFile struct {
	// Path is the filesystem path of the unit file.
	Path string
	// State is the enablement state string ("enabled", "disabled",
	// "static", "masked", ...).
	State string
}

// Conn is a live connection to one systemd instance.
type Conn interface {
	// ListUnitFiles enumerates installed unit files and their
	// enablement states.
	ListUnitFiles(ctx context.Context) ([]UnitFile, error)

	// GetUnitProperty reads a single string property of the named unit
	// from the org.freedesktop.systemd1.Unit interface.
	GetUnitProperty(ctx context.Context, unit, property string) (string, error)

	// StartUnit, StopUnit and RestartUnit enqueue the corresponding job
	// in "replace" mode. The resulting job path is discarded; only
	// success or failure is reported.
	StartUnit(ctx context.Context, name string) error
	StopUnit(ctx context.Context, name string) error
	RestartUnit(ctx context.Context, name string) error

	// EnableUnitFiles and DisableUnitFiles change unit file enablement
	// directly over the bus. They exist as a fallback for environments
	// where shelling out to systemctl is not possible.
	EnableUnitFiles(ctx context.Context, names []string) error
	DisableUnitFiles(ctx context.Context, names []string) error

	// Reload instructs the manager to reload its unit files.
	Reload(ctx context.Context) error

	Close()
}

// Dialer opens connections to a systemd instance for a given scope.
type Dialer interface {
	Dial(ctx context.Context, scope Scope) (Conn, error)
}
