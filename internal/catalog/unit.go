// Package catalog builds normalized records of the service units
// installed on a host, merging unit file enumeration with live per-unit
// property reads.
package catalog

// UnitSuffix is the unit-type suffix this engine manages.
const UnitSuffix = ".service"

// Documented defaults applied when a per-unit property read fails.
// Each field degrades independently; a single unreadable property never
// blanks out the others.
const (
	DefaultDescription = ""
	DefaultLoadState   = "not-loaded"
	DefaultActiveState = "inactive"
	DefaultSubState    = "dead"
)

// EnablementState classifies a unit file's enablement.
type EnablementState int

const (
	// EnablementUnknown covers everything that is neither plainly
	// enabled nor plainly disabled (static, masked, linked, ...).
	EnablementUnknown EnablementState = iota
	EnablementEnabled
	EnablementDisabled
)

func (s EnablementState) String() string {
	switch s {
	case EnablementEnabled:
		return "enabled"
	case EnablementDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// CanToggle reports whether an enable/disable control should be
// interactive for a unit in this state.
func (s EnablementState) CanToggle() bool {
	return s == EnablementEnabled || s == EnablementDisabled
}

// EnablementFromUnitFileState maps a raw unit file state string to an
// EnablementState. Unrecognized states map to EnablementUnknown.
func EnablementFromUnitFileState(state string) EnablementState {
	switch state {
	case "enabled":
		return EnablementEnabled
	case "disabled":
		return EnablementDisabled
	default:
		return EnablementUnknown
	}
}

// ServiceUnit is one managed service unit. Name is unique within a
// scope's catalog and is the key used to reconcile records across
// refreshes.
type ServiceUnit struct {
	Name         string
	Description  string
	LoadState    string
	ActiveState  string
	SubState     string
	UnitFilePath string
	Enablement   EnablementState
}
