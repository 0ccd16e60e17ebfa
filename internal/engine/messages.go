package engine

import (
	"github.com/ctldash/ctldash/internal/bus"
	"github.com/ctldash/ctldash/internal/catalog"
)

// message is a UI intent or an asynchronous completion. Messages are
// applied to the cached state one at a time on the control goroutine,
// in arrival order.
type message interface{}

// loadServicesMsg switches the active scope and starts a full reload.
type loadServicesMsg struct {
	scope bus.Scope
}

// servicesLoadedMsg delivers a completed catalog build. seq is the
// reload sequence number the build was issued with; completions older
// than the newest applied one for the scope are discarded.
type servicesLoadedMsg struct {
	scope bus.Scope
	seq   uint64
	units []catalog.ServiceUnit
}

// selectServiceMsg marks one unit selected and triggers a log fetch.
type selectServiceMsg struct {
	name string
}

// deselectMsg clears the selection. In-flight fetches for the old
// selection keep running; their results are discarded on arrival.
type deselectMsg struct{}

// logsLoadedMsg delivers fetched log text for a unit.
type logsLoadedMsg struct {
	unit string
	logs string
}

// unitCommandMsg requests a state-changing command against a unit.
type unitCommandMsg struct {
	verb Verb
	name string
}

// commandDoneMsg reports a finished command. Success or failure, it
// triggers exactly one full reload of the current scope.
type commandDoneMsg struct {
	verb Verb
	name string
	err  error
}

// selectionRefreshedMsg delivers a targeted refresh of the selected
// unit. ok is false when the refresh itself failed; a nil unit with
// ok=true means the unit has disappeared from the catalog.
type selectionRefreshedMsg struct {
	name string
	unit *catalog.ServiceUnit
	logs string
	ok   bool
}

// setFilterMsg replaces the search filter text.
type setFilterMsg struct {
	text string
}

// refreshMsg starts a full reload of the current scope.
type refreshMsg struct{}

// tickMsg is the periodic poll; it refreshes the selection if any.
type tickMsg struct{}
