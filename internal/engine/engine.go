// Package engine reconciles the cached, UI-facing view of a host's
// service units with the host itself. A single control goroutine owns
// all cached state; bus calls and subprocess invocations run as
// independent units of work whose completions are merged back one at a
// time, so no completion ever races another against the cache.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ctldash/ctldash/internal/bus"
	"github.com/ctldash/ctldash/internal/catalog"
	"github.com/ctldash/ctldash/internal/elevate"
)

// Verb is a state-changing command against a unit.
type Verb string

const (
	VerbStart   Verb = "start"
	VerbStop    Verb = "stop"
	VerbRestart Verb = "restart"
	VerbEnable  Verb = "enable"
	VerbDisable Verb = "disable"
)

// CatalogBuilder produces the unit catalog for a scope.
type CatalogBuilder interface {
	Build(ctx context.Context, scope bus.Scope) ([]catalog.ServiceUnit, error)
}

// ActionRunner executes elevated enable/disable commands.
type ActionRunner interface {
	Run(ctx context.Context, scope bus.Scope, action elevate.Action, unit string) error
}

// LogFetcher retrieves log text for a unit, best-effort.
type LogFetcher interface {
	Fetch(ctx context.Context, scope bus.Scope, unitName string, maxLines int) string
}

// selectionState is the mutable selection owned by the control
// goroutine. Name is the reconciliation key across refreshes.
type selectionState struct {
	name            string
	unit            catalog.ServiceUnit
	logs            string
	logsUnavailable bool
}

// Engine owns the per-scope unit catalogs, the selection, the search
// filter and the loading flag, and drives periodic refresh.
type Engine struct {
	cfg     Config
	builder CatalogBuilder
	dialer  bus.Dialer
	runner  ActionRunner
	logs    LogFetcher
	logger  *slog.Logger

	msgs     chan message
	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu          sync.RWMutex
	activeScope bus.Scope
	catalogs    map[bus.Scope][]catalog.ServiceUnit
	sel         *selectionState
	filter      string
	isLoading   bool
	// issuedSeq and appliedSeq fence reload completions per scope:
	// a completion older than the newest applied one is discarded
	// instead of clobbering fresher data.
	issuedSeq  map[bus.Scope]uint64
	appliedSeq map[bus.Scope]uint64
}

// New creates an Engine. Config defaults are applied automatically.
func New(cfg Config, builder CatalogBuilder, dialer bus.Dialer, runner ActionRunner, logs LogFetcher, logger *slog.Logger) *Engine {
	cfg.ApplyDefaults()
	return &Engine{
		cfg:        cfg,
		builder:    builder,
		dialer:     dialer,
		runner:     runner,
		logs:       logs,
		logger:     logger.With("component", "engine"),
		msgs:       make(chan message, 64),
		quit:       make(chan struct{}),
		catalogs:   make(map[bus.Scope][]catalog.ServiceUnit),
		issuedSeq:  make(map[bus.Scope]uint64),
		appliedSeq: make(map[bus.Scope]uint64),
	}
}

// Run starts the control loop. It blocks until ctx is cancelled, then
// drains in-flight work and returns ctx's error.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	e.logger.Info("engine started", "poll_interval", e.cfg.PollInterval)

	for {
		select {
		case <-ctx.Done():
			e.stopOnce.Do(func() { close(e.quit) })
			e.wg.Wait()
			e.logger.Info("engine stopped")
			return ctx.Err()

		case <-ticker.C:
			e.handle(ctx, tickMsg{})

		case m := <-e.msgs:
			e.handle(ctx, m)
		}
	}
}

// Public operations. Each enqueues an intent for the control loop and
// returns immediately; the UI observes the outcome through Snapshot.

// LoadServices switches the active scope and reloads its catalog.
func (e *Engine) LoadServices(scope bus.Scope) { e.post(loadServicesMsg{scope: scope}) }

// Refresh reloads the current scope's catalog.
func (e *Engine) Refresh() { e.post(refreshMsg{}) }

// SelectService marks the named unit selected and fetches its logs.
func (e *Engine) SelectService(name string) { e.post(selectServiceMsg{name: name}) }

// Deselect clears the selection.
func (e *Engine) Deselect() { e.post(deselectMsg{}) }

// SetFilter replaces the search filter text.
func (e *Engine) SetFilter(text string) { e.post(setFilterMsg{text: text}) }

// Tick forces a poll cycle outside the periodic cadence.
func (e *Engine) Tick() { e.post(tickMsg{}) }

func (e *Engine) StartService(name string)   { e.post(unitCommandMsg{verb: VerbStart, name: name}) }
func (e *Engine) StopService(name string)    { e.post(unitCommandMsg{verb: VerbStop, name: name}) }
func (e *Engine) RestartService(name string) { e.post(unitCommandMsg{verb: VerbRestart, name: name}) }
func (e *Engine) EnableService(name string)  { e.post(unitCommandMsg{verb: VerbEnable, name: name}) }
func (e *Engine) DisableService(name string) { e.post(unitCommandMsg{verb: VerbDisable, name: name}) }

// Snapshot returns a consistent copy of the cached state with the
// search filter applied. It is the only read surface for callers;
// cached state is never handed out by reference.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := Snapshot{
		Scope:     e.activeScope,
		IsLoading: e.isLoading,
		Units:     FilterUnits(e.catalogs[e.activeScope], e.filter),
	}
	if e.sel != nil {
		snap.Selection = &Selection{
			Unit:            e.sel.unit,
			Logs:            e.sel.logs,
			LogsUnavailable: e.sel.logsUnavailable,
		}
	}
	return snap
}

// post hands a message to the control loop. Messages posted after the
// loop has stopped are dropped.
func (e *Engine) post(m message) {
	select {
	case e.msgs <- m:
	case <-e.quit:
	}
}

// handle applies one message. All cache mutations happen here, on the
// control goroutine.
func (e *Engine) handle(ctx context.Context, m message) {
	switch m := m.(type) {
	case loadServicesMsg:
		e.mu.Lock()
		e.activeScope = m.scope
		e.mu.Unlock()
		e.startReload(ctx)

	case refreshMsg:
		e.startReload(ctx)

	case servicesLoadedMsg:
		e.applyServicesLoaded(ctx, m)

	case selectServiceMsg:
		e.applySelect(ctx, m.name)

	case deselectMsg:
		e.mu.Lock()
		e.sel = nil
		e.mu.Unlock()

	case logsLoadedMsg:
		e.mu.Lock()
		// A result for a unit that is no longer selected arrives here
		// after a deselect or reselect; it matches nothing and is
		// dropped.
		if e.sel != nil && e.sel.name == m.unit {
			e.sel.logs = m.logs
			e.sel.logsUnavailable = m.logs == ""
		}
		e.mu.Unlock()

	case setFilterMsg:
		e.mu.Lock()
		e.filter = m.text
		e.mu.Unlock()

	case unitCommandMsg:
		e.startCommand(ctx, m.verb, m.name)

	case commandDoneMsg:
		if m.err != nil {
			e.logger.Warn("unit command failed",
				"verb", m.verb,
				"unit", m.name,
				"error", m.err,
			)
		} else {
			e.logger.Info("unit command completed", "verb", m.verb, "unit", m.name)
		}
		// The reload is the only mechanism that observes the command's
		// effect on the host.
		e.startReload(ctx)

	case tickMsg:
		e.startSelectionRefresh(ctx)

	case selectionRefreshedMsg:
		e.applySelectionRefreshed(m)
	}
}

// startReload kicks off an asynchronous full catalog build for the
// current scope, stamped with a fresh sequence number.
func (e *Engine) startReload(ctx context.Context) {
	e.mu.Lock()
	scope := e.activeScope
	e.isLoading = true
	e.issuedSeq[scope]++
	seq := e.issuedSeq[scope]
	e.mu.Unlock()

	e.goWork(ctx, func(cctx context.Context) {
		units, err := e.builder.Build(cctx, scope)
		if err != nil {
			if cctx.Err() == nil {
				e.logger.Warn("catalog build failed",
					"scope", scope.String(),
					"error", err,
				)
			}
			units = nil
		}
		e.post(servicesLoadedMsg{scope: scope, seq: seq, units: units})
	})
}

func (e *Engine) applyServicesLoaded(ctx context.Context, m servicesLoadedMsg) {
	e.mu.Lock()

	if m.seq <= e.appliedSeq[m.scope] {
		// A newer completion already landed for this slot.
		e.mu.Unlock()
		return
	}
	e.appliedSeq[m.scope] = m.seq
	e.catalogs[m.scope] = m.units

	active := m.scope == e.activeScope
	if active && m.seq == e.issuedSeq[m.scope] {
		e.isLoading = false
	}

	// Selection rebind: keep the selection if a unit with the same
	// name survived the reload, otherwise clear it.
	var refetch string
	if active && e.sel != nil {
		if u := findUnit(m.units, e.sel.name); u != nil {
			e.sel.unit = *u
			refetch = e.sel.name
		} else {
			e.sel = nil
		}
	}
	scope := m.scope
	e.mu.Unlock()

	if refetch != "" {
		e.startLogFetch(ctx, scope, refetch)
	}
}

func (e *Engine) applySelect(ctx context.Context, name string) {
	e.mu.Lock()
	sel := &selectionState{name: name, unit: catalog.ServiceUnit{Name: name}}
	if u := findUnit(e.catalogs[e.activeScope], name); u != nil {
		sel.unit = *u
	}
	e.sel = sel
	scope := e.activeScope
	e.mu.Unlock()

	e.startLogFetch(ctx, scope, name)
}

// startSelectionRefresh rebuilds the catalog to refresh only the
// selected unit's slot and its row in the cached list.
func (e *Engine) startSelectionRefresh(ctx context.Context) {
	e.mu.RLock()
	scope := e.activeScope
	var name string
	if e.sel != nil {
		name = e.sel.name
	}
	e.mu.RUnlock()

	if name == "" {
		return
	}

	e.goWork(ctx, func(cctx context.Context) {
		units, err := e.builder.Build(cctx, scope)
		if err != nil {
			if cctx.Err() == nil {
				e.logger.Debug("selection refresh failed",
					"scope", scope.String(),
					"unit", name,
					"error", err,
				)
			}
			e.post(selectionRefreshedMsg{name: name})
			return
		}
		msg := selectionRefreshedMsg{name: name, ok: true}
		if u := findUnit(units, name); u != nil {
			unit := *u
			msg.unit = &unit
			msg.logs = e.logs.Fetch(cctx, scope, name, e.cfg.LogLines)
		}
		e.post(msg)
	})
}

func (e *Engine) applySelectionRefreshed(m selectionRefreshedMsg) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sel == nil || e.sel.name != m.name {
		// Selection changed while the refresh was in flight.
		return
	}
	if !m.ok {
		// The refresh itself failed; keep showing the stale record.
		return
	}
	if m.unit == nil {
		e.sel = nil
		return
	}

	e.sel.unit = *m.unit
	e.sel.logs = m.logs
	e.sel.logsUnavailable = m.logs == ""

	// Update the matching row in place; unrelated entries stay as the
	// last full reload left them.
	units := e.catalogs[e.activeScope]
	for i := range units {
		if units[i].Name == m.name {
			units[i] = *m.unit
			break
		}
	}
}

// startCommand dispatches a state-changing command. Fire-and-forget:
// the completion triggers a full reload rather than awaiting host-side
// convergence.
func (e *Engine) startCommand(ctx context.Context, verb Verb, name string) {
	e.mu.RLock()
	scope := e.activeScope
	e.mu.RUnlock()

	e.goWork(ctx, func(cctx context.Context) {
		err := e.performCommand(cctx, scope, verb, name)
		e.post(commandDoneMsg{verb: verb, name: name, err: err})
	})
}

func (e *Engine) performCommand(ctx context.Context, scope bus.Scope, verb Verb, name string) error {
	switch verb {
	case VerbStart, VerbStop, VerbRestart:
		conn, err := e.dialer.Dial(ctx, scope)
		if err != nil {
			return err
		}
		defer conn.Close()
		switch verb {
		case VerbStart:
			return conn.StartUnit(ctx, name)
		case VerbStop:
			return conn.StopUnit(ctx, name)
		default:
			return conn.RestartUnit(ctx, name)
		}

	case VerbEnable, VerbDisable:
		action := elevate.ActionEnable
		if verb == VerbDisable {
			action = elevate.ActionDisable
		}
		if err := e.runner.Run(ctx, scope, action, name); err != nil {
			return err
		}
		// Ask the manager to reload its unit files so the follow-up
		// catalog build sees the change.
		if conn, err := e.dialer.Dial(ctx, scope); err == nil {
			if rerr := conn.Reload(ctx); rerr != nil {
				e.logger.Debug("daemon reload failed", "scope", scope.String(), "error", rerr)
			}
			conn.Close()
		}
		return nil

	default:
		return fmt.Errorf("engine: unknown verb %q", verb)
	}
}

func (e *Engine) startLogFetch(ctx context.Context, scope bus.Scope, name string) {
	e.goWork(ctx, func(cctx context.Context) {
		logs := e.logs.Fetch(cctx, scope, name, e.cfg.LogLines)
		e.post(logsLoadedMsg{unit: name, logs: logs})
	})
}

// goWork runs fn on its own goroutine with the configured per-call
// timeout applied. The engine tracks the goroutine so Run can drain
// in-flight work on shutdown.
func (e *Engine) goWork(ctx context.Context, fn func(context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		cctx := ctx
		if e.cfg.CallTimeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
			defer cancel()
		}
		fn(cctx)
	}()
}

func findUnit(units []catalog.ServiceUnit, name string) *catalog.ServiceUnit {
	for i := range units {
		if units[i].Name == name {
			return &units[i]
		}
	}
	return nil
}
