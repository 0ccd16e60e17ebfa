// Package journal retrieves raw log text for a unit through the
// external journalctl command. Log retrieval is best-effort auxiliary
// data: failures degrade to an empty result, never a hard error.
package journal

import (
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ctldash/ctldash/internal/bus"
	"github.com/ctldash/ctldash/internal/catalog"
	"github.com/ctldash/ctldash/internal/sandbox"
)

// executeFunc runs argv and returns its captured stdout.
type executeFunc func(ctx context.Context, argv []string) (string, error)

// Reader fetches unit logs through journalctl.
type Reader struct {
	detector sandbox.Detector
	logger   *slog.Logger
	execute  executeFunc
}

// NewReader creates a Reader.
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{
		logger:  logger.With("component", "journal"),
		execute: runJournalctl,
	}
}

// Fetch returns up to maxLines of the most recent log text for the
// named unit in the given scope. The unit-type suffix is appended if
// absent. Any execution failure yields "" so a selection action that
// triggered the fetch still succeeds.
func (r *Reader) Fetch(ctx context.Context, scope bus.Scope, unitName string, maxLines int) string {
	argv := r.argv(scope, unitName, maxLines, r.detector.Detect())

	out, err := r.execute(ctx, argv)
	if err != nil {
		r.logger.Debug("log fetch failed", "unit", unitName, "error", err)
		return ""
	}
	return out
}

// argv composes the journalctl invocation, non-interactive and limited
// to the most recent maxLines entries.
func (r *Reader) argv(scope bus.Scope, unitName string, maxLines int, confined bool) []string {
	args := []string{"journalctl"}
	if scope == bus.ScopeUser {
		args = append(args, "--user")
	}
	args = append(args,
		"-u", normalizeUnit(unitName),
		"-n", strconv.Itoa(maxLines),
		"--no-pager",
	)
	if confined {
		return sandbox.HostPrefix(args)
	}
	return args
}

// normalizeUnit appends the unit-type suffix if absent. Applying it to
// an already-suffixed name is a no-op.
func normalizeUnit(name string) string {
	if strings.HasSuffix(name, catalog.UnitSuffix) {
		return name
	}
	return name + catalog.UnitSuffix
}

// runJournalctl spawns argv and returns whatever reached stdout, even
// if the command exited non-zero.
func runJournalctl(ctx context.Context, argv []string) (string, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stderr = io.Discard
	out, err := cmd.Output()
	if len(out) > 0 {
		return string(out), nil
	}
	return "", err
}
