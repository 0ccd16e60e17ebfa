// Package elevate executes unit file state changes that require
// privilege escalation, rewriting the command line for confined
// environments.
package elevate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/ctldash/ctldash/internal/bus"
	"github.com/ctldash/ctldash/internal/sandbox"
)

// maxStderrBytes bounds the captured error stream of a failed command.
const maxStderrBytes = 64 * 1024

// Action is a unit file state change requiring elevation.
type Action string

const (
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

// CommandError reports a failed or unspawnable elevation command.
// ExitCode is -1 when the subprocess could not be started at all.
type CommandError struct {
	Action   Action
	Unit     string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode == -1 {
		return fmt.Sprintf("elevate: %s %s: spawn failed: %v", e.Action, e.Unit, e.Err)
	}
	return fmt.Sprintf("elevate: %s %s: exit %d: %s", e.Action, e.Unit, e.ExitCode, e.Stderr)
}

func (e *CommandError) Unwrap() error { return e.Err }

// UnitFileToggler changes unit file enablement over the bus. It serves
// as a fallback when the systemctl binary is not on PATH.
type UnitFileToggler interface {
	EnableUnitFiles(ctx context.Context, names []string) error
	DisableUnitFiles(ctx context.Context, names []string) error
}

// executeFunc runs argv and returns captured stderr and the exit code.
type executeFunc func(ctx context.Context, argv []string) (stderr string, exitCode int, err error)

// Runner composes and executes elevated systemctl commands. Calling
// enable on an already-enabled unit is a no-op success, so callers may
// act on the latest known enablement state without re-checking first.
type Runner struct {
	detector sandbox.Detector
	logger   *slog.Logger
	fallback UnitFileToggler

	euid     func() int
	lookPath func(file string) (string, error)
	execute  executeFunc
}

// NewRunner creates a Runner.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		logger:   logger.With("component", "elevate"),
		euid:     unix.Geteuid,
		lookPath: exec.LookPath,
		execute:  runCommand,
	}
}

// SetFallback installs a bus-side toggler used when systemctl is
// absent from PATH on an unconfined host.
func (r *Runner) SetFallback(t UnitFileToggler) { r.fallback = t }

// Run executes the given action against the named unit in the given
// scope. A non-zero exit is always surfaced as a *CommandError; it is
// never swallowed here, even if the caller chooses to only log it.
func (r *Runner) Run(ctx context.Context, scope bus.Scope, action Action, unit string) error {
	confined := r.detector.Detect()

	if r.fallback != nil && !confined {
		if _, err := r.lookPath("systemctl"); err != nil {
			return r.runFallback(ctx, action, unit)
		}
	}

	argv := r.argv(scope, action, unit, confined)
	r.logger.Debug("running elevation command",
		"scope", scope.String(),
		"argv", strings.Join(argv, " "),
	)

	stderr, exitCode, err := r.execute(ctx, argv)
	if err != nil {
		return &CommandError{Action: action, Unit: unit, ExitCode: -1, Err: err}
	}
	if exitCode != 0 {
		return &CommandError{Action: action, Unit: unit, Stderr: stderr, ExitCode: exitCode}
	}
	return nil
}

// argv composes the command line: sandbox-escape → elevation → target
// when confined, elevation → target otherwise. The user instance is
// owned by the caller, so the user scope needs no elevation stage.
func (r *Runner) argv(scope bus.Scope, action Action, unit string, confined bool) []string {
	var base []string
	switch {
	case scope == bus.ScopeUser:
		base = []string{"systemctl", "--user", string(action), unit}
	case r.euid() == 0:
		base = []string{"systemctl", string(action), unit}
	default:
		base = []string{"pkexec", "systemctl", string(action), unit}
	}
	if confined {
		return sandbox.HostPrefix(base)
	}
	return base
}

func (r *Runner) runFallback(ctx context.Context, action Action, unit string) error {
	r.logger.Debug("systemctl not found, using bus fallback", "action", action, "unit", unit)
	var err error
	if action == ActionDisable {
		err = r.fallback.DisableUnitFiles(ctx, []string{unit})
	} else {
		err = r.fallback.EnableUnitFiles(ctx, []string{unit})
	}
	if err != nil {
		return &CommandError{Action: action, Unit: unit, ExitCode: -1, Err: err}
	}
	return nil
}

// runCommand spawns argv, discarding stdout and capturing a bounded
// amount of stderr.
func runCommand(ctx context.Context, argv []string) (string, int, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = io.Discard
	var stderr limitedBuffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return strings.TrimSpace(stderr.String()), exitErr.ExitCode(), nil
		}
		return "", -1, err
	}
	return "", 0, nil
}

// limitedBuffer discards bytes beyond maxStderrBytes so a chatty
// subprocess cannot allocate unbounded memory.
type limitedBuffer struct {
	buf bytes.Buffer
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	remaining := maxStderrBytes - b.buf.Len()
	if remaining > 0 {
		n := len(p)
		if n > remaining {
			n = remaining
		}
		b.buf.Write(p[:n])
	}
	// Report all bytes written so the subprocess never stalls.
	return len(p), nil
}

func (b *limitedBuffer) String() string { return b.buf.String() }
