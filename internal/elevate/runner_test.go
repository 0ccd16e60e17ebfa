package elevate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ctldash/ctldash/internal/bus"
	"github.com/ctldash/ctldash/internal/sandbox"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRunner(euid int) *Runner {
	r := NewRunner(discardLogger())
	r.euid = func() int { return euid }
	// Pin the confinement probes so host state cannot leak into tests.
	r.detector = sandbox.Detector{
		MarkerPath: "/nonexistent/ctldash-test-marker",
		EnvVar:     "CTLDASH_TEST_CONFINED_UNSET",
	}
	return r
}

func TestArgvComposition(t *testing.T) {
	tests := []struct {
		name     string
		scope    bus.Scope
		euid     int
		confined bool
		want     []string
	}{
		{
			name:  "system scope unprivileged",
			scope: bus.ScopeSystem, euid: 1000,
			want: []string{"pkexec", "systemctl", "enable", "foo.service"},
		},
		{
			name:  "system scope already root",
			scope: bus.ScopeSystem, euid: 0,
			want: []string{"systemctl", "enable", "foo.service"},
		},
		{
			name:  "user scope needs no elevation",
			scope: bus.ScopeUser, euid: 1000,
			want: []string{"systemctl", "--user", "enable", "foo.service"},
		},
		{
			name:  "confined system scope gets three stages",
			scope: bus.ScopeSystem, euid: 1000, confined: true,
			want: []string{"flatpak-spawn", "--host", "pkexec", "systemctl", "enable", "foo.service"},
		},
		{
			name:  "confined user scope",
			scope: bus.ScopeUser, euid: 1000, confined: true,
			want: []string{"flatpak-spawn", "--host", "systemctl", "--user", "enable", "foo.service"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := testRunner(tt.euid)
			got := r.argv(tt.scope, ActionEnable, "foo.service", tt.confined)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("argv mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunSuccess(t *testing.T) {
	r := testRunner(1000)
	r.execute = func(_ context.Context, _ []string) (string, int, error) {
		return "", 0, nil
	}
	if err := r.Run(context.Background(), bus.ScopeSystem, ActionEnable, "foo.service"); err != nil {
		t.Errorf("Run returned error: %v", err)
	}
}

func TestRunCommandFailed(t *testing.T) {
	r := testRunner(1000)
	r.execute = func(_ context.Context, _ []string) (string, int, error) {
		return "not authorized", 1, nil
	}

	err := r.Run(context.Background(), bus.ScopeSystem, ActionDisable, "foo.service")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Run error = %v, want *CommandError", err)
	}
	if cmdErr.Stderr != "not authorized" {
		t.Errorf("Stderr = %q, want %q", cmdErr.Stderr, "not authorized")
	}
	if cmdErr.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", cmdErr.ExitCode)
	}
}

func TestRunSpawnFailure(t *testing.T) {
	r := testRunner(1000)
	spawnErr := errors.New("no such file or directory")
	r.execute = func(_ context.Context, _ []string) (string, int, error) {
		return "", 0, spawnErr
	}

	err := r.Run(context.Background(), bus.ScopeSystem, ActionEnable, "foo.service")
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Run error = %v, want *CommandError", err)
	}
	if cmdErr.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1 for spawn failure", cmdErr.ExitCode)
	}
	if !errors.Is(err, spawnErr) {
		t.Error("spawn error not wrapped")
	}
}

// mockToggler records bus-side enablement calls.
type mockToggler struct {
	enabled  []string
	disabled []string
	err      error
}

func (m *mockToggler) EnableUnitFiles(_ context.Context, names []string) error {
	m.enabled = append(m.enabled, names...)
	return m.err
}

func (m *mockToggler) DisableUnitFiles(_ context.Context, names []string) error {
	m.disabled = append(m.disabled, names...)
	return m.err
}

func TestRunFallbackWhenSystemctlMissing(t *testing.T) {
	r := testRunner(1000)
	r.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	r.execute = func(_ context.Context, _ []string) (string, int, error) {
		t.Fatal("execute called despite missing systemctl and available fallback")
		return "", 0, nil
	}

	toggler := &mockToggler{}
	r.SetFallback(toggler)

	if err := r.Run(context.Background(), bus.ScopeUser, ActionDisable, "foo.service"); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if diff := cmp.Diff([]string{"foo.service"}, toggler.disabled); diff != "" {
		t.Errorf("fallback disable mismatch (-want +got):\n%s", diff)
	}
}

func TestLimitedBufferBounds(t *testing.T) {
	var b limitedBuffer
	chunk := make([]byte, 32*1024)
	for i := 0; i < 4; i++ {
		n, err := b.Write(chunk)
		if err != nil || n != len(chunk) {
			t.Fatalf("Write = (%d, %v), want (%d, nil)", n, err, len(chunk))
		}
	}
	if got := len(b.String()); got != maxStderrBytes {
		t.Errorf("buffer holds %d bytes, want %d", got, maxStderrBytes)
	}
}
