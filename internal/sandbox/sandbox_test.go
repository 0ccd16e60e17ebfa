package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testDetector returns a Detector whose probes are controlled by the
// test: confined selects whether the marker file exists.
func testDetector(t *testing.T, confined bool) Detector {
	t.Helper()
	marker := filepath.Join(t.TempDir(), "flatpak-info")
	if confined {
		if err := os.WriteFile(marker, []byte("[Application]\n"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	return Detector{MarkerPath: marker, EnvVar: "CTLDASH_TEST_SANDBOX_UNSET"}
}

func TestDetectMarkerFile(t *testing.T) {
	if !testDetector(t, true).Detect() {
		t.Error("Detect() = false with marker file present")
	}
	if testDetector(t, false).Detect() {
		t.Error("Detect() = true with no marker and no env var")
	}
}

func TestDetectEnvVar(t *testing.T) {
	d := testDetector(t, false)
	t.Setenv(d.EnvVar, "com.example.App")
	if !d.Detect() {
		t.Error("Detect() = false with env var set")
	}
}

func TestWrapHostConfined(t *testing.T) {
	d := testDetector(t, true)
	got := d.WrapHost([]string{"pkexec", "systemctl", "enable", "foo.service"})
	want := []string{"flatpak-spawn", "--host", "pkexec", "systemctl", "enable", "foo.service"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("WrapHost mismatch (-want +got):\n%s", diff)
	}
}

func TestWrapHostUnconfined(t *testing.T) {
	d := testDetector(t, false)
	argv := []string{"journalctl", "-u", "foo.service"}
	got := d.WrapHost(argv)
	if diff := cmp.Diff(argv, got); diff != "" {
		t.Errorf("WrapHost should be identity when unconfined (-want +got):\n%s", diff)
	}
}
