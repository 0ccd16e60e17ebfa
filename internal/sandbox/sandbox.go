// Package sandbox detects whether the process runs inside an isolated
// execution environment and rewrites host command lines accordingly.
package sandbox

import "os"

// DefaultMarkerPath is the marker file present inside a Flatpak sandbox.
const DefaultMarkerPath = "/.flatpak-info"

// DefaultEnvVar is the environment variable set inside a Flatpak sandbox.
const DefaultEnvVar = "FLATPAK_ID"

// hostSpawnPrefix escapes the sandbox boundary and runs the remainder
// of the command line on the host.
var hostSpawnPrefix = []string{"flatpak-spawn", "--host"}

// Detector probes for a confined execution environment. The zero value
// uses the real marker path and environment variable; tests can point
// the probes elsewhere.
type Detector struct {
	MarkerPath string
	EnvVar     string
}

// Detect reports whether the process is confined. It reads the
// environment fresh on every call; the result is intentionally never
// cached across calls.
func (d Detector) Detect() bool {
	marker := d.MarkerPath
	if marker == "" {
		marker = DefaultMarkerPath
	}
	envVar := d.EnvVar
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	if os.Getenv(envVar) != "" {
		return true
	}
	_, err := os.Stat(marker)
	return err == nil
}

// WrapHost returns argv prefixed with the sandbox escape when the
// process is confined, and argv unchanged otherwise.
func (d Detector) WrapHost(argv []string) []string {
	if !d.Detect() {
		return argv
	}
	return HostPrefix(argv)
}

// HostPrefix unconditionally prefixes argv with the sandbox escape.
// Callers that have already probed confinement use this directly.
func HostPrefix(argv []string) []string {
	wrapped := make([]string, 0, len(hostSpawnPrefix)+len(argv))
	wrapped = append(wrapped, hostSpawnPrefix...)
	return append(wrapped, argv...)
}
