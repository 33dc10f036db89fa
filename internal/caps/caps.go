// Package caps probes the host for the native capabilities the playback
// engine depends on.
package caps

import "os/exec"

// Capabilities describes what the host can do.
type Capabilities struct {
	// Gstreamer reports whether the GStreamer runtime is installed. Playing
	// any composition with active media files requires it.
	Gstreamer bool
}

// Detect probes the host once at startup.
func Detect() Capabilities {
	_, err := exec.LookPath("gst-inspect-1.0")
	return Capabilities{Gstreamer: err == nil}
}
