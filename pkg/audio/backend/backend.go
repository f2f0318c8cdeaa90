// ABOUTME: AudioBackend capability interface for hardware audio graphs
// ABOUTME: Keeps conversion, queueing, and state logic platform-independent
package backend

import (
	"time"

	"github.com/voicewire/voicewire-go/pkg/audio"
)

// SessionOptions describes the hardware session a backend should request
// when opening its graph. Granted values are hardware-dependent; every
// field is a request, not a guarantee.
type SessionOptions struct {
	// BufferDuration is the requested hardware I/O buffer. Smaller means
	// lower round-trip latency.
	BufferDuration time.Duration

	// PreferSpeaker routes output to the device speaker when the device
	// has more than one output route.
	PreferSpeaker bool

	// AllowMixing lets other audio sources keep playing concurrently.
	AllowMixing bool

	// AllowWireless permits wireless audio accessories on the route.
	AllowWireless bool
}

// Backend abstracts a platform audio graph: source stage feeding a gain
// stage feeding the device output. Implementations own the real-time
// rendering context; callers never run on it.
type Backend interface {
	// Open builds the graph for the given processing format. Opening an
	// already-open graph with the same format is a no-op.
	Open(format audio.Format, opts SessionOptions) error

	// Schedule hands a buffer to the graph for rendering immediately
	// after all previously scheduled buffers, with no timing gap. done
	// runs exactly once, on the backend's delivery goroutine, after the
	// buffer has rendered. Schedule returns without waiting for playback.
	Schedule(buf audio.Buffer, done func()) error

	// SetGain applies a linear gain multiplier. Values outside [0, 1]
	// are clamped.
	SetGain(gain float64)

	// Start activates the transport. Pause suspends rendering in place,
	// Resume continues from the suspended point, and Stop halts the
	// transport and discards buffers the hardware has not rendered.
	Start() error
	Pause()
	Resume()
	Stop()

	// Running reports whether the transport is active.
	Running() bool

	// Close releases the graph. The backend is unusable afterwards.
	Close() error
}

// scheduled pairs one buffer's rendered bytes with its completion.
type scheduled struct {
	data []byte
	done func()
}
