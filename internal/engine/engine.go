// ABOUTME: Playback engine state machine over an AudioBackend
// ABOUTME: Owns graph lifecycle, transport controls, and the buffer queue
package engine

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/voicewire/voicewire-go/pkg/audio"
	"github.com/voicewire/voicewire-go/pkg/audio/backend"
)

// ErrDisposed reports an operation on a disposed engine. No operation
// after disposal has side effects.
var ErrDisposed = errors.New("playback engine disposed")

// State is the playback engine lifecycle state.
type State int

const (
	// StateUninitialized means no graph has been constructed.
	StateUninitialized State = iota
	// StateConfigured means the graph is built but not started.
	StateConfigured
	// StateRunning means the graph is active and accepting buffers.
	StateRunning
	// StatePaused means the graph is suspended with its queue retained.
	StatePaused
	// StateStopped means the transport has been halted.
	StateStopped
	// StateDisposed is terminal; no further operations are valid.
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// Config holds the engine's processing format and session tuning.
type Config struct {
	Format  audio.Format
	Session SessionConfig
}

// Engine drives one audio graph through its lifecycle. Each Engine is an
// independent instance owning its backend handle; construct one per
// playback session and Dispose it when done.
type Engine struct {
	backend backend.Backend
	session *Session
	queue   *BufferQueue

	// stateMu serializes lifecycle transitions so concurrent callers
	// cannot race the graph into an inconsistent state.
	stateMu sync.Mutex
	state   State
	format  audio.Format
	volume  float64
}

// New creates an engine in the Uninitialized state.
func New(b backend.Backend, cfg Config) *Engine {
	if !cfg.Format.Valid() {
		cfg.Format = audio.DefaultFormat()
	}

	return &Engine{
		backend: b,
		session: NewSession(cfg.Session),
		queue:   NewBufferQueue(b),
		state:   StateUninitialized,
		format:  cfg.Format,
		volume:  1.0,
	}
}

// Initialize builds the graph topology (source stage, gain stage, device
// output) for the processing format. Idempotent once the graph exists.
func (e *Engine) Initialize() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.initializeLocked()
}

func (e *Engine) initializeLocked() error {
	switch e.state {
	case StateDisposed:
		return ErrDisposed
	case StateUninitialized, StateStopped:
	default:
		return nil
	}

	if err := e.session.Apply(e.backend, e.format); err != nil {
		return fmt.Errorf("initialize graph: %w", err)
	}
	e.backend.SetGain(e.volume)
	e.state = StateConfigured
	return nil
}

// Configure selects the processing format and ensures the graph exists.
// An already-open graph keeps its original format; the backend logs the
// mismatch.
func (e *Engine) Configure(format audio.Format) error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if e.state == StateDisposed {
		return ErrDisposed
	}
	if format.Valid() {
		e.format = format
	}
	return e.initializeLocked()
}

// Start activates the hardware session and begins the transport.
func (e *Engine) Start() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.startLocked()
}

func (e *Engine) startLocked() error {
	switch e.state {
	case StateDisposed:
		return ErrDisposed
	case StateRunning:
		return nil
	case StatePaused:
		e.backend.Resume()
		e.state = StateRunning
		return nil
	case StateUninitialized, StateStopped:
		if err := e.initializeLocked(); err != nil {
			return err
		}
	case StateConfigured:
		// The host environment may have deactivated the session since
		// configuration; reapply, non-fatally.
		if err := e.session.Apply(e.backend, e.format); err != nil {
			log.Printf("Session configuration failed, continuing: %v", err)
		}
	}

	if err := e.backend.Start(); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}
	e.state = StateRunning
	return nil
}

// Play schedules a converted buffer for gapless playback. If the graph
// is not running it is re-initialized and restarted rather than the call
// being rejected, so audio survives external interruptions.
func (e *Engine) Play(buf audio.Buffer, chunkID string) error {
	e.stateMu.Lock()
	if e.state == StateDisposed {
		e.stateMu.Unlock()
		return ErrDisposed
	}
	if e.state != StateRunning {
		if err := e.startLocked(); err != nil {
			e.stateMu.Unlock()
			return fmt.Errorf("engine not ready: %w", err)
		}
	}
	e.stateMu.Unlock()

	// Scheduling happens outside the state lock; Enqueue never blocks
	// waiting for playback.
	return e.queue.Enqueue(buf, chunkID)
}

// SetVolume clamps v to [0.0, 1.0] and applies it as the linear gain
// multiplier on the gain stage. Out-of-range input is clamped, never
// rejected.
func (e *Engine) SetVolume(v float64) error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if e.state == StateDisposed {
		return ErrDisposed
	}
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	e.volume = v
	e.backend.SetGain(v)
	return nil
}

// Volume returns the effective (clamped) gain.
func (e *Engine) Volume() float64 {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.volume
}

// Pause suspends rendering immediately. A buffer mid-render freezes in
// place; its completion is deferred until Resume.
func (e *Engine) Pause() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if e.state == StateDisposed {
		return ErrDisposed
	}
	if e.state != StateRunning {
		return nil
	}
	e.backend.Pause()
	e.state = StatePaused
	return nil
}

// Resume continues rendering from the suspended point.
func (e *Engine) Resume() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if e.state == StateDisposed {
		return ErrDisposed
	}
	if e.state != StatePaused {
		return nil
	}
	e.backend.Resume()
	e.state = StateRunning
	return nil
}

// Stop halts the transport. Buffers the hardware has not rendered are
// discarded and their completions never fire; samples the device itself
// already accepted may still sound briefly. Callers needing a drain use
// the streaming controller's EndStreaming instead.
func (e *Engine) Stop() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if e.state == StateDisposed {
		return ErrDisposed
	}
	if e.state != StateRunning && e.state != StatePaused {
		return nil
	}
	e.backend.Stop()
	e.state = StateStopped
	return nil
}

// ConfigureSession re-applies the hardware session configuration.
func (e *Engine) ConfigureSession() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if e.state == StateDisposed {
		return ErrDisposed
	}
	return e.session.Apply(e.backend, e.format)
}

// Dispose stops the transport and releases the graph. The engine is
// unusable afterwards: every operation returns ErrDisposed, counters
// stop changing, and no further completion fires.
func (e *Engine) Dispose() {
	e.stateMu.Lock()
	if e.state == StateDisposed {
		e.stateMu.Unlock()
		return
	}
	prev := e.state
	e.state = StateDisposed
	e.stateMu.Unlock()

	// Silence completion delivery before tearing the graph down so a
	// late render callback cannot observe the disposed engine.
	e.queue.dispose()

	if prev == StateRunning || prev == StatePaused {
		e.backend.Stop()
	}
	if err := e.backend.Close(); err != nil {
		log.Printf("Closing audio graph: %v", err)
	}
}

// IsPlaying reflects transport activity, not queue emptiness: it stays
// true while the transport runs even if no buffer is queued.
func (e *Engine) IsPlaying() bool {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state == StateRunning
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

// Format returns the processing format.
func (e *Engine) Format() audio.Format {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.format
}

// Completions delivers render-completion notifications in render order.
func (e *Engine) Completions() <-chan Completion {
	return e.queue.Completions()
}

// Stats returns a snapshot of the playback counters.
func (e *Engine) Stats() Stats {
	return e.queue.Stats()
}
