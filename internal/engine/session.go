// ABOUTME: Hardware audio-session configuration for low-latency voice I/O
// ABOUTME: Requests a duplex speech session; failures are logged, non-fatal
package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/voicewire/voicewire-go/pkg/audio"
	"github.com/voicewire/voicewire-go/pkg/audio/backend"
)

// DefaultIOBufferDuration is the hardware I/O buffer the session asks
// for. The granted duration is hardware-dependent.
const DefaultIOBufferDuration = 5 * time.Millisecond

// SessionConfig describes the duplex hardware session the engine wants.
type SessionConfig struct {
	// IOBufferDuration is the requested hardware buffer; zero means
	// DefaultIOBufferDuration.
	IOBufferDuration time.Duration

	// PreferSpeaker routes output to the device speaker over the
	// receiver when both exist.
	PreferSpeaker bool

	// AllowMixing lets other audio sources keep playing concurrently.
	AllowMixing bool

	// AllowWireless permits wireless audio accessories on the route.
	AllowWireless bool
}

// DefaultSessionConfig is tuned for two-way voice conversation.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		IOBufferDuration: DefaultIOBufferDuration,
		PreferSpeaker:    true,
		AllowMixing:      true,
		AllowWireless:    true,
	}
}

// Session applies hardware session configuration to a backend. The host
// environment can deactivate the session at any time (backgrounding, a
// phone call), so Apply runs before every transport start.
type Session struct {
	mu      sync.Mutex
	config  SessionConfig
	applied bool
}

// NewSession creates a session configurator, filling config defaults.
func NewSession(cfg SessionConfig) *Session {
	if cfg.IOBufferDuration <= 0 {
		cfg.IOBufferDuration = DefaultIOBufferDuration
	}
	return &Session{config: cfg}
}

// Options translates the session request into backend open options.
func (s *Session) Options() backend.SessionOptions {
	s.mu.Lock()
	defer s.mu.Unlock()

	return backend.SessionOptions{
		BufferDuration: s.config.IOBufferDuration,
		PreferSpeaker:  s.config.PreferSpeaker,
		AllowMixing:    s.config.AllowMixing,
		AllowWireless:  s.config.AllowWireless,
	}
}

// Apply (re-)configures the hardware session by opening the backend
// graph with the session's options. Callers treat failures as non-fatal
// and proceed with whatever session state is currently active.
func (s *Session) Apply(b backend.Backend, format audio.Format) error {
	if err := b.Open(format, s.Options()); err != nil {
		return fmt.Errorf("configure audio session: %w", err)
	}

	s.mu.Lock()
	first := !s.applied
	s.applied = true
	cfg := s.config
	s.mu.Unlock()

	if first {
		log.Printf("Audio session configured: duplex voice, buffer %v, speaker=%v mixing=%v wireless=%v",
			cfg.IOBufferDuration, cfg.PreferSpeaker, cfg.AllowMixing, cfg.AllowWireless)
	}
	return nil
}

// Applied reports whether the session has been configured at least once.
func (s *Session) Applied() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}
