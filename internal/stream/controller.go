// ABOUTME: Multi-chunk streaming session lifecycle on top of the engine
// ABOUTME: Converts and enqueues chunks for one logically continuous stream
package stream

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/voicewire/voicewire-go/internal/engine"
	"github.com/voicewire/voicewire-go/pkg/audio"
)

// ErrNotStreaming reports a chunk fed outside an active streaming
// session.
var ErrNotStreaming = errors.New("no streaming session active")

// Controller wraps a playback engine for a logically continuous
// multi-chunk session, the way synthesized speech arrives: one
// StartStreaming per utterance, any number of FeedChunk calls, one
// EndStreaming.
type Controller struct {
	engine *engine.Engine

	mu        sync.Mutex
	streaming bool
	format    audio.Format
}

// NewController creates a controller over the given engine.
func NewController(eng *engine.Engine) *Controller {
	return &Controller{engine: eng, format: audio.DefaultFormat()}
}

// StartStreaming ensures the engine is configured and running with the
// given processing format. Idempotent while a session is active.
func (c *Controller) StartStreaming(format audio.Format) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.streaming {
		return nil
	}
	if !format.Valid() {
		format = audio.DefaultFormat()
	}

	if err := c.engine.Configure(format); err != nil {
		return fmt.Errorf("start streaming: %w", err)
	}
	if err := c.engine.Start(); err != nil {
		return fmt.Errorf("start streaming: %w", err)
	}

	c.streaming = true
	c.format = format
	return nil
}

// FeedChunk converts one PCM16 chunk and enqueues it, returning the
// chunk's assigned ID. A single chunk's failure is reported to the
// caller without ending the session.
func (c *Controller) FeedChunk(data []byte) (string, error) {
	c.mu.Lock()
	if !c.streaming {
		c.mu.Unlock()
		return "", ErrNotStreaming
	}
	format := c.format
	c.mu.Unlock()

	buf, err := audio.DecodePCM16(data, format.SampleRate)
	if err != nil {
		return "", fmt.Errorf("feed chunk: %w", err)
	}

	id := uuid.New().String()
	if err := c.engine.Play(buf, id); err != nil {
		return "", fmt.Errorf("feed chunk %s: %w", id, err)
	}
	return id, nil
}

// PlayChunk plays a single chunk outside a streaming session. A missing
// chunk ID gets a generated one; the ID used is returned for completion
// correlation.
func (c *Controller) PlayChunk(chunk audio.Chunk) (string, error) {
	rate := chunk.SampleRate
	if rate <= 0 {
		rate = audio.DefaultSampleRate
	}

	buf, err := audio.DecodePCM16(chunk.Data, rate)
	if err != nil {
		return "", fmt.Errorf("play chunk: %w", err)
	}

	id := chunk.ID
	if id == "" {
		id = uuid.New().String()
	}
	if err := c.engine.Play(buf, id); err != nil {
		return "", fmt.Errorf("play chunk %s: %w", id, err)
	}
	return id, nil
}

// EndStreaming marks the logical session over. It does not stop
// playback: buffers already enqueued continue to render to completion.
func (c *Controller) EndStreaming() {
	c.mu.Lock()
	c.streaming = false
	c.mu.Unlock()
}

// Streaming reports whether a streaming session is active.
func (c *Controller) Streaming() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streaming
}
