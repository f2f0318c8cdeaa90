// ABOUTME: FIFO buffer queue between chunk producers and the audio graph
// ABOUTME: Tracks playback counters and delivers completion notifications
package engine

import (
	"fmt"
	"sync"

	"github.com/voicewire/voicewire-go/pkg/audio"
	"github.com/voicewire/voicewire-go/pkg/audio/backend"
)

// Completion reports that one buffer finished rendering.
type Completion struct {
	ChunkID string
	Frames  int
}

// Stats are engine-lifetime playback counters, kept for diagnostics.
type Stats struct {
	ChunksPlayed int64
	BytesPlayed  int64
}

// BufferQueue coordinates handoff of converted buffers to the audio
// graph. Buffers render in exact enqueue order; the queue's lock covers
// bookkeeping only, never the scheduling call or completion delivery.
type BufferQueue struct {
	backend backend.Backend

	mu       sync.Mutex
	stats    Stats
	disposed bool

	completions chan Completion
	done        chan struct{}
}

// completionDepth buffers undelivered notifications. A consumer slower
// than this backpressures the backend's delivery goroutine; it never
// stalls scheduling or rendering.
const completionDepth = 64

// NewBufferQueue creates a queue scheduling onto the given backend.
func NewBufferQueue(b backend.Backend) *BufferQueue {
	return &BufferQueue{
		backend:     b,
		completions: make(chan Completion, completionDepth),
		done:        make(chan struct{}),
	}
}

// Enqueue schedules buf immediately after all previously enqueued
// buffers and returns without waiting for playback. The completion for
// chunkID is delivered on Completions after the buffer has rendered,
// exactly once.
func (q *BufferQueue) Enqueue(buf audio.Buffer, chunkID string) error {
	frames := buf.Frames()
	bytes := int64(frames * audio.BytesPerSample)

	q.mu.Lock()
	if q.disposed {
		q.mu.Unlock()
		return ErrDisposed
	}
	q.stats.ChunksPlayed++
	q.stats.BytesPlayed += bytes
	q.mu.Unlock()

	err := q.backend.Schedule(buf, func() {
		q.mu.Lock()
		disposed := q.disposed
		q.mu.Unlock()
		if disposed {
			return
		}

		// Delivery runs on the backend's delivery goroutine, never the
		// render path, so blocking here keeps exactly-once delivery for
		// slow consumers. Dispose unblocks it.
		select {
		case q.completions <- Completion{ChunkID: chunkID, Frames: frames}:
		case <-q.done:
		}
	})
	if err != nil {
		q.mu.Lock()
		q.stats.ChunksPlayed--
		q.stats.BytesPlayed -= bytes
		q.mu.Unlock()
		return fmt.Errorf("schedule chunk %s: %w", chunkID, err)
	}

	return nil
}

// Completions delivers one notification per rendered buffer, in render
// order. The channel stays open for the queue's lifetime.
func (q *BufferQueue) Completions() <-chan Completion {
	return q.completions
}

// Stats returns a snapshot of the playback counters.
func (q *BufferQueue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// dispose stops all further bookkeeping and completion delivery, and
// releases any delivery goroutine blocked on a full channel.
func (q *BufferQueue) dispose() {
	q.mu.Lock()
	if !q.disposed {
		q.disposed = true
		close(q.done)
	}
	q.mu.Unlock()
}
