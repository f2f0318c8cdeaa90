// ABOUTME: In-memory AudioBackend for tests and hardware-free development
// ABOUTME: Delivers completions on its own goroutine in strict FIFO order
package backend

import (
	"errors"
	"sync"

	"github.com/voicewire/voicewire-go/pkg/audio"
)

// Fake is a Backend with no hardware behind it. Scheduled buffers
// complete instantly (in order) while the transport runs, and delivery
// stalls while it is paused or stopped, which mirrors how a real graph
// defers completions. Failure injection fields must be set before the
// backend is shared between goroutines.
type Fake struct {
	// FailOpen, FailStart, and FailSchedule, when set, are returned by
	// the corresponding methods.
	FailOpen     error
	FailStart    error
	FailSchedule error

	mu   sync.Mutex
	cond *sync.Cond

	format  audio.Format
	opts    SessionOptions
	gain    float64
	open    bool
	running bool
	paused  bool
	closed  bool

	queue     []scheduled
	scheduled int
	opens     int
	starts    int
	stops     int
}

// NewFake creates a fake backend and starts its delivery goroutine.
func NewFake() *Fake {
	f := &Fake{gain: 1.0}
	f.cond = sync.NewCond(&f.mu)
	go f.deliver()
	return f
}

func (f *Fake) deliver() {
	for {
		f.mu.Lock()
		for !f.closed && (len(f.queue) == 0 || !f.running || f.paused) {
			f.cond.Wait()
		}
		if f.closed {
			f.mu.Unlock()
			return
		}
		item := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()

		item.done()
	}
}

func (f *Fake) Open(format audio.Format, opts SessionOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailOpen != nil {
		return f.FailOpen
	}
	if f.closed {
		return errors.New("fake backend closed")
	}
	f.format = format
	f.opts = opts
	f.open = true
	f.opens++
	return nil
}

func (f *Fake) Schedule(buf audio.Buffer, done func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailSchedule != nil {
		return f.FailSchedule
	}
	if !f.open {
		return errors.New("fake backend not open")
	}
	f.queue = append(f.queue, scheduled{data: audio.EncodePCM16(buf.Samples), done: done})
	f.scheduled++
	f.cond.Broadcast()
	return nil
}

func (f *Fake) SetGain(gain float64) {
	if gain < 0 {
		gain = 0
	} else if gain > 1 {
		gain = 1
	}

	f.mu.Lock()
	f.gain = gain
	f.mu.Unlock()
}

func (f *Fake) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailStart != nil {
		return f.FailStart
	}
	if !f.open {
		return errors.New("fake backend not open")
	}
	f.running = true
	f.paused = false
	f.starts++
	f.cond.Broadcast()
	return nil
}

func (f *Fake) Pause() {
	f.mu.Lock()
	f.paused = true
	f.mu.Unlock()
}

func (f *Fake) Resume() {
	f.mu.Lock()
	f.paused = false
	f.cond.Broadcast()
	f.mu.Unlock()
}

// Stop halts the transport and discards queued buffers; their completions
// never fire.
func (f *Fake) Stop() {
	f.mu.Lock()
	f.running = false
	f.paused = false
	f.queue = nil
	f.stops++
	f.cond.Broadcast()
	f.mu.Unlock()
}

func (f *Fake) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running && !f.paused
}

func (f *Fake) Close() error {
	f.mu.Lock()
	f.closed = true
	f.open = false
	f.running = false
	f.queue = nil
	f.cond.Broadcast()
	f.mu.Unlock()
	return nil
}

// Gain returns the last applied gain value.
func (f *Fake) Gain() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gain
}

// LastFormat returns the format from the most recent Open.
func (f *Fake) LastFormat() audio.Format {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.format
}

// LastOptions returns the session options from the most recent Open.
func (f *Fake) LastOptions() SessionOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts
}

// ScheduledCount returns how many buffers were accepted for rendering.
func (f *Fake) ScheduledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scheduled
}

// OpenCount returns how many times Open succeeded.
func (f *Fake) OpenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}
