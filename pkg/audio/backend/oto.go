// ABOUTME: Oto-based AudioBackend implementation
// ABOUTME: Renders scheduled buffers through a persistent pipe-fed player
package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/voicewire/voicewire-go/pkg/audio"
)

// ErrQueueFull reports that the schedule queue cannot accept more buffers
// without blocking the caller.
var ErrQueueFull = errors.New("schedule queue full")

// maxPending bounds buffers waiting for the render loop. At 20ms per
// chunk this is several seconds of speech, far beyond normal arrival skew.
const maxPending = 256

// Oto is the production Backend backed by the oto audio library. A single
// persistent player reads from a pipe; one render goroutine feeds it
// scheduled buffers in FIFO order, which keeps playback gapless.
type Oto struct {
	mu      sync.Mutex
	otoCtx  *oto.Context
	player  *oto.Player
	pipeR   *io.PipeReader
	pipeW   *io.PipeWriter
	format  audio.Format
	gain    float64
	ready   bool
	started bool

	pending   chan scheduled
	delivered chan written
	ctx       context.Context
	cancel    context.CancelFunc
}

// written pairs a completion with the render tail the player still held
// when it accepted the buffer.
type written struct {
	done     func()
	residual time.Duration
}

// NewOto creates an unopened oto backend.
func NewOto() *Oto {
	ctx, cancel := context.WithCancel(context.Background())

	return &Oto{
		gain:      1.0,
		pending:   make(chan scheduled, maxPending),
		delivered: make(chan written, maxPending),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Open builds the oto context and the persistent player. oto allows only
// one context per process, so a format change after the first Open keeps
// the existing graph and logs the mismatch.
func (o *Oto) Open(format audio.Format, opts SessionOptions) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !format.Valid() {
		return fmt.Errorf("unsupported processing format: %+v", format)
	}

	if o.otoCtx != nil {
		if o.format != format {
			log.Printf("Warning: format change (%dHz %dch -> %dHz %dch) not supported by oto, keeping existing graph",
				o.format.SampleRate, o.format.Channels, format.SampleRate, format.Channels)
		}
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   opts.BufferDuration,
	}

	otoCtx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = otoCtx
	o.pipeR, o.pipeW = io.Pipe()
	o.player = otoCtx.NewPlayer(o.pipeR)
	o.player.SetVolume(o.gain)
	o.format = format
	o.ready = true

	go o.renderLoop(o.pipeW)
	go o.deliverLoop()

	log.Printf("Audio graph open: %dHz, %d channels, requested buffer %v (speaker=%v mixing=%v wireless=%v)",
		format.SampleRate, format.Channels, opts.BufferDuration,
		opts.PreferSpeaker, opts.AllowMixing, opts.AllowWireless)

	return nil
}

// renderLoop feeds scheduled buffers to the player pipe in FIFO order.
// The pipe write paces against the player's consumption; the write
// returning means the player accepted the bytes, not that they have
// rendered, so completion is handed to deliverLoop with the render tail
// still outstanding. The loop moves straight to the next buffer, which
// keeps playback gapless.
func (o *Oto) renderLoop(pipeW *io.PipeWriter) {
	for {
		select {
		case <-o.ctx.Done():
			return
		case item := <-o.pending:
			if _, err := pipeW.Write(item.data); err != nil {
				log.Printf("Render write failed: %v", err)
				return
			}
			w := written{done: item.done, residual: o.residualDuration()}
			select {
			case <-o.ctx.Done():
				return
			case o.delivered <- w:
			}
		}
	}
}

// deliverLoop fires completions in accept order, after waiting out the
// audio still buffered in the player when each buffer was accepted.
func (o *Oto) deliverLoop() {
	for {
		select {
		case <-o.ctx.Done():
			return
		case w := <-o.delivered:
			if w.residual > 0 {
				t := time.NewTimer(w.residual)
				select {
				case <-o.ctx.Done():
					t.Stop()
					return
				case <-t.C:
				}
			}
			w.done()
		}
	}
}

// residualDuration estimates how much accepted audio the player has yet
// to render.
func (o *Oto) residualDuration() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return 0
	}
	return bufferedDuration(o.player.BufferedSize(), o.format)
}

// bufferedDuration converts a byte count of queued PCM16 audio into its
// render time for the given format.
func bufferedDuration(bytes int, format audio.Format) time.Duration {
	if bytes <= 0 || format.SampleRate <= 0 || format.Channels <= 0 {
		return 0
	}
	frames := bytes / (audio.BytesPerSample * format.Channels)
	return time.Duration(frames) * time.Second / time.Duration(format.SampleRate)
}

// Schedule converts the buffer to PCM16 and queues it for the render
// loop. It never blocks waiting for playback.
func (o *Oto) Schedule(buf audio.Buffer, done func()) error {
	o.mu.Lock()
	ready := o.ready
	o.mu.Unlock()

	if !ready {
		return fmt.Errorf("audio graph not open")
	}
	if o.ctx.Err() != nil {
		return fmt.Errorf("audio graph closed")
	}

	item := scheduled{data: audio.EncodePCM16(buf.Samples), done: done}

	select {
	case o.pending <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// SetGain applies a linear gain multiplier on the player's gain stage.
func (o *Oto) SetGain(gain float64) {
	if gain < 0 {
		gain = 0
	} else if gain > 1 {
		gain = 1
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.gain = gain
	if o.player != nil {
		o.player.SetVolume(gain)
	}
}

// Start activates the transport.
func (o *Oto) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		return fmt.Errorf("audio graph not open")
	}
	o.player.Play()
	o.started = true
	return nil
}

// Pause suspends rendering in place. A buffer mid-render freezes and
// resumes from the same point.
func (o *Oto) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		o.player.Pause()
	}
}

// Resume continues rendering from the suspended point.
func (o *Oto) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil && o.started {
		o.player.Play()
	}
}

// Stop halts the transport and discards audio the hardware has not
// rendered: the player's internal buffer is reset and buffers still in
// the schedule queue are dropped without completion.
func (o *Oto) Stop() {
	o.mu.Lock()
	if o.player != nil {
		o.player.Pause()
		o.player.Reset()
	}
	o.started = false
	o.mu.Unlock()

	for {
		select {
		case <-o.pending:
		case <-o.delivered:
		default:
			return
		}
	}
}

// Running reports whether the transport is actively rendering.
func (o *Oto) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.player != nil && o.player.IsPlaying()
}

// Close releases the graph. The oto context itself cannot be destroyed,
// only suspended.
func (o *Oto) Close() error {
	o.cancel()

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pipeW != nil {
		o.pipeW.Close()
		o.pipeW = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeR != nil {
		o.pipeR.Close()
		o.pipeR = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Suspending oto context: %v", err)
		}
	}
	o.ready = false
	o.started = false

	return nil
}
