// ABOUTME: Tests for the playback engine state machine
// ABOUTME: Covers transitions, lazy re-init, volume clamping, and dispose
package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/voicewire/voicewire-go/pkg/audio"
	"github.com/voicewire/voicewire-go/pkg/audio/backend"
)

func newTestEngine() (*Engine, *backend.Fake) {
	fake := backend.NewFake()
	eng := New(fake, Config{})
	return eng, fake
}

func testBuffer(frames int) audio.Buffer {
	return audio.Buffer{Samples: make([]float32, frames), SampleRate: audio.DefaultSampleRate}
}

func waitCompletion(t *testing.T, eng *Engine) Completion {
	t.Helper()
	select {
	case c := <-eng.Completions():
		return c
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completion")
		return Completion{}
	}
}

func TestLifecycleTransitions(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Dispose()

	if eng.State() != StateUninitialized {
		t.Fatalf("expected uninitialized, got %v", eng.State())
	}

	if err := eng.Initialize(); err != nil {
		t.Fatalf("initialize failed: %v", err)
	}
	if eng.State() != StateConfigured {
		t.Fatalf("expected configured, got %v", eng.State())
	}

	if err := eng.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if !eng.IsPlaying() {
		t.Error("expected IsPlaying after start")
	}

	if err := eng.Pause(); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if eng.State() != StatePaused || eng.IsPlaying() {
		t.Errorf("expected paused, got %v", eng.State())
	}

	if err := eng.Resume(); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if eng.State() != StateRunning {
		t.Errorf("expected running, got %v", eng.State())
	}

	if err := eng.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if eng.State() != StateStopped || eng.IsPlaying() {
		t.Errorf("expected stopped, got %v", eng.State())
	}
}

func TestPlayLazilyStartsEngine(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Dispose()

	// Feeding an uninitialized engine must transparently bring it up.
	if err := eng.Play(testBuffer(100), "a"); err != nil {
		t.Fatalf("play on uninitialized engine failed: %v", err)
	}
	if eng.State() != StateRunning {
		t.Fatalf("expected running, got %v", eng.State())
	}
	waitCompletion(t, eng)
}

func TestPlayAfterStopRestarts(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Dispose()

	if err := eng.Play(testBuffer(100), "a"); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	waitCompletion(t, eng)

	if err := eng.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if err := eng.Play(testBuffer(100), "b"); err != nil {
		t.Fatalf("play after stop failed: %v", err)
	}
	if !eng.IsPlaying() {
		t.Error("expected engine running again after play")
	}
	if c := waitCompletion(t, eng); c.ChunkID != "b" {
		t.Errorf("expected completion for b, got %s", c.ChunkID)
	}
}

func TestPlayFailsWhenSessionUnavailable(t *testing.T) {
	fake := backend.NewFake()
	fake.FailOpen = errors.New("hardware session unavailable")
	eng := New(fake, Config{})
	defer eng.Dispose()

	if err := eng.Play(testBuffer(100), "a"); err == nil {
		t.Fatal("expected play to fail when the session cannot be acquired")
	}
	if got := eng.Stats(); got.ChunksPlayed != 0 {
		t.Errorf("counters changed on failed play: %+v", got)
	}
}

func TestSetVolumeClamps(t *testing.T) {
	eng, fake := newTestEngine()
	defer eng.Dispose()

	if err := eng.SetVolume(-0.5); err != nil {
		t.Fatalf("set volume failed: %v", err)
	}
	if eng.Volume() != 0.0 || fake.Gain() != 0.0 {
		t.Errorf("expected gain 0.0, got volume=%v gain=%v", eng.Volume(), fake.Gain())
	}

	if err := eng.SetVolume(1.5); err != nil {
		t.Fatalf("set volume failed: %v", err)
	}
	if eng.Volume() != 1.0 || fake.Gain() != 1.0 {
		t.Errorf("expected gain 1.0, got volume=%v gain=%v", eng.Volume(), fake.Gain())
	}

	if err := eng.SetVolume(0.25); err != nil {
		t.Fatalf("set volume failed: %v", err)
	}
	if fake.Gain() != 0.25 {
		t.Errorf("expected gain 0.25, got %v", fake.Gain())
	}
}

func TestPauseDefersCompletionUntilResume(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Dispose()

	if err := eng.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := eng.Pause(); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	// Enqueue directly so the lazy-start path does not resume the
	// transport: a paused graph retains the buffer and defers its
	// completion.
	if err := eng.queue.Enqueue(testBuffer(100), "a"); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	select {
	case c := <-eng.Completions():
		t.Fatalf("completion delivered while paused: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}

	if err := eng.Resume(); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if c := waitCompletion(t, eng); c.ChunkID != "a" {
		t.Errorf("expected completion for a, got %s", c.ChunkID)
	}
}

func TestPlayWhilePausedResumesTransport(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Dispose()

	if err := eng.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := eng.Pause(); err != nil {
		t.Fatalf("pause failed: %v", err)
	}

	// Feeding audio while suspended follows the lazy-start policy and
	// brings the transport back rather than rejecting the call.
	if err := eng.Play(testBuffer(100), "a"); err != nil {
		t.Fatalf("play while paused failed: %v", err)
	}
	if eng.State() != StateRunning {
		t.Errorf("expected running, got %v", eng.State())
	}
	waitCompletion(t, eng)
}

func TestDisposeInvalidatesEngine(t *testing.T) {
	eng, _ := newTestEngine()

	if err := eng.Play(testBuffer(100), "a"); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	waitCompletion(t, eng)
	before := eng.Stats()

	eng.Dispose()
	if eng.State() != StateDisposed {
		t.Fatalf("expected disposed, got %v", eng.State())
	}

	if err := eng.Play(testBuffer(100), "b"); !errors.Is(err, ErrDisposed) {
		t.Errorf("play after dispose: expected ErrDisposed, got %v", err)
	}
	if err := eng.SetVolume(0.5); !errors.Is(err, ErrDisposed) {
		t.Errorf("setVolume after dispose: expected ErrDisposed, got %v", err)
	}
	if err := eng.Pause(); !errors.Is(err, ErrDisposed) {
		t.Errorf("pause after dispose: expected ErrDisposed, got %v", err)
	}
	if err := eng.Stop(); !errors.Is(err, ErrDisposed) {
		t.Errorf("stop after dispose: expected ErrDisposed, got %v", err)
	}
	if err := eng.ConfigureSession(); !errors.Is(err, ErrDisposed) {
		t.Errorf("configureSession after dispose: expected ErrDisposed, got %v", err)
	}

	if after := eng.Stats(); after != before {
		t.Errorf("counters changed after dispose: %+v != %+v", after, before)
	}

	select {
	case c := <-eng.Completions():
		t.Errorf("unexpected completion after dispose: %+v", c)
	case <-time.After(50 * time.Millisecond):
	}

	// Double dispose is a no-op.
	eng.Dispose()
}

func TestIsPlayingReflectsTransportNotQueue(t *testing.T) {
	eng, _ := newTestEngine()
	defer eng.Dispose()

	if err := eng.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// Queue is empty, transport was never stopped: still playing.
	if !eng.IsPlaying() {
		t.Error("expected IsPlaying with empty queue while transport runs")
	}
}
