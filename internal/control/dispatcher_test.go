// ABOUTME: Tests for the control dispatcher
// ABOUTME: Covers argument validation, error kinds, and command routing
package control

import (
	"testing"
	"time"

	"github.com/voicewire/voicewire-go/internal/engine"
	"github.com/voicewire/voicewire-go/internal/stream"
	"github.com/voicewire/voicewire-go/pkg/audio/backend"
)

func newTestDispatcher() (*Dispatcher, *engine.Engine) {
	eng := engine.New(backend.NewFake(), engine.Config{})
	return NewDispatcher(eng, stream.NewController(eng)), eng
}

func vol(v float64) *float64 { return &v }

func TestPlayChunkCommand(t *testing.T) {
	d, eng := newTestDispatcher()
	defer eng.Dispose()

	resp := d.Dispatch(Request{
		ID:         "1",
		Command:    CmdPlayChunk,
		Bytes:      make([]byte, 2000),
		SampleRate: 24000,
		Channels:   1,
	})
	if !resp.OK {
		t.Fatalf("playChunk failed: %s (%s)", resp.Error, resp.ErrorKind)
	}
	if resp.ID != "1" || resp.Command != CmdPlayChunk {
		t.Errorf("response not correlated: %+v", resp)
	}
	if resp.ChunkID == "" {
		t.Error("expected assigned chunk id in response")
	}

	select {
	case c := <-eng.Completions():
		if c.ChunkID != resp.ChunkID {
			t.Errorf("completion id mismatch: %s != %s", c.ChunkID, resp.ChunkID)
		}
	case <-time.After(time.Second):
		t.Fatal("chunk never completed")
	}
}

func TestMissingPayloadIsInvalidArguments(t *testing.T) {
	d, eng := newTestDispatcher()
	defer eng.Dispose()

	for _, cmd := range []string{CmdPlayChunk, CmdStreamChunk} {
		resp := d.Dispatch(Request{Command: cmd})
		if resp.OK {
			t.Errorf("%s without bytes should fail", cmd)
		}
		if resp.ErrorKind != ErrKindInvalidArguments {
			t.Errorf("%s: expected invalid_arguments, got %s", cmd, resp.ErrorKind)
		}
	}

	// Nothing was enqueued.
	if got := eng.Stats().ChunksPlayed; got != 0 {
		t.Errorf("malformed requests had side effects: %d chunks", got)
	}
}

func TestOddPayloadIsInvalidArguments(t *testing.T) {
	d, eng := newTestDispatcher()
	defer eng.Dispose()

	resp := d.Dispatch(Request{Command: CmdPlayChunk, Bytes: make([]byte, 3)})
	if resp.OK || resp.ErrorKind != ErrKindInvalidArguments {
		t.Errorf("expected invalid_arguments for odd payload, got %+v", resp)
	}
}

func TestSetVolumeCommand(t *testing.T) {
	d, eng := newTestDispatcher()
	defer eng.Dispose()

	if resp := d.Dispatch(Request{Command: CmdSetVolume}); resp.OK || resp.ErrorKind != ErrKindInvalidArguments {
		t.Errorf("setVolume without volume: %+v", resp)
	}

	if resp := d.Dispatch(Request{Command: CmdSetVolume, Volume: vol(1.5)}); !resp.OK {
		t.Errorf("setVolume(1.5) should clamp, not fail: %+v", resp)
	}
	if eng.Volume() != 1.0 {
		t.Errorf("expected clamped volume 1.0, got %v", eng.Volume())
	}
}

func TestStreamingCommandSequence(t *testing.T) {
	d, eng := newTestDispatcher()
	defer eng.Dispose()

	if resp := d.Dispatch(Request{Command: CmdStreamChunk, Bytes: make([]byte, 100)}); resp.OK {
		t.Error("streamChunk before startStreaming should fail")
	} else if resp.ErrorKind != ErrKindInvalidState {
		t.Errorf("expected invalid_state, got %s", resp.ErrorKind)
	}

	start := d.Dispatch(Request{
		Command:       CmdStartStreaming,
		SampleRate:    24000,
		Channels:      1,
		BitsPerSample: 16,
	})
	if !start.OK {
		t.Fatalf("startStreaming failed: %s", start.Error)
	}

	if resp := d.Dispatch(Request{Command: CmdStreamChunk, Bytes: make([]byte, 2000)}); !resp.OK {
		t.Fatalf("streamChunk failed: %s", resp.Error)
	}
	if resp := d.Dispatch(Request{Command: CmdEndStreaming}); !resp.OK {
		t.Fatalf("endStreaming failed: %s", resp.Error)
	}
}

func TestIsPlayingCommand(t *testing.T) {
	d, eng := newTestDispatcher()
	defer eng.Dispose()

	resp := d.Dispatch(Request{Command: CmdIsPlaying})
	if !resp.OK || resp.Playing == nil || *resp.Playing {
		t.Errorf("expected playing=false before start, got %+v", resp)
	}

	d.Dispatch(Request{Command: CmdInitialize})
	d.Dispatch(Request{Command: CmdPlayChunk, Bytes: make([]byte, 100)})

	resp = d.Dispatch(Request{Command: CmdIsPlaying})
	if resp.Playing == nil || !*resp.Playing {
		t.Errorf("expected playing=true after playChunk, got %+v", resp)
	}
}

func TestCommandsAfterDispose(t *testing.T) {
	d, _ := newTestDispatcher()

	if resp := d.Dispatch(Request{Command: CmdDispose}); !resp.OK {
		t.Fatalf("dispose failed: %+v", resp)
	}

	for _, req := range []Request{
		{Command: CmdInitialize},
		{Command: CmdPlayChunk, Bytes: make([]byte, 100)},
		{Command: CmdStartStreaming, SampleRate: 24000, Channels: 1, BitsPerSample: 16},
		{Command: CmdStreamChunk, Bytes: make([]byte, 100)},
		{Command: CmdEndStreaming},
		{Command: CmdStop},
		{Command: CmdPause},
		{Command: CmdResume},
		{Command: CmdIsPlaying},
		{Command: CmdSetVolume, Volume: vol(0.5)},
		{Command: CmdConfigureSession},
	} {
		resp := d.Dispatch(req)
		if resp.OK {
			t.Errorf("%s after dispose should fail", req.Command)
		}
		if resp.ErrorKind != ErrKindInvalidState {
			t.Errorf("%s after dispose: expected invalid_state, got %s", req.Command, resp.ErrorKind)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	d, eng := newTestDispatcher()
	defer eng.Dispose()

	resp := d.Dispatch(Request{Command: "reboot"})
	if resp.OK || resp.ErrorKind != ErrKindInvalidArguments {
		t.Errorf("expected invalid_arguments for unknown command, got %+v", resp)
	}
}
