// ABOUTME: Maps control commands onto the engine and streaming controller
// ABOUTME: Validates arguments before any state change happens
package control

import (
	"errors"
	"fmt"

	"github.com/voicewire/voicewire-go/internal/engine"
	"github.com/voicewire/voicewire-go/internal/stream"
	"github.com/voicewire/voicewire-go/pkg/audio"
)

// Dispatcher executes control commands against one engine instance and
// its streaming controller.
type Dispatcher struct {
	engine     *engine.Engine
	controller *stream.Controller
}

// NewDispatcher creates a dispatcher for the given engine and controller.
func NewDispatcher(eng *engine.Engine, ctrl *stream.Controller) *Dispatcher {
	return &Dispatcher{engine: eng, controller: ctrl}
}

// Dispatch runs one command and builds its response. Argument validation
// happens before any state change, so a malformed request has no side
// effects.
func (d *Dispatcher) Dispatch(req Request) Response {
	resp := Response{ID: req.ID, Command: req.Command, OK: true}

	switch req.Command {
	case CmdInitialize:
		d.setResult(&resp, d.engine.Initialize())

	case CmdPlayChunk:
		if len(req.Bytes) == 0 {
			return d.invalidArgs(resp, "bytes payload required")
		}
		id, err := d.controller.PlayChunk(audio.Chunk{
			ID:         req.ChunkID,
			Data:       req.Bytes,
			SampleRate: req.SampleRate,
			Channels:   req.Channels,
		})
		d.setResult(&resp, err)
		resp.ChunkID = id

	case CmdStartStreaming:
		d.setResult(&resp, d.controller.StartStreaming(audio.Format{
			SampleRate: req.SampleRate,
			Channels:   req.Channels,
			BitDepth:   req.BitsPerSample,
		}))

	case CmdStreamChunk:
		if len(req.Bytes) == 0 {
			return d.invalidArgs(resp, "bytes payload required")
		}
		id, err := d.controller.FeedChunk(req.Bytes)
		d.setResult(&resp, err)
		resp.ChunkID = id

	case CmdEndStreaming:
		if d.engine.State() == engine.StateDisposed {
			d.setResult(&resp, engine.ErrDisposed)
			break
		}
		d.controller.EndStreaming()

	case CmdStop:
		d.setResult(&resp, d.engine.Stop())

	case CmdPause:
		d.setResult(&resp, d.engine.Pause())

	case CmdResume:
		d.setResult(&resp, d.engine.Resume())

	case CmdIsPlaying:
		if d.engine.State() == engine.StateDisposed {
			d.setResult(&resp, engine.ErrDisposed)
			break
		}
		playing := d.engine.IsPlaying()
		resp.Playing = &playing

	case CmdSetVolume:
		if req.Volume == nil {
			return d.invalidArgs(resp, "volume required")
		}
		d.setResult(&resp, d.engine.SetVolume(*req.Volume))

	case CmdConfigureSession:
		d.setResult(&resp, d.engine.ConfigureSession())

	case CmdDispose:
		d.engine.Dispose()

	default:
		return d.invalidArgs(resp, fmt.Sprintf("unknown command %q", req.Command))
	}

	return resp
}

func (d *Dispatcher) invalidArgs(resp Response, detail string) Response {
	resp.OK = false
	resp.ErrorKind = ErrKindInvalidArguments
	resp.Error = detail
	return resp
}

// setResult classifies err into the protocol's error taxonomy.
func (d *Dispatcher) setResult(resp *Response, err error) {
	if err == nil {
		return
	}

	resp.OK = false
	resp.Error = err.Error()
	switch {
	case errors.Is(err, engine.ErrDisposed):
		resp.ErrorKind = ErrKindInvalidState
	case errors.Is(err, audio.ErrOddPayload):
		resp.ErrorKind = ErrKindInvalidArguments
	case errors.Is(err, stream.ErrNotStreaming):
		resp.ErrorKind = ErrKindInvalidState
	default:
		resp.ErrorKind = ErrKindPlayback
	}
}
