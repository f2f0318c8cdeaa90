// ABOUTME: Host-boundary command and response types
// ABOUTME: JSON framing for the playback control protocol
package control

// Command names recognized by the dispatcher.
const (
	CmdInitialize       = "initialize"
	CmdPlayChunk        = "playChunk"
	CmdStartStreaming   = "startStreaming"
	CmdStreamChunk      = "streamChunk"
	CmdEndStreaming     = "endStreaming"
	CmdStop             = "stop"
	CmdPause            = "pause"
	CmdResume           = "resume"
	CmdIsPlaying        = "isPlaying"
	CmdSetVolume        = "setVolume"
	CmdConfigureSession = "configureSession"
	CmdDispose          = "dispose"
)

// Error kinds let the host distinguish malformed requests from runtime
// playback failures and use-after-dispose.
const (
	ErrKindInvalidArguments = "invalid_arguments"
	ErrKindInvalidState     = "invalid_state"
	ErrKindPlayback         = "playback_failed"
)

// Request is one command frame from the host application. Bytes carries
// raw PCM16 audio, base64-encoded on the wire by encoding/json.
type Request struct {
	ID      string `json:"id,omitempty"`
	Command string `json:"command"`

	Bytes         []byte   `json:"bytes,omitempty"`
	SampleRate    int      `json:"sample_rate,omitempty"`
	Channels      int      `json:"channels,omitempty"`
	BitsPerSample int      `json:"bits_per_sample,omitempty"`
	ChunkID       string   `json:"chunk_id,omitempty"`
	Volume        *float64 `json:"volume,omitempty"`
}

// Response answers one Request. OK reports command success; on failure
// ErrorKind classifies it and Error carries the detail.
type Response struct {
	ID      string `json:"id,omitempty"`
	Command string `json:"command"`
	OK      bool   `json:"ok"`

	Playing   *bool  `json:"playing,omitempty"`
	ChunkID   string `json:"chunk_id,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Event types pushed to the host without a request.
const (
	EventChunkComplete = "chunk_complete"
)

// Event is an unsolicited frame: render completions and similar
// notifications.
type Event struct {
	Type    string `json:"type"`
	ChunkID string `json:"chunk_id,omitempty"`
	Frames  int    `json:"frames,omitempty"`
}
