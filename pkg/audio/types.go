// ABOUTME: Core audio type definitions for the playback pipeline
// ABOUTME: Defines formats, raw chunks, and converted playback buffers
package audio

import "time"

const (
	// Defaults match the voice-synthesis service output: 24kHz mono PCM16.
	DefaultSampleRate = 24000
	DefaultChannels   = 1
	DefaultBitDepth   = 16

	// BytesPerSample is the width of one PCM16 sample on the wire.
	BytesPerSample = 2
)

// Format describes a PCM processing format.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// DefaultFormat returns the format the synthesis service produces.
func DefaultFormat() Format {
	return Format{
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		BitDepth:   DefaultBitDepth,
	}
}

// Valid reports whether the format is something the engine can process.
// Only 16-bit linear PCM is supported; input never arrives compressed.
func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0 && f.BitDepth == DefaultBitDepth
}

// Chunk is one raw audio unit received from the synthesis service.
// Chunks are immutable once received.
type Chunk struct {
	ID         string
	Data       []byte
	SampleRate int
	Channels   int
}

// Buffer holds one converted chunk as normalized float32 samples in
// [-1.0, 1.0], ready for the audio graph.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Frames returns the frame count. For mono audio one frame is one sample.
func (b Buffer) Frames() int {
	return len(b.Samples)
}

// Duration returns the render time of the buffer at its sample rate.
func (b Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(b.Samples)) * time.Second / time.Duration(b.SampleRate)
}
