// ABOUTME: PCM16 to normalized float sample conversion
// ABOUTME: Pure conversion between little-endian int16 and float32 audio
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrOddPayload reports a PCM16 payload whose length is not a multiple of
// the sample width. Such input is malformed and no buffer is produced.
var ErrOddPayload = errors.New("pcm16 payload length must be even")

// DecodePCM16 converts little-endian signed 16-bit samples to normalized
// float32 samples. Each sample s maps to s/32768, so output is always
// within [-1.0, 1.0) and the frame count equals len(data)/2.
func DecodePCM16(data []byte, sampleRate int) (Buffer, error) {
	if len(data)%BytesPerSample != 0 {
		return Buffer{}, fmt.Errorf("converting %d bytes: %w", len(data), ErrOddPayload)
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}

	samples := make([]float32, len(data)/BytesPerSample)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(data[i*BytesPerSample:]))
		samples[i] = float32(s) / 32768.0
	}

	return Buffer{Samples: samples, SampleRate: sampleRate}, nil
}

// EncodePCM16 quantizes normalized float32 samples back to little-endian
// signed 16-bit bytes, clamping anything outside [-1.0, 1.0].
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		v := int32(s * 32768.0)
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(int16(v)))
	}
	return out
}
