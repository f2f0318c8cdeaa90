// ABOUTME: Audio fundamentals package providing core types and conversion
// ABOUTME: Defines Format, Chunk, Buffer and PCM16 float conversion
// Package audio provides the fundamental types for low-latency speech playback.
//
// This package defines the types shared across the playback pipeline:
//   - Format: a PCM processing format (sample rate, channels, bit depth)
//   - Chunk: one raw PCM16 unit received from the synthesis service
//   - Buffer: a converted chunk as normalized float32 samples
//
// It also provides the pure conversion between wire format and playable
// samples:
//
//	buf, err := audio.DecodePCM16(chunkBytes, audio.DefaultSampleRate)
//
// Conversion is the only processing performed here; there is no
// resampling, dithering, or effects beyond what the graph applies.
package audio
