// ABOUTME: Test tone feeder for end-to-end playback verification
// ABOUTME: Streams a generated sine tone through the playback engine
package main

import (
	"flag"
	"log"
	"math"
	"time"

	"github.com/voicewire/voicewire-go/internal/engine"
	"github.com/voicewire/voicewire-go/internal/stream"
	"github.com/voicewire/voicewire-go/pkg/audio"
	"github.com/voicewire/voicewire-go/pkg/audio/backend"
)

var (
	frequency = flag.Float64("freq", 440.0, "Tone frequency in Hz")
	amplitude = flag.Float64("amp", 0.5, "Tone amplitude (0-1)")
	duration  = flag.Duration("duration", 2*time.Second, "Playback duration")
	volume    = flag.Float64("volume", 1.0, "Playback volume (0-1)")
	useFake   = flag.Bool("fake", false, "Use the fake backend (no hardware)")
)

const chunkMs = 20

func main() {
	flag.Parse()

	var b backend.Backend
	if *useFake {
		b = backend.NewFake()
	} else {
		b = backend.NewOto()
	}

	eng := engine.New(b, engine.Config{Session: engine.DefaultSessionConfig()})
	defer eng.Dispose()

	if err := eng.SetVolume(*volume); err != nil {
		log.Fatalf("set volume: %v", err)
	}

	ctrl := stream.NewController(eng)
	if err := ctrl.StartStreaming(audio.DefaultFormat()); err != nil {
		log.Fatalf("start streaming: %v", err)
	}

	freq := *frequency
	amp := *amplitude
	chunkSamples := audio.DefaultSampleRate * chunkMs / 1000
	chunks := int(*duration / (chunkMs * time.Millisecond))

	var sampleIndex int
	fed := 0
	for i := 0; i < chunks; i++ {
		samples := make([]float32, chunkSamples)
		for j := range samples {
			samples[j] = float32(amp * math.Sin(2*math.Pi*freq*float64(sampleIndex)/audio.DefaultSampleRate))
			sampleIndex++
		}

		if _, err := ctrl.FeedChunk(audio.EncodePCM16(samples)); err != nil {
			log.Printf("feed chunk %d: %v", i, err)
			continue
		}
		fed++
	}
	ctrl.EndStreaming()

	// Wait for every fed chunk to finish rendering.
	completed := 0
	timeout := time.After(*duration + 2*time.Second)
	for completed < fed {
		select {
		case <-eng.Completions():
			completed++
		case <-timeout:
			log.Printf("Timed out: %d of %d chunks completed", completed, fed)
			return
		}
	}

	stats := eng.Stats()
	log.Printf("Done: %d chunks, %d bytes played", stats.ChunksPlayed, stats.BytesPlayed)
}
