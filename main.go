// ABOUTME: Entry point for the Voicewire playback service
// ABOUTME: Parses CLI flags and runs the control server
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voicewire/voicewire-go/internal/discovery"
	"github.com/voicewire/voicewire-go/internal/engine"
	"github.com/voicewire/voicewire-go/internal/server"
	"github.com/voicewire/voicewire-go/internal/version"
	"github.com/voicewire/voicewire-go/pkg/audio"
)

var (
	listenAddr  = flag.String("listen", ":8927", "Control server listen address")
	name        = flag.String("name", "", "Service name for mDNS (default: hostname-voicewire)")
	mdnsPort    = flag.Int("mdns-port", 8927, "Port advertised via mDNS")
	sampleRate  = flag.Int("sample-rate", audio.DefaultSampleRate, "Default processing sample rate")
	bufferUs    = flag.Int("io-buffer-us", 5000, "Requested hardware I/O buffer in microseconds")
	logFile     = flag.String("log-file", "", "Log file path (default: stderr only)")
	noMDNS      = flag.Bool("no-mdns", false, "Disable mDNS advertisement")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer func() { _ = f.Close() }()
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	serviceName := *name
	if serviceName == "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		serviceName = fmt.Sprintf("%s-voicewire", hostname)
	}

	log.Printf("Starting %s %s: %s", version.Product, version.Version, serviceName)

	srv := server.New(server.Config{
		ListenAddr: *listenAddr,
		Engine: engine.Config{
			Format: audio.Format{
				SampleRate: *sampleRate,
				Channels:   audio.DefaultChannels,
				BitDepth:   audio.DefaultBitDepth,
			},
			Session: engine.SessionConfig{
				IOBufferDuration: time.Duration(*bufferUs) * time.Microsecond,
				PreferSpeaker:    true,
				AllowMixing:      true,
				AllowWireless:    true,
			},
		},
	})

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start control server: %v", err)
	}

	var disc *discovery.Manager
	if !*noMDNS {
		disc = discovery.NewManager(discovery.Config{
			ServiceName: serviceName,
			Port:        *mdnsPort,
		})
		if err := disc.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Printf("Shutting down...")
	if disc != nil {
		disc.Stop()
	}
	srv.Stop()
}
