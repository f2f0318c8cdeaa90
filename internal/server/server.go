// ABOUTME: WebSocket control server exposing the playback command protocol
// ABOUTME: One engine and streaming session per host connection
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/voicewire/voicewire-go/internal/control"
	"github.com/voicewire/voicewire-go/internal/engine"
	"github.com/voicewire/voicewire-go/internal/stream"
	"github.com/voicewire/voicewire-go/pkg/audio/backend"
)

// Path is the websocket endpoint the host application connects to.
const Path = "/voicewire"

// Config holds server configuration.
type Config struct {
	// ListenAddr is the HTTP listen address, e.g. ":8927".
	ListenAddr string

	// NewBackend builds the audio backend for a connection. Defaults to
	// the oto backend. Note that the hardware graph is a per-process
	// resource: the server is designed for a single host connection at a
	// time, matching how one application owns the device audio session.
	NewBackend func() backend.Backend

	// Engine is the engine configuration applied per connection.
	Engine engine.Config
}

// Server accepts host connections and drives a playback engine per
// connection over the control protocol.
type Server struct {
	config   Config
	serverID string
	upgrader websocket.Upgrader

	httpServer *http.Server

	mu       sync.Mutex
	shutdown bool
	wg       sync.WaitGroup
}

// New creates a server instance.
func New(config Config) *Server {
	if config.NewBackend == nil {
		config.NewBackend = func() backend.Backend { return backend.NewOto() }
	}

	return &Server{
		config:   config,
		serverID: uuid.New().String(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// The host application is a local, trusted process.
				return true
			},
		},
	}
}

// Start begins serving. It returns once the listener is running; errors
// from the listener after that are logged.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:    s.config.ListenAddr,
		Handler: mux,
	}

	log.Printf("Control server listening on %s%s (ID: %s)", s.config.ListenAddr, Path, s.serverID)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Control server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts the server down and waits for connections to finish.
func (s *Server) Stop() {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	if s.httpServer != nil {
		if err := s.httpServer.Close(); err != nil {
			log.Printf("Closing control server: %v", err)
		}
	}
	s.wg.Wait()
}

// handleWebSocket upgrades one host connection and runs its session.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	sess := newHostSession(conn, s.config)
	sess.run()
}

// hostSession is one connected host application: one engine, one
// streaming controller, one dispatcher.
type hostSession struct {
	conn       *websocket.Conn
	engine     *engine.Engine
	dispatcher *control.Dispatcher

	// sendChan serializes all writes to the connection.
	sendChan chan interface{}
	done     chan struct{}
	stopOnce sync.Once
}

func newHostSession(conn *websocket.Conn, cfg Config) *hostSession {
	eng := engine.New(cfg.NewBackend(), cfg.Engine)
	ctrl := stream.NewController(eng)

	return &hostSession{
		conn:       conn,
		engine:     eng,
		dispatcher: control.NewDispatcher(eng, ctrl),
		sendChan:   make(chan interface{}, 64),
		done:       make(chan struct{}),
	}
}

func (h *hostSession) run() {
	remote := h.conn.RemoteAddr().String()
	log.Printf("Host connected: %s", remote)

	go h.writePump()
	go h.forwardCompletions()

	h.readPump()

	h.close()
	h.engine.Dispose()
	log.Printf("Host disconnected: %s", remote)
}

func (h *hostSession) close() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.conn.Close()
	})
}

// readPump parses command frames and dispatches them. A frame that is
// not valid JSON gets an invalid-arguments response instead of killing
// the connection.
func (h *hostSession) readPump() {
	for {
		msgType, data, err := h.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("Read error: %v", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			h.send(control.Response{
				OK:        false,
				ErrorKind: control.ErrKindInvalidArguments,
				Error:     "expected text frame",
			})
			continue
		}

		var req control.Request
		if err := json.Unmarshal(data, &req); err != nil {
			h.send(control.Response{
				OK:        false,
				ErrorKind: control.ErrKindInvalidArguments,
				Error:     fmt.Sprintf("malformed request: %v", err),
			})
			continue
		}

		h.send(h.dispatcher.Dispatch(req))
	}
}

// forwardCompletions pushes render-completion notifications to the host
// as event frames.
func (h *hostSession) forwardCompletions() {
	for {
		select {
		case <-h.done:
			return
		case c := <-h.engine.Completions():
			h.sendEvent(control.Event{
				Type:    control.EventChunkComplete,
				ChunkID: c.ChunkID,
				Frames:  c.Frames,
			})
		}
	}
}

// send queues a command response, waiting for room: the host must see a
// result for every command it issued. Session teardown unblocks it.
func (h *hostSession) send(msg interface{}) {
	select {
	case h.sendChan <- msg:
	case <-h.done:
	}
}

// sendEvent queues an unsolicited event, dropping it when the host
// cannot keep up.
func (h *hostSession) sendEvent(msg interface{}) {
	select {
	case h.sendChan <- msg:
	case <-h.done:
	default:
		log.Printf("Warning: send channel full, dropping event")
	}
}

func (h *hostSession) writePump() {
	defer h.close()

	for {
		select {
		case <-h.done:
			return
		case msg := <-h.sendChan:
			h.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := h.conn.WriteJSON(msg); err != nil {
				log.Printf("Write error: %v", err)
				return
			}
		}
	}
}
