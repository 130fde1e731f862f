// ABOUTME: WebSocket server that streams encoded speech
// ABOUTME: Handles handshakes, per-connection encoders, mDNS and graceful shutdown
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/speechenc/internal/discovery"
	"github.com/Resonate-Protocol/speechenc/internal/protocol"
	"github.com/Resonate-Protocol/speechenc/pkg/audio/encode"
	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

const (
	handshakeTimeout = 5 * time.Second
	writeDeadline    = 10 * time.Second
)

// GeneratorFactory creates a fresh generator for each stream
type GeneratorFactory func() (speech.Generator, error)

// Config holds server configuration
type Config struct {
	Port       int
	Name       string
	EnableMDNS bool
	UseTUI     bool

	// Realtime paces frames at the chunk duration instead of sending as fast as possible
	Realtime bool

	// Encoder is the default encoder config; clients may override fields in client/hello
	Encoder encode.Config

	NewGenerator GeneratorFactory

	// SourceTitle describes the generator on the status screen
	SourceTitle string
}

// Server streams one encoded generator per WebSocket connection
type Server struct {
	config   Config
	serverID string

	upgrader websocket.Upgrader

	httpServer *http.Server
	mux        *http.ServeMux

	// Active streams keyed by client ID
	streams   map[string]*stream
	streamsMu sync.RWMutex

	mdnsManager *discovery.Manager

	tui       *ServerTUI
	startTime time.Time

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

// New creates a new server instance
func New(config Config) (*Server, error) {
	if config.NewGenerator == nil {
		return nil, fmt.Errorf("server: generator factory is required")
	}
	config.Encoder = config.Encoder.WithDefaults()
	if err := config.Encoder.Validate(); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	if config.Name == "" {
		config.Name = "speechenc"
	}

	s := &Server{
		config:   config,
		serverID: uuid.New().String(),
		mux:      http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local network service; browsers from any origin may connect
				return true
			},
		},
		streams:   make(map[string]*stream),
		startTime: time.Now(),
		stopChan:  make(chan struct{}),
	}
	s.mux.HandleFunc(protocol.Path, s.handleWebSocket)

	return s, nil
}

// Handler returns the HTTP handler serving the speech endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ID returns the server's UUID
func (s *Server) ID() string {
	return s.serverID
}

// ActiveStreams returns the number of connected clients
func (s *Server) ActiveStreams() int {
	s.streamsMu.RLock()
	defer s.streamsMu.RUnlock()
	return len(s.streams)
}

// Streams returns a snapshot of the active streams ordered by connection time
func (s *Server) Streams() []StreamInfo {
	s.streamsMu.RLock()
	infos := make([]StreamInfo, 0, len(s.streams))
	for _, st := range s.streams {
		infos = append(infos, st.info())
	}
	s.streamsMu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Connected > infos[j].Connected
	})
	return infos
}

// Start serves until Stop is called or the listener fails
func (s *Server) Start() error {
	log.Printf("Server starting: %s (ID: %s)", s.config.Name, s.serverID)

	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return s.Serve(listener)
}

// Serve accepts connections on listener until Stop is called
func (s *Server) Serve(listener net.Listener) error {
	port := listenerPort(listener, s.config.Port)

	if s.config.UseTUI {
		s.tui = NewServerTUI(s.config.Name, port)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.tui.Start(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()

		// Frame counters move between connect and disconnect events
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					s.updateTUI()
				case <-s.stopChan:
					return
				case <-s.tui.Done():
					return
				}
			}
		}()
	}

	if s.config.EnableMDNS {
		s.mdnsManager = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        port,
		})

		if err := s.mdnsManager.Advertise(); err != nil {
			log.Printf("Failed to start mDNS advertisement: %v", err)
		} else {
			log.Printf("mDNS advertisement started")
		}
	}

	log.Printf("WebSocket server listening on %s%s", listener.Addr(), protocol.Path)

	s.httpServer = &http.Server{Handler: s.mux}

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var tuiQuitChan <-chan struct{}
	if s.tui != nil {
		tuiQuitChan = s.tui.QuitChan()
	}

	var serverErr error
	select {
	case <-s.stopChan:
		log.Printf("Server shutting down...")
	case <-tuiQuitChan:
		log.Printf("TUI quit requested, shutting down...")
		s.Stop()
	case err := <-errChan:
		log.Printf("HTTP server error: %v", err)
		serverErr = err
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	// Stop TUI first so it can display shutdown message
	if s.tui != nil {
		s.tui.Stop()
	}

	if s.mdnsManager != nil {
		s.mdnsManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	s.wg.Wait()
	log.Printf("Server stopped cleanly")

	if serverErr != nil {
		return fmt.Errorf("HTTP server failed: %w", serverErr)
	}
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	s.wg.Add(1)
	s.shutdownMu.RUnlock()
	defer s.wg.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("New WebSocket connection from %s", r.RemoteAddr)

	s.handleConnection(conn)
}

// handleConnection performs the handshake then streams until the generator is exhausted
func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	hello, err := s.readHello(conn)
	if err != nil {
		log.Printf("Handshake failed: %v", err)
		writeJSON(conn, protocol.TypeStreamError, protocol.StreamError{Error: err.Error()})
		return
	}

	log.Printf("Client hello: %s (ID: %s)", hello.Name, hello.ClientID)

	st := &stream{
		id:        uuid.New().String(),
		clientID:  hello.ClientID,
		name:      hello.Name,
		conn:      conn,
		connected: time.Now(),
		state:     "handshake",
	}

	s.streamsMu.Lock()
	if existing, exists := s.streams[hello.ClientID]; exists {
		s.streamsMu.Unlock()
		log.Printf("Client ID %s already connected (name: %s), rejecting duplicate", hello.ClientID, existing.name)
		writeJSON(conn, protocol.TypeStreamError, protocol.StreamError{Error: "duplicate client id"})
		return
	}
	s.streams[st.clientID] = st
	s.streamsMu.Unlock()
	s.updateTUI()

	defer func() {
		s.streamsMu.Lock()
		delete(s.streams, st.clientID)
		s.streamsMu.Unlock()
		log.Printf("Client disconnected: %s", st.name)
		s.updateTUI()
	}()

	serverHello := protocol.ServerHello{
		ServerID: s.serverID,
		Name:     s.config.Name,
		Version:  protocol.Version,
	}
	if err := writeJSON(conn, protocol.TypeServerHello, serverHello); err != nil {
		log.Printf("Error sending server hello: %v", err)
		return
	}

	config, err := resolveEncoder(s.config.Encoder, hello.Encoder)
	if err != nil {
		log.Printf("Rejecting encoder request from %s: %v", st.name, err)
		writeJSON(conn, protocol.TypeStreamError, protocol.StreamError{StreamID: st.id, Error: err.Error()})
		return
	}

	if err := s.runStream(st, config); err != nil {
		log.Printf("Stream %s failed: %v", st.id, err)
		writeJSON(conn, protocol.TypeStreamError, protocol.StreamError{StreamID: st.id, Error: err.Error()})
		return
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream complete"),
		time.Now().Add(time.Second))
}

// updateTUI sends current server state to the TUI
func (s *Server) updateTUI() {
	if s.tui == nil {
		return
	}

	s.tui.Update(ServerStatus{
		Name:    s.config.Name,
		Port:    s.tui.port,
		Uptime:  time.Since(s.startTime),
		Source:  s.config.SourceTitle,
		Streams: s.Streams(),
	})
}

func (s *Server) readHello(conn *websocket.Conn) (protocol.ClientHello, error) {
	var hello protocol.ClientHello

	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return hello, fmt.Errorf("failed to read hello: %w", err)
	}
	conn.SetReadDeadline(time.Time{})

	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		return hello, err
	}
	if env.Type != protocol.TypeClientHello {
		return hello, fmt.Errorf("expected %s, got %s", protocol.TypeClientHello, env.Type)
	}
	if err := env.Decode(&hello); err != nil {
		return hello, err
	}

	if hello.ClientID == "" {
		return hello, fmt.Errorf("client hello missing client_id")
	}
	if hello.Name == "" {
		return hello, fmt.Errorf("client hello missing name")
	}
	return hello, nil
}

// writeJSON sends a JSON message with a write deadline
func writeJSON(conn *websocket.Conn, msgType string, payload interface{}) error {
	data, err := json.Marshal(protocol.Message{Type: msgType, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", msgType, err)
	}
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// writeBinary sends a binary message with a write deadline
func writeBinary(conn *websocket.Conn, data []byte) error {
	conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	return conn.WriteMessage(websocket.BinaryMessage, data)
}

func listenerPort(listener net.Listener, fallback int) int {
	_, port, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		return fallback
	}
	if n, err := strconv.Atoi(port); err == nil {
		return n
	}
	return fallback
}
