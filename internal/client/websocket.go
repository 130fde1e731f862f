// ABOUTME: WebSocket client for the speech streaming endpoint
// ABOUTME: Handles connection, handshake and reading stream messages in order
package client

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/speechenc/internal/protocol"
	"github.com/Resonate-Protocol/speechenc/internal/version"
)

// Config holds client configuration
type Config struct {
	ServerAddr string
	ClientID   string // generated when empty
	Name       string
	Encoder    *protocol.EncoderRequest
}

// StreamError is returned when the server aborts a stream
type StreamError struct {
	protocol.StreamError
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("server error: %s", e.StreamError.Error)
}

// Client reads a single speech stream from a server
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.Mutex

	// Populated as the stream progresses
	Server protocol.ServerHello
	Start  protocol.StreamStart
	End    protocol.StreamEnd

	started   bool
	connected bool
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.ClientID == "" {
		config.ClientID = uuid.New().String()
	}
	if config.Name == "" {
		config.Name = version.Product
	}
	return &Client{config: config}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect(ctx context.Context) error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: protocol.Path}
	log.Printf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}
	return nil
}

func (c *Client) handshake() error {
	hello := protocol.ClientHello{
		ClientID: c.config.ClientID,
		Name:     c.config.Name,
		Version:  protocol.Version,
		DeviceInfo: &protocol.DeviceInfo{
			ProductName:     version.Product,
			Manufacturer:    version.Manufacturer,
			SoftwareVersion: version.Version,
		},
		Encoder: c.config.Encoder,
	}

	if err := c.conn.WriteJSON(protocol.Message{Type: protocol.TypeClientHello, Payload: hello}); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	defer c.conn.SetReadDeadline(time.Time{})

	env, err := c.readJSON()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	if env.Type == protocol.TypeStreamError {
		return decodeStreamError(env)
	}
	if env.Type != protocol.TypeServerHello {
		return fmt.Errorf("expected %s, got %s", protocol.TypeServerHello, env.Type)
	}
	if err := env.Decode(&c.Server); err != nil {
		return err
	}

	log.Printf("Handshake complete with server %s (%s)", c.Server.Name, c.Server.ServerID)
	return nil
}

// ReadStart waits for stream/start
func (c *Client) ReadStart() (protocol.StreamStart, error) {
	env, err := c.readJSON()
	if err != nil {
		return c.Start, err
	}

	switch env.Type {
	case protocol.TypeStreamStart:
		if err := env.Decode(&c.Start); err != nil {
			return c.Start, err
		}
		c.started = true
		log.Printf("Stream %s: %s %dHz %dch", c.Start.StreamID, c.Start.Codec, c.Start.SampleRate, c.Start.Channels)
		return c.Start, nil
	case protocol.TypeStreamError:
		return c.Start, decodeStreamError(env)
	}
	return c.Start, fmt.Errorf("expected %s, got %s", protocol.TypeStreamStart, env.Type)
}

// ReadFrame returns the next encoded frame, or io.EOF after stream/end
func (c *Client) ReadFrame() (protocol.Frame, error) {
	if !c.started {
		return protocol.Frame{}, fmt.Errorf("stream not started")
	}

	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return protocol.Frame{}, fmt.Errorf("read failed: %w", err)
	}

	if messageType == websocket.BinaryMessage {
		return protocol.ParseFrame(data)
	}

	env, err := protocol.ParseEnvelope(data)
	if err != nil {
		return protocol.Frame{}, err
	}
	switch env.Type {
	case protocol.TypeStreamEnd:
		if err := env.Decode(&c.End); err != nil {
			return protocol.Frame{}, err
		}
		log.Printf("Stream %s ended: %d frames, %d samples", c.End.StreamID, c.End.Frames, c.End.Samples)
		return protocol.Frame{}, io.EOF
	case protocol.TypeStreamError:
		return protocol.Frame{}, decodeStreamError(env)
	}
	return protocol.Frame{}, fmt.Errorf("unexpected message type: %s", env.Type)
}

func (c *Client) readJSON() (protocol.Envelope, error) {
	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return protocol.Envelope{}, err
	}
	if messageType != websocket.TextMessage {
		return protocol.Envelope{}, fmt.Errorf("expected text message, got type %d", messageType)
	}
	return protocol.ParseEnvelope(data)
}

func decodeStreamError(env protocol.Envelope) error {
	var msg protocol.StreamError
	if err := env.Decode(&msg); err != nil {
		return err
	}
	return &StreamError{msg}
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}
