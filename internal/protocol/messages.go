// ABOUTME: Speech streaming message type definitions
// ABOUTME: JSON control messages plus the binary frame layout for encoded chunks
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
)

const (
	// Version is the wire protocol revision
	Version = 1

	// Path is the WebSocket endpoint served by speechenc
	Path = "/speech"

	TypeClientHello = "client/hello"
	TypeServerHello = "server/hello"
	TypeStreamStart = "stream/start"
	TypeStreamEnd   = "stream/end"
	TypeStreamError = "stream/error"

	// FrameMessageType tags binary messages carrying one encoded chunk
	FrameMessageType = 1

	// FrameHeaderSize is type byte + sequence + valid samples
	FrameHeaderSize = 1 + 4 + 4
)

// Message is the top-level wrapper for all JSON messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Envelope is a received Message whose payload has not been decoded yet
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v
func (e Envelope) Decode(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%s: %w", e.Type, err)
	}
	return nil
}

// ParseEnvelope decodes a text frame into an Envelope
func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("failed to parse message: %w", err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("message missing type")
	}
	return env, nil
}

// EncoderRequest lets a client override the server's encoder settings.
// Zero fields keep the server default.
type EncoderRequest struct {
	Type     string `json:"type,omitempty"`
	Channels int    `json:"channels,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Bitrate  int    `json:"bitrate,omitempty"`
}

// DeviceInfo contains device identification
type DeviceInfo struct {
	ProductName     string `json:"product_name"`
	Manufacturer    string `json:"manufacturer"`
	SoftwareVersion string `json:"software_version"`
}

// ClientHello is sent by clients to open a stream
type ClientHello struct {
	ClientID   string          `json:"client_id"`
	Name       string          `json:"name"`
	Version    int             `json:"version"`
	DeviceInfo *DeviceInfo     `json:"device_info,omitempty"`
	Encoder    *EncoderRequest `json:"encoder,omitempty"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID string `json:"server_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// StreamStart describes the encoded stream that follows
type StreamStart struct {
	StreamID        string  `json:"stream_id"`
	Codec           string  `json:"codec"`
	SampleRate      int     `json:"sample_rate"`
	Channels        int     `json:"channels"`
	BitDepth        int     `json:"bit_depth"`
	Period          int     `json:"period"`
	ChunkSize       int     `json:"chunk_size"`
	ChunkDurationMs float64 `json:"chunk_duration_ms"`
}

// FrameSamples returns the per-channel samples carried by a full chunk
func (s StreamStart) FrameSamples() int {
	return s.ChunkSize * s.Period
}

// StreamEnd closes a stream once the generator is exhausted
type StreamEnd struct {
	StreamID string `json:"stream_id"`
	Frames   int    `json:"frames"`
	Samples  int    `json:"samples"`
}

// StreamError reports a stream that stopped early
type StreamError struct {
	StreamID string `json:"stream_id,omitempty"`
	Error    string `json:"error"`
}

// Frame is one encoded chunk received over the wire
type Frame struct {
	Sequence uint32
	Samples  int // valid (unpadded) samples per channel
	Data     []byte
}

// CreateFrame builds a binary frame message.
// Binary format: [message_type:1][sequence:4][valid_samples:4][payload:N]
func CreateFrame(sequence uint32, samples int, payload []byte) []byte {
	frame := make([]byte, FrameHeaderSize+len(payload))
	frame[0] = FrameMessageType
	binary.BigEndian.PutUint32(frame[1:5], sequence)
	binary.BigEndian.PutUint32(frame[5:9], uint32(samples))
	copy(frame[FrameHeaderSize:], payload)
	return frame
}

// ParseFrame decodes a binary frame message
func ParseFrame(data []byte) (Frame, error) {
	if len(data) < FrameHeaderSize {
		return Frame{}, fmt.Errorf("frame too short: %d bytes", len(data))
	}
	if data[0] != FrameMessageType {
		return Frame{}, fmt.Errorf("unknown binary message type: %d", data[0])
	}

	return Frame{
		Sequence: binary.BigEndian.Uint32(data[1:5]),
		Samples:  int(binary.BigEndian.Uint32(data[5:9])),
		Data:     data[FrameHeaderSize:],
	}, nil
}
