// ABOUTME: Per-connection encode loop
// ABOUTME: Drives a generator through an encoder and writes one binary frame per chunk
package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/speechenc/internal/protocol"
	"github.com/Resonate-Protocol/speechenc/pkg/audio"
	"github.com/Resonate-Protocol/speechenc/pkg/audio/encode"
	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

var errClientGone = errors.New("client disconnected")

type stream struct {
	id        string
	clientID  string
	name      string
	conn      *websocket.Conn
	connected time.Time

	mu         sync.RWMutex
	state      string
	codec      string
	sampleRate int
	channels   int
	frames     int
}

// StreamInfo is a snapshot of one active stream for display
type StreamInfo struct {
	ID         string
	ClientName string
	ClientID   string
	State      string
	Codec      string
	SampleRate int
	Channels   int
	Frames     int
	Connected  time.Duration
}

func (st *stream) info() StreamInfo {
	st.mu.RLock()
	defer st.mu.RUnlock()

	return StreamInfo{
		ID:         st.id,
		ClientName: st.name,
		ClientID:   st.clientID,
		State:      st.state,
		Codec:      st.codec,
		SampleRate: st.sampleRate,
		Channels:   st.channels,
		Frames:     st.frames,
		Connected:  time.Since(st.connected),
	}
}

func (st *stream) setState(state string) {
	st.mu.Lock()
	st.state = state
	st.mu.Unlock()
}

// runStream encodes a fresh generator for st and writes it to the connection
func (s *Server) runStream(st *stream, config encode.Config) error {
	gen, err := s.config.NewGenerator()
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	cond := speech.ConditionOf(gen)
	encoder, err := encode.New(cond, config)
	if err != nil {
		return err
	}
	defer encoder.Close()

	format := encoder.Format()
	chunkDuration := encode.ChunkDuration(cond, encoder.ChunkSize())

	start := protocol.StreamStart{
		StreamID:        st.id,
		Codec:           format.Codec,
		SampleRate:      format.SampleRate,
		Channels:        format.Channels,
		BitDepth:        format.BitDepth,
		Period:          cond.Period,
		ChunkSize:       encoder.ChunkSize(),
		ChunkDurationMs: float64(chunkDuration) / float64(time.Millisecond),
	}
	if err := writeJSON(st.conn, protocol.TypeStreamStart, start); err != nil {
		return fmt.Errorf("failed to send stream start: %w", err)
	}

	st.mu.Lock()
	st.state = "streaming"
	st.codec = format.Codec
	st.sampleRate = format.SampleRate
	st.channels = format.Channels
	st.mu.Unlock()
	s.updateTUI()

	log.Printf("Streaming %s to %s: %s %dHz %dch, %d periods per chunk",
		st.id, st.name, format.Codec, format.SampleRate, format.Channels, encoder.ChunkSize())

	// The client sends nothing after hello; a read error means it went away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := st.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var ticker *time.Ticker
	if s.config.Realtime && chunkDuration > 0 {
		ticker = time.NewTicker(chunkDuration)
		defer ticker.Stop()
	}

	end := protocol.StreamEnd{StreamID: st.id}
	for {
		select {
		case <-s.stopChan:
			return fmt.Errorf("server shutting down")
		case <-gone:
			return errClientGone
		default:
		}

		data, err := encoder.Generate(gen)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		frame := protocol.CreateFrame(uint32(end.Frames), encoder.Samples(), data)
		if err := writeBinary(st.conn, frame); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", end.Frames, err)
		}
		end.Frames++
		end.Samples += encoder.Samples()

		st.mu.Lock()
		st.frames = end.Frames
		st.mu.Unlock()

		if ticker != nil {
			select {
			case <-ticker.C:
			case <-s.stopChan:
				return fmt.Errorf("server shutting down")
			case <-gone:
				return errClientGone
			}
		}
	}

	log.Printf("Stream %s complete: %d frames, %d samples", st.id, end.Frames, end.Samples)
	st.setState("complete")
	return writeJSON(st.conn, protocol.TypeStreamEnd, end)
}

// resolveEncoder applies a client's encoder request over the server default
func resolveEncoder(base encode.Config, req *protocol.EncoderRequest) (encode.Config, error) {
	config := base
	if req == nil {
		return config, nil
	}

	if req.Type != "" {
		typ, err := encode.ParseType(req.Type)
		if err != nil {
			return config, err
		}
		if typ != config.Type {
			// Chunk size and bitrate are backend specific
			config = encode.Config{Type: typ, Channels: config.Channels, Mode: config.Mode}
		}
	}
	if req.Channels != 0 {
		config.Channels = audio.Channels(req.Channels)
	}
	if req.Mode != "" {
		mode, err := encode.ParseMode(req.Mode)
		if err != nil {
			return config, err
		}
		config.Mode = mode
	}
	if req.Bitrate != 0 {
		config.Bitrate = req.Bitrate
	}

	config = config.WithDefaults()
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}
