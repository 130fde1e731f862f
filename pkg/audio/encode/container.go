// ABOUTME: Length-prefixed packet container
// ABOUTME: Writes and reads Opus packets as uint16 big-endian length + payload
package encode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// WriteFrame writes one length-prefixed packet to w
func WriteFrame(w io.Writer, packet []byte) error {
	if len(packet) > math.MaxUint16 {
		return fmt.Errorf("packet too large: %d bytes", len(packet))
	}

	var header [2]byte
	binary.BigEndian.PutUint16(header[:], uint16(len(packet)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := w.Write(packet); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed packet from r.
// Returns io.EOF at a clean end of stream.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to read frame header: %w", err)
	}

	packet := make([]byte, binary.BigEndian.Uint16(header[:]))
	if _, err := io.ReadFull(r, packet); err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	return packet, nil
}
