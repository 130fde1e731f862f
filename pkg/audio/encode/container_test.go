// ABOUTME: Tests for the length-prefixed packet container
// ABOUTME: Tests frame round trips and truncated streams
package encode

import (
	"bytes"
	"io"
	"testing"
)

func TestWriteReadFrames(t *testing.T) {
	packets := [][]byte{
		{0x01},
		bytes.Repeat([]byte{0xAB}, 300),
		{},
	}

	var buf bytes.Buffer
	for _, p := range packets {
		if err := WriteFrame(&buf, p); err != nil {
			t.Fatalf("WriteFrame() failed: %v", err)
		}
	}

	for i, want := range packets {
		got, err := ReadFrame(&buf)
		if err != nil {
			t.Fatalf("ReadFrame() %d failed: %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame %d: got %d bytes, want %d", i, len(got), len(want))
		}
	}

	if _, err := ReadFrame(&buf); err != io.EOF {
		t.Errorf("ReadFrame() at end error = %v, want io.EOF", err)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	// Header says 10 bytes, only 3 follow
	data := []byte{0x00, 0x0A, 0x01, 0x02, 0x03}
	if _, err := ReadFrame(bytes.NewReader(data)); err == nil || err == io.EOF {
		t.Errorf("expected truncation error, got %v", err)
	}

	// Half a header
	if _, err := ReadFrame(bytes.NewReader([]byte{0x00})); err == nil || err == io.EOF {
		t.Errorf("expected header error, got %v", err)
	}
}

func TestWriteFrameTooLarge(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, make([]byte, 1<<16)); err == nil {
		t.Error("expected error for oversized packet")
	}
}
