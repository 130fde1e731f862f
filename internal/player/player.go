// ABOUTME: Stream playback loop
// ABOUTME: Reads frames from a source, decodes them and writes PCM to a sink
package player

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/speechenc/internal/protocol"
)

// FrameSource yields frames until io.EOF
type FrameSource interface {
	ReadFrame() (protocol.Frame, error)
}

// Sink consumes interleaved PCM16
type Sink interface {
	Write(samples []int16) error
}

// Stats summarizes a finished playback
type Stats struct {
	Frames  int
	Samples int // per channel
}

// Play decodes every frame from src into sink
func Play(start protocol.StreamStart, src FrameSource, sink Sink) (Stats, error) {
	var stats Stats

	decoder, err := NewDecoder(start)
	if err != nil {
		return stats, err
	}
	defer decoder.Close()

	for {
		frame, err := src.ReadFrame()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}

		pcm, err := decoder.Decode(frame)
		if err != nil {
			return stats, fmt.Errorf("frame %d: %w", frame.Sequence, err)
		}
		if err := sink.Write(pcm); err != nil {
			return stats, err
		}

		stats.Frames++
		stats.Samples += len(pcm) / start.Channels
	}
}
