// ABOUTME: Encoder interface definition and backend selection
// ABOUTME: Common interface for all speech encoders
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/speechenc/pkg/audio"
	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

// Encoder turns synthesized speech into encoded buffers, one chunk per call.
// An Encoder is not safe for concurrent use.
type Encoder interface {
	// Generate pulls one chunk from gen and returns it encoded.
	// Returns io.EOF once gen is exhausted.
	Generate(gen speech.Generator) ([]byte, error)

	// Samples returns the real (unpadded) samples per channel in the last chunk
	Samples() int

	// ChunkSize returns the number of synthesis periods per chunk
	ChunkSize() int

	// Format describes the encoded stream
	Format() audio.Format

	// Close releases encoder resources
	Close() error
}

// New creates the encoder selected by config.Type
func New(cond speech.Condition, config Config) (Encoder, error) {
	config = config.WithDefaults()

	switch config.Type {
	case TypeRaw:
		return NewRaw(cond, config)
	case TypeOpus:
		return NewOpus(cond, config)
	}
	return nil, fmt.Errorf("%w: unknown output type %q", ErrInvalidConfig, config.Type)
}
