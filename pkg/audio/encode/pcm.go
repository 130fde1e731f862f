// ABOUTME: PCM conversion stage and raw encoder
// ABOUTME: Pulls synthesis periods, converts to int16 and emits PCM16 bytes
package encode

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/speechenc/pkg/audio"
	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

// PCMStage converts generator output into fixed-size int16 chunks.
// A short final chunk is zero-padded; Valid reports how much of it is real.
type PCMStage struct {
	cond      speech.Condition
	channels  int
	chunkSize int // synthesis periods per chunk
	buf       []int16
	valid     int // samples per channel produced by the last Fill
}

// NewPCMStage creates a stage holding chunkSize synthesis periods
func NewPCMStage(cond speech.Condition, channels audio.Channels, chunkSize int) (*PCMStage, error) {
	if err := cond.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !channels.Valid() {
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrInvalidConfig, channels)
	}
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, chunkSize)
	}

	return &PCMStage{
		cond:      cond,
		channels:  int(channels),
		chunkSize: chunkSize,
		buf:       make([]int16, chunkSize*cond.Period*int(channels)),
	}, nil
}

// Fill pulls one chunk from gen and returns the interleaved int16 buffer.
// The buffer is reused by the next Fill. Returns io.EOF when gen yields
// nothing for this chunk.
func (s *PCMStage) Fill(gen speech.Generator) ([]int16, error) {
	if gen.Period() != s.cond.Period || gen.SamplingFrequency() != s.cond.SamplingFrequency {
		return nil, fmt.Errorf("%w: generator has %d Hz period %d, encoder expects %d Hz period %d",
			ErrConditionMismatch, gen.SamplingFrequency(), gen.Period(),
			s.cond.SamplingFrequency, s.cond.Period)
	}

	frameSamples := s.FrameSamples()
	filled := 0

	for filled < frameSamples {
		period, ok := gen.Next()
		if !ok {
			break
		}
		if filled+len(period) > frameSamples {
			s.valid = 0
			return nil, fmt.Errorf("%w: %d samples with %d of %d free",
				ErrPeriodOverflow, len(period), frameSamples-filled, frameSamples)
		}

		for i, sample := range period {
			v := audio.FloatToInt16(sample)
			base := (filled + i) * s.channels
			for ch := 0; ch < s.channels; ch++ {
				s.buf[base+ch] = v
			}
		}
		filled += len(period)
	}

	s.valid = filled
	if filled == 0 {
		return nil, io.EOF
	}

	// Zero-pad the remainder of a short final chunk
	clear(s.buf[filled*s.channels:])

	return s.buf, nil
}

// Valid returns the samples per channel produced by the last Fill
func (s *PCMStage) Valid() int {
	return s.valid
}

// FrameSamples returns the capacity of a chunk in samples per channel
func (s *PCMStage) FrameSamples() int {
	return s.chunkSize * s.cond.Period
}

// Len returns the length of the interleaved buffer
func (s *PCMStage) Len() int {
	return len(s.buf)
}

// ChunkSize returns the number of synthesis periods per chunk
func (s *PCMStage) ChunkSize() int {
	return s.chunkSize
}

// Channels returns the number of interleaved channels
func (s *PCMStage) Channels() int {
	return s.channels
}

// RawEncoder emits each chunk as little-endian PCM16
type RawEncoder struct {
	stage *PCMStage
}

// NewRaw creates a raw PCM16 encoder.
// Raw output is rate-agnostic: any positive sampling frequency is accepted.
func NewRaw(cond speech.Condition, config Config) (Encoder, error) {
	config = config.WithDefaults()
	if config.Type != TypeRaw {
		return nil, fmt.Errorf("%w: invalid type for raw encoder: %s", ErrInvalidConfig, config.Type)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stage, err := NewPCMStage(cond, config.Channels, config.ChunkSize)
	if err != nil {
		return nil, err
	}

	return &RawEncoder{stage: stage}, nil
}

// Generate converts one chunk to PCM16 bytes.
// The final chunk keeps its full length; Samples reports the unpadded count.
func (e *RawEncoder) Generate(gen speech.Generator) ([]byte, error) {
	pcm, err := e.stage.Fill(gen)
	if err != nil {
		return nil, err
	}
	return audio.Int16ToBytes(pcm), nil
}

func (e *RawEncoder) Samples() int   { return e.stage.Valid() }
func (e *RawEncoder) ChunkSize() int { return e.stage.ChunkSize() }

func (e *RawEncoder) Format() audio.Format {
	return audio.Format{
		Codec:      string(TypeRaw),
		SampleRate: e.stage.cond.SamplingFrequency,
		Channels:   e.stage.Channels(),
		BitDepth:   16,
	}
}

// Close releases resources
func (e *RawEncoder) Close() error {
	return nil
}
