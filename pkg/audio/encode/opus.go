// ABOUTME: Opus codec adapter and compressed encoder
// ABOUTME: Encodes 20ms PCM chunks from the PCM stage into single Opus packets
package encode

import (
	"fmt"
	"log"

	"gopkg.in/hraban/opus.v2"

	"github.com/Resonate-Protocol/speechenc/pkg/audio"
	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

// OpusCodec wraps a libopus encoder for fixed-size frames
type OpusCodec struct {
	encoder    *opus.Encoder
	sampleRate int
	channels   int
	frameSize  int    // samples per channel per frame
	scratch    []byte // working buffer sized to MaxPacketSize
}

func (m Mode) application() (opus.Application, error) {
	switch m {
	case ModeVoIP:
		return opus.AppVoIP, nil
	case ModeAudio:
		return opus.AppAudio, nil
	case ModeLowDelay:
		return opus.AppRestrictedLowdelay, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, m)
}

// NewOpusCodec creates a codec adapter.
// frameSize is in samples per channel (e.g., 960 for 20ms at 48kHz).
func NewOpusCodec(sampleRate int, channels audio.Channels, mode Mode, frameSize int) (*OpusCodec, error) {
	if !IsSupportedSampleRate(sampleRate) {
		return nil, fmt.Errorf("%w: %d Hz (supported: %v)", ErrUnsupportedSampleRate, sampleRate, SupportedSampleRates)
	}
	if !channels.Valid() {
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrInvalidConfig, channels)
	}
	if frameSize <= 0 {
		return nil, fmt.Errorf("%w: frame size must be positive, got %d", ErrInvalidConfig, frameSize)
	}

	app, err := mode.application()
	if err != nil {
		return nil, err
	}

	encoder, err := opus.NewEncoder(sampleRate, int(channels), app)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create opus encoder: %v", ErrInvalidConfig, err)
	}

	return &OpusCodec{
		encoder:    encoder,
		sampleRate: sampleRate,
		channels:   int(channels),
		frameSize:  frameSize,
		scratch:    make([]byte, MaxPacketSize),
	}, nil
}

// SetBitrate sets the target bitrate in bits per second
func (c *OpusCodec) SetBitrate(bitrate int) error {
	if err := c.encoder.SetBitrate(bitrate); err != nil {
		return fmt.Errorf("%w: failed to set opus bitrate %d: %v", ErrInvalidConfig, bitrate, err)
	}
	return nil
}

// Encode compresses exactly one frame of interleaved samples.
// The returned packet is a fresh slice trimmed to the codec-reported length.
func (c *OpusCodec) Encode(pcm []int16) ([]byte, error) {
	if want := c.frameSize * c.channels; len(pcm) != want {
		return nil, fmt.Errorf("%w: got %d samples, want %d (%d per channel x %d channels)",
			ErrFrameSize, len(pcm), want, c.frameSize, c.channels)
	}

	n, err := c.encoder.Encode(pcm, c.scratch)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCodec, err)
	}

	packet := make([]byte, n)
	copy(packet, c.scratch[:n])
	return packet, nil
}

// FrameSize returns the samples per channel per frame
func (c *OpusCodec) FrameSize() int {
	return c.frameSize
}

// Close releases resources
func (c *OpusCodec) Close() error {
	// opus.Encoder is released by the garbage collector
	return nil
}

// OpusEncoder encodes each 20ms chunk into one Opus packet
type OpusEncoder struct {
	stage *PCMStage
	codec *OpusCodec
	mode  Mode
}

// NewOpus creates an Opus encoder with a derived chunk size
func NewOpus(cond speech.Condition, config Config) (Encoder, error) {
	config = config.WithDefaults()
	if config.Type != TypeOpus {
		return nil, fmt.Errorf("%w: invalid type for Opus encoder: %s", ErrInvalidConfig, config.Type)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := cond.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	chunkSize, err := deriveOpusChunkSize(cond)
	if err != nil {
		return nil, err
	}
	if config.ChunkSize != 0 && config.ChunkSize != chunkSize {
		return nil, fmt.Errorf("%w: chunk size %d conflicts with derived Opus chunk size %d",
			ErrInvalidConfig, config.ChunkSize, chunkSize)
	}

	stage, err := NewPCMStage(cond, config.Channels, chunkSize)
	if err != nil {
		return nil, err
	}

	codec, err := NewOpusCodec(cond.SamplingFrequency, config.Channels, config.Mode, stage.FrameSamples())
	if err != nil {
		return nil, err
	}

	if config.Bitrate > 0 {
		if err := codec.SetBitrate(config.Bitrate); err != nil {
			return nil, err
		}
	}

	log.Printf("Opus encoder: %d Hz, %s, mode %s, %d periods of %d samples per frame",
		cond.SamplingFrequency, config.Channels, config.Mode, chunkSize, cond.Period)

	return &OpusEncoder{
		stage: stage,
		codec: codec,
		mode:  config.Mode,
	}, nil
}

// Generate encodes one 20ms chunk; a short final chunk is zero-padded
func (e *OpusEncoder) Generate(gen speech.Generator) ([]byte, error) {
	pcm, err := e.stage.Fill(gen)
	if err != nil {
		return nil, err
	}

	packet, err := e.codec.Encode(pcm)
	if err != nil {
		return nil, fmt.Errorf("opus encode error: %w", err)
	}
	return packet, nil
}

func (e *OpusEncoder) Samples() int   { return e.stage.Valid() }
func (e *OpusEncoder) ChunkSize() int { return e.stage.ChunkSize() }

// Mode returns the codec tuning mode
func (e *OpusEncoder) Mode() Mode { return e.mode }

func (e *OpusEncoder) Format() audio.Format {
	return audio.Format{
		Codec:      string(TypeOpus),
		SampleRate: e.codec.sampleRate,
		Channels:   e.codec.channels,
		BitDepth:   16,
	}
}

// Close releases resources
func (e *OpusEncoder) Close() error {
	return e.codec.Close()
}
