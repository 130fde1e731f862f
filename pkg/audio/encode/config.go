// ABOUTME: Encoder configuration
// ABOUTME: Output type, channel layout, Opus mode and chunk size options with defaults
package encode

import (
	"fmt"
	"strings"

	"github.com/Resonate-Protocol/speechenc/pkg/audio"
)

// Type selects the encoder backend
type Type string

const (
	TypeRaw  Type = "raw"
	TypeOpus Type = "opus"
)

// ParseType parses a backend name
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeRaw, TypeOpus:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown output type %q (supported: raw, opus)", ErrInvalidConfig, s)
}

// Mode tunes the Opus codec for the kind of signal being encoded
type Mode string

const (
	// ModeVoIP favors speech intelligibility
	ModeVoIP Mode = "voip"
	// ModeAudio favors general audio fidelity
	ModeAudio Mode = "audio"
	// ModeLowDelay minimizes coding delay
	ModeLowDelay Mode = "lowdelay"
)

// ParseMode parses an Opus mode name
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeVoIP, ModeAudio, ModeLowDelay:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q (supported: voip, audio, lowdelay)", ErrInvalidConfig, s)
}

const (
	DefaultType     = TypeRaw
	DefaultChannels = audio.Stereo
	DefaultMode     = ModeVoIP

	// DefaultRawChunkSize is one synthesis period per Generate call
	DefaultRawChunkSize = 1
)

// Config configures an encoder.
// Zero values are replaced by defaults in WithDefaults.
type Config struct {
	Type     Type           `yaml:"type"`
	Channels audio.Channels `yaml:"channels"`

	// Mode is only used by the Opus backend
	Mode Mode `yaml:"mode"`

	// ChunkSize is the number of synthesis periods per Generate call.
	// Raw backend only; the Opus backend derives it from the frame duration.
	ChunkSize int `yaml:"chunk_size"`

	// Bitrate in bits per second for the Opus backend (0 = codec default)
	Bitrate int `yaml:"bitrate"`
}

// WithDefaults returns a config with default values applied to zero fields
func (c Config) WithDefaults() Config {
	if c.Type == "" {
		c.Type = DefaultType
	}

	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}

	if c.Type == TypeOpus && c.Mode == "" {
		c.Mode = DefaultMode
	}

	if c.Type == TypeRaw && c.ChunkSize == 0 {
		c.ChunkSize = DefaultRawChunkSize
	}

	return c
}

// Validate returns an error if the config is invalid on its own.
// Checks that depend on the synthesis conditions happen in New.
func (c Config) Validate() error {
	if _, err := ParseType(string(c.Type)); err != nil {
		return err
	}

	if !c.Channels.Valid() {
		return fmt.Errorf("%w: unsupported channel count %d (supported: 1, 2)", ErrInvalidConfig, c.Channels)
	}

	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: negative chunk size %d", ErrInvalidConfig, c.ChunkSize)
	}

	if c.Bitrate < 0 {
		return fmt.Errorf("%w: negative bitrate %d", ErrInvalidConfig, c.Bitrate)
	}

	if c.Type == TypeOpus {
		if _, err := ParseMode(string(c.Mode)); err != nil {
			return err
		}
	}

	if c.Type == TypeRaw && c.Bitrate != 0 {
		return fmt.Errorf("%w: bitrate is not supported by the raw backend", ErrInvalidConfig)
	}

	return nil
}
