// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats, channel layouts and sample conversions
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// 16-bit PCM range constants
	MaxInt16 = 32767  // 2^15 - 1
	MinInt16 = -32768 // -2^15

	// BytesPerSample is the size of one PCM16 sample
	BytesPerSample = 2
)

// Format describes an encoded audio stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Channels is the output channel layout
type Channels int

const (
	Mono   Channels = 1
	Stereo Channels = 2
)

// ParseChannels parses "mono", "stereo", "1" or "2"
func ParseChannels(s string) (Channels, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mono", "1":
		return Mono, nil
	case "stereo", "2":
		return Stereo, nil
	}
	return 0, fmt.Errorf("unsupported channel layout: %q (supported: mono, stereo)", s)
}

// Valid reports whether c is Mono or Stereo
func (c Channels) Valid() bool {
	return c == Mono || c == Stereo
}

func (c Channels) String() string {
	switch c {
	case Mono:
		return "mono"
	case Stereo:
		return "stereo"
	}
	return strconv.Itoa(int(c))
}

// UnmarshalText lets config files spell the layout as a word
func (c *Channels) UnmarshalText(text []byte) error {
	parsed, err := ParseChannels(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalText renders the layout as a word
func (c Channels) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// FloatToInt16 converts a nominal [-1.0, 1.0] sample to int16.
// Out-of-range values clamp to the int16 bounds instead of wrapping.
func FloatToInt16(sample float64) int16 {
	if math.IsNaN(sample) {
		return 0
	}
	scaled := math.Round(sample * 32768)
	if scaled > MaxInt16 {
		return MaxInt16
	}
	if scaled < MinInt16 {
		return MinInt16
	}
	return int16(scaled)
}

// Int16ToFloat converts an int16 sample back to the [-1.0, 1.0) range
func Int16ToFloat(sample int16) float64 {
	return float64(sample) / 32768
}

// Int16ToBytes packs samples as little-endian PCM16
func Int16ToBytes(samples []int16) []byte {
	output := make([]byte, len(samples)*BytesPerSample)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(output[i*BytesPerSample:], uint16(sample))
	}
	return output
}

// BytesToInt16 unpacks little-endian PCM16; a trailing odd byte is ignored
func BytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/BytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*BytesPerSample:]))
	}
	return samples
}
