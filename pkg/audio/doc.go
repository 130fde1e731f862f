// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Channels and float/int16 sample conversion
// Package audio provides fundamental audio types and utilities for speech encoding.
//
// This package defines core types used throughout speechenc:
//   - Format: Describes an encoded stream (codec, sample rate, channels, bit depth)
//   - Channels: Mono or Stereo output layout
//
// It also provides utilities for converting synthesized samples:
//   - float64 → int16 with rounding and clamping
//   - int16 ↔ little-endian byte conversions
//
// Example:
//
//	pcm := make([]int16, len(samples))
//	for i, s := range samples {
//	    pcm[i] = audio.FloatToInt16(s)
//	}
//	data := audio.Int16ToBytes(pcm)
package audio
