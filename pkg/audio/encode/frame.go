// ABOUTME: Frame arithmetic for the Opus backend
// ABOUTME: Derives chunk sizes from synthesis conditions and the 20ms codec frame
package encode

import (
	"fmt"
	"slices"
	"time"

	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

const (
	// FrameDurationMs is the Opus frame duration produced by each Generate call
	FrameDurationMs = 20

	// MaxPacketSize bounds a single-frame Opus packet: one TOC byte plus
	// the 1275-byte maximum frame length (RFC 6716 section 3.2.1)
	MaxPacketSize = 1 + 1275
)

// SupportedSampleRates are the sampling frequencies Opus accepts
var SupportedSampleRates = []int{8000, 12000, 16000, 24000, 48000}

// IsSupportedSampleRate reports whether Opus accepts sampleRate
func IsSupportedSampleRate(sampleRate int) bool {
	return slices.Contains(SupportedSampleRates, sampleRate)
}

// OpusChunkSize returns the number of synthesis periods in one 20ms frame
func OpusChunkSize(cond speech.Condition) int {
	return cond.StepsPerSecond() * FrameDurationMs / 1000
}

// OpusFrameSize returns the samples per channel in one 20ms frame
func OpusFrameSize(sampleRate int) int {
	return sampleRate * FrameDurationMs / 1000
}

// deriveOpusChunkSize computes the chunk size and verifies that it covers
// exactly one 20ms frame
func deriveOpusChunkSize(cond speech.Condition) (int, error) {
	if !IsSupportedSampleRate(cond.SamplingFrequency) {
		return 0, fmt.Errorf("%w: %d Hz (supported: %v)",
			ErrUnsupportedSampleRate, cond.SamplingFrequency, SupportedSampleRates)
	}

	chunkSize := OpusChunkSize(cond)
	frameSize := OpusFrameSize(cond.SamplingFrequency)
	if chunkSize == 0 || chunkSize*cond.Period != frameSize {
		return 0, fmt.Errorf("%w: period %d at %d Hz does not align with %dms frames (%d periods = %d samples, need %d)",
			ErrInvalidConfig, cond.Period, cond.SamplingFrequency, FrameDurationMs,
			chunkSize, chunkSize*cond.Period, frameSize)
	}

	return chunkSize, nil
}

// ChunkDuration returns the playback duration of one chunk
func ChunkDuration(cond speech.Condition, chunkSize int) time.Duration {
	return cond.Duration(chunkSize * cond.Period)
}
