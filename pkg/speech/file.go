// ABOUTME: File-backed sample generators
// ABOUTME: Decodes pre-rendered MP3 and FLAC speech into mono float samples
package speech

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"

	"github.com/Resonate-Protocol/speechenc/pkg/audio"
)

// Open decodes an audio file into a generator with the given synthesis period.
// Supported formats: MP3, FLAC
func Open(path string, period int) (*SliceGenerator, error) {
	if period <= 0 {
		return nil, fmt.Errorf("invalid synthesis period: %d", period)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	ext := strings.ToLower(filepath.Ext(path))

	var gen *SliceGenerator
	switch ext {
	case ".mp3":
		gen, err = DecodeMP3(f, period)
	case ".flac":
		gen, err = DecodeFLAC(f, period)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac)", ext)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded %s: %d samples at %d Hz (period %d)",
		filepath.Base(path), gen.Len(), gen.SamplingFrequency(), period)

	return gen, nil
}

// OpenAt decodes an audio file and resamples it to cond.SamplingFrequency
func OpenAt(path string, cond Condition) (*SliceGenerator, error) {
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	gen, err := Open(path, cond.Period)
	if err != nil {
		return nil, err
	}
	if gen.SamplingFrequency() != cond.SamplingFrequency {
		log.Printf("Resampling %s from %d Hz to %d Hz", filepath.Base(path), gen.SamplingFrequency(), cond.SamplingFrequency)
		gen = gen.Resample(cond.SamplingFrequency)
	}
	return gen, nil
}

// DecodeMP3 decodes a whole MP3 stream, downmixed to mono
func DecodeMP3(r io.Reader, period int) (*SliceGenerator, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	// MP3 decoder outputs interleaved stereo int16
	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("mp3 decode error: %w", err)
	}

	pcm := audio.BytesToInt16(data)
	samples := make([]float64, len(pcm)/2)
	for i := range samples {
		left := audio.Int16ToFloat(pcm[i*2])
		right := audio.Int16ToFloat(pcm[i*2+1])
		samples[i] = (left + right) / 2
	}

	cond := Condition{SamplingFrequency: decoder.SampleRate(), Period: period}
	return FromSamples(cond, samples), nil
}

// DecodeFLAC decodes a whole FLAC stream, downmixed to mono
func DecodeFLAC(r io.Reader, period int) (*SliceGenerator, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bitDepth := int(info.BitsPerSample)
	if channels == 0 || bitDepth == 0 {
		return nil, fmt.Errorf("invalid FLAC stream info: %d channels, %d bits", channels, bitDepth)
	}
	scale := float64(int64(1) << (bitDepth - 1))

	var samples []float64
	for {
		frame, err := stream.ParseNext()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("flac decode error: %w", err)
		}

		for i := 0; i < int(frame.BlockSize); i++ {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += float64(frame.Subframes[ch].Samples[i])
			}
			samples = append(samples, sum/float64(channels)/scale)
		}
	}

	cond := Condition{SamplingFrequency: int(info.SampleRate), Period: period}
	return FromSamples(cond, samples), nil
}
