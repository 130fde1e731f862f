// ABOUTME: Audio output using oto library
// ABOUTME: Streams PCM16 into a single oto player with software volume control
package player

import (
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Resonate-Protocol/speechenc/pkg/audio"
)

// Output plays a continuous PCM16 stream on the default device
type Output struct {
	otoCtx *oto.Context
	player *oto.Player
	writer *io.PipeWriter

	format audio.Format
	volume int
	muted  bool
	mu     sync.Mutex
}

// NewOutput opens the audio device for sampleRate and channels.
// oto allows one context per process.
func NewOutput(sampleRate, channels int) (*Output, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	reader, writer := io.Pipe()
	player := ctx.NewPlayer(reader)
	player.Play()

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)

	return &Output{
		otoCtx: ctx,
		player: player,
		writer: writer,
		format: audio.Format{Codec: "pcm", SampleRate: sampleRate, Channels: channels, BitDepth: 16},
		volume: 100,
	}, nil
}

// Write queues interleaved samples; blocks while the device buffer is full
func (o *Output) Write(samples []int16) error {
	o.mu.Lock()
	volume, muted := o.volume, o.muted
	o.mu.Unlock()

	samples = applyVolume(samples, volume, muted)
	if _, err := o.writer.Write(audio.Int16ToBytes(samples)); err != nil {
		return fmt.Errorf("audio write failed: %w", err)
	}
	return nil
}

// SetVolume sets the volume (0-100)
func (o *Output) SetVolume(volume int) {
	volume = max(0, min(volume, 100))

	o.mu.Lock()
	o.volume = volume
	o.mu.Unlock()
	log.Printf("Volume set to %d", volume)
}

// SetMuted sets mute state
func (o *Output) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
	log.Printf("Muted: %v", muted)
}

// Format returns the device format
func (o *Output) Format() audio.Format {
	return o.format
}

// Close drains queued audio then releases the player
func (o *Output) Close() error {
	o.writer.Close()

	deadline := time.Now().Add(2 * time.Second)
	for o.player.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	o.player.Pause()
	if err := o.otoCtx.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend audio context: %w", err)
	}
	return nil
}

// applyVolume applies volume and mute to samples
func applyVolume(samples []int16, volume int, muted bool) []int16 {
	multiplier := getVolumeMultiplier(volume, muted)
	if multiplier == 1.0 {
		return samples
	}

	result := make([]int16, len(samples))
	for i, sample := range samples {
		result[i] = int16(float64(sample) * multiplier)
	}

	return result
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
