// ABOUTME: Unit tests for the Opus codec adapter and encoder
// ABOUTME: Tests frame derivation, packet trimming and error handling
package encode

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Resonate-Protocol/speechenc/pkg/audio"
	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

func TestNewOpusCodec(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate int
		channels   audio.Channels
		mode       Mode
		frameSize  int
		wantErr    error
	}{
		{"48kHz stereo voip", 48000, audio.Stereo, ModeVoIP, 960, nil},
		{"16kHz mono audio", 16000, audio.Mono, ModeAudio, 320, nil},
		{"8kHz mono lowdelay", 8000, audio.Mono, ModeLowDelay, 160, nil},
		{"unsupported rate", 44100, audio.Stereo, ModeVoIP, 882, ErrUnsupportedSampleRate},
		{"invalid channels", 48000, audio.Channels(5), ModeVoIP, 960, ErrInvalidConfig},
		{"invalid mode", 48000, audio.Stereo, Mode("music"), 960, ErrInvalidConfig},
		{"zero frame size", 48000, audio.Stereo, ModeVoIP, 0, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := NewOpusCodec(tt.sampleRate, tt.channels, tt.mode, tt.frameSize)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewOpusCodec() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOpusCodec() unexpected error = %v", err)
			}
			defer codec.Close()

			if codec.FrameSize() != tt.frameSize {
				t.Errorf("FrameSize() = %d, want %d", codec.FrameSize(), tt.frameSize)
			}
		})
	}
}

func TestOpusCodec_Encode(t *testing.T) {
	codec, err := NewOpusCodec(48000, audio.Stereo, ModeVoIP, 960)
	if err != nil {
		t.Fatalf("NewOpusCodec() failed: %v", err)
	}
	defer codec.Close()

	pcm := make([]int16, 960*2)
	for i := range pcm {
		pcm[i] = int16((i % 100) * 300) // Simple ramp pattern
	}

	packet, err := codec.Encode(pcm)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	if len(packet) == 0 {
		t.Error("Encode() returned empty packet")
	}
	if len(packet) > MaxPacketSize {
		t.Errorf("Encode() packet size %d exceeds max %d", len(packet), MaxPacketSize)
	}
	// Trimmed to the codec-reported length, not the working buffer
	if cap(packet) != len(packet) {
		t.Errorf("Encode() packet cap %d != len %d", cap(packet), len(packet))
	}
}

func TestOpusCodec_EncodeSilence(t *testing.T) {
	codec, err := NewOpusCodec(48000, audio.Mono, ModeVoIP, 960)
	if err != nil {
		t.Fatalf("NewOpusCodec() failed: %v", err)
	}

	packet, err := codec.Encode(make([]int16, 960))
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	// Even silence should produce a valid packet
	if len(packet) == 0 {
		t.Error("Encode() returned empty packet for silence")
	}
	if len(packet) > 100 {
		t.Logf("silence encoded to %d bytes (expected very small)", len(packet))
	}
}

func TestOpusCodec_EncodeWrongFrameSize(t *testing.T) {
	codec, err := NewOpusCodec(48000, audio.Stereo, ModeVoIP, 960)
	if err != nil {
		t.Fatalf("NewOpusCodec() failed: %v", err)
	}

	sizes := []int{0, 960, 960*2 - 1, 960*2 + 2}
	for _, size := range sizes {
		_, err := codec.Encode(make([]int16, size))
		if !errors.Is(err, ErrFrameSize) {
			t.Errorf("Encode(%d samples) error = %v, want ErrFrameSize", size, err)
		}
	}
}

func TestOpusCodec_PacketsAreIndependent(t *testing.T) {
	codec, err := NewOpusCodec(16000, audio.Mono, ModeVoIP, 320)
	if err != nil {
		t.Fatalf("NewOpusCodec() failed: %v", err)
	}

	pcm := make([]int16, 320)
	for i := range pcm {
		pcm[i] = int16(i * 50)
	}

	first, err := codec.Encode(pcm)
	if err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}
	saved := append([]byte(nil), first...)

	for i := range pcm {
		pcm[i] = -pcm[i]
	}
	if _, err := codec.Encode(pcm); err != nil {
		t.Fatalf("Encode() failed: %v", err)
	}

	for i := range saved {
		if first[i] != saved[i] {
			t.Fatalf("byte %d of first packet changed after next Encode()", i)
		}
	}
}

func TestNewOpus(t *testing.T) {
	tests := []struct {
		name    string
		cond    speech.Condition
		config  Config
		wantErr error
		chunk   int
	}{
		{
			name:   "48kHz period 240 defaults",
			cond:   speech.Condition{SamplingFrequency: 48000, Period: 240},
			config: Config{Type: TypeOpus},
			chunk:  4,
		},
		{
			name:   "24kHz period 240 mono",
			cond:   speech.Condition{SamplingFrequency: 24000, Period: 240},
			config: Config{Type: TypeOpus, Channels: audio.Mono},
			chunk:  2,
		},
		{
			name:   "explicit matching chunk size",
			cond:   speech.Condition{SamplingFrequency: 48000, Period: 240},
			config: Config{Type: TypeOpus, ChunkSize: 4},
			chunk:  4,
		},
		{
			name:   "with bitrate",
			cond:   speech.Condition{SamplingFrequency: 48000, Period: 240},
			config: Config{Type: TypeOpus, Bitrate: 24000},
			chunk:  4,
		},
		{
			name:    "explicit conflicting chunk size",
			cond:    speech.Condition{SamplingFrequency: 48000, Period: 240},
			config:  Config{Type: TypeOpus, ChunkSize: 3},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unsupported sampling frequency",
			cond:    speech.Condition{SamplingFrequency: 44100, Period: 441},
			config:  Config{Type: TypeOpus},
			wantErr: ErrUnsupportedSampleRate,
		},
		{
			name:    "period misaligned with 20ms",
			cond:    speech.Condition{SamplingFrequency: 48000, Period: 256},
			config:  Config{Type: TypeOpus},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "period longer than a frame",
			cond:    speech.Condition{SamplingFrequency: 8000, Period: 400},
			config:  Config{Type: TypeOpus},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "invalid condition",
			cond:    speech.Condition{SamplingFrequency: 48000},
			config:  Config{Type: TypeOpus},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "wrong type",
			cond:    speech.Condition{SamplingFrequency: 48000, Period: 240},
			config:  Config{Type: TypeRaw},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := NewOpus(tt.cond, tt.config)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("NewOpus() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewOpus() unexpected error = %v", err)
			}
			defer encoder.Close()

			if encoder.ChunkSize() != tt.chunk {
				t.Errorf("ChunkSize() = %d, want %d", encoder.ChunkSize(), tt.chunk)
			}
		})
	}
}

func TestOpusEncoder_Generate(t *testing.T) {
	cond := speech.Condition{SamplingFrequency: 48000, Period: 240}
	encoder, err := NewOpus(cond, Config{Type: TypeOpus})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	gen := speech.NewTone(cond, 440, 100*time.Millisecond)

	frames := 0
	for {
		packet, err := encoder.Generate(gen)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Generate() frame %d failed: %v", frames, err)
		}
		if len(packet) == 0 {
			t.Fatalf("frame %d produced empty output", frames)
		}
		if len(packet) > MaxPacketSize {
			t.Errorf("frame %d size %d exceeds max %d", frames, len(packet), MaxPacketSize)
		}
		if encoder.Samples() != 960 {
			t.Errorf("frame %d Samples() = %d, want 960", frames, encoder.Samples())
		}
		frames++
	}

	if frames != 5 {
		t.Errorf("expected 5 frames for 100ms, got %d", frames)
	}
}

func TestOpusEncoder_ExhaustedMidChunk(t *testing.T) {
	cond := speech.Condition{SamplingFrequency: 48000, Period: 240}
	encoder, err := NewOpus(cond, Config{Type: TypeOpus, Channels: audio.Mono})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}
	defer encoder.Close()

	// One full frame plus 40 samples
	gen := speech.FromSamples(cond, constantSamples(1000, 0.1))

	if _, err := encoder.Generate(gen); err != nil {
		t.Fatalf("first Generate() failed: %v", err)
	}
	if encoder.Samples() != 960 {
		t.Errorf("first Samples() = %d, want 960", encoder.Samples())
	}

	packet, err := encoder.Generate(gen)
	if err != nil {
		t.Fatalf("second Generate() failed: %v", err)
	}
	if len(packet) == 0 {
		t.Error("padded final frame produced empty output")
	}
	if encoder.Samples() != 40 {
		t.Errorf("second Samples() = %d, want 40", encoder.Samples())
	}

	if _, err := encoder.Generate(gen); err != io.EOF {
		t.Errorf("third Generate() error = %v, want io.EOF", err)
	}
}

func TestOpusEncoder_Format(t *testing.T) {
	cond := speech.Condition{SamplingFrequency: 16000, Period: 80}
	encoder, err := NewOpus(cond, Config{Type: TypeOpus, Channels: audio.Mono, Mode: ModeAudio})
	if err != nil {
		t.Fatalf("NewOpus() failed: %v", err)
	}

	format := encoder.Format()
	if format.Codec != "opus" || format.SampleRate != 16000 || format.Channels != 1 {
		t.Errorf("unexpected format: %+v", format)
	}

	opusEncoder, ok := encoder.(*OpusEncoder)
	if !ok {
		t.Fatalf("expected *OpusEncoder, got %T", encoder)
	}
	if opusEncoder.Mode() != ModeAudio {
		t.Errorf("Mode() = %s, want %s", opusEncoder.Mode(), ModeAudio)
	}
}
