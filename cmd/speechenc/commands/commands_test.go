// ABOUTME: Tests for CLI helpers
// ABOUTME: Tests file encoding, flag overrides and the version command
package commands

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/speechenc/internal/config"
	"github.com/Resonate-Protocol/speechenc/pkg/audio"
	"github.com/Resonate-Protocol/speechenc/pkg/audio/encode"
	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

func TestEncodeToRawTrimsPadding(t *testing.T) {
	cond := speech.Condition{SamplingFrequency: 8000, Period: 80}
	gen := speech.FromSamples(cond, make([]float64, 250))

	var buf bytes.Buffer
	stats, err := encodeTo(&buf, gen, encode.Config{Type: encode.TypeRaw, Channels: audio.Stereo, ChunkSize: 2})
	if err != nil {
		t.Fatalf("encodeTo() failed: %v", err)
	}

	if stats.chunks != 2 || stats.samples != 250 {
		t.Errorf("stats = %+v, want 2 chunks / 250 samples", stats)
	}
	if want := 250 * 2 * audio.BytesPerSample; buf.Len() != want || stats.bytes != want {
		t.Errorf("wrote %d bytes (stats %d), want %d", buf.Len(), stats.bytes, want)
	}
	if stats.duration != 31250*time.Microsecond {
		t.Errorf("duration = %v, want 31.25ms", stats.duration)
	}
}

func TestEncodeToOpusContainer(t *testing.T) {
	cond := speech.Condition{SamplingFrequency: 48000, Period: 240}
	gen := speech.NewTone(cond, 440, 100*time.Millisecond)

	var buf bytes.Buffer
	stats, err := encodeTo(&buf, gen, encode.Config{Type: encode.TypeOpus, Channels: audio.Mono})
	if err != nil {
		t.Fatalf("encodeTo() failed: %v", err)
	}
	if stats.chunks != 5 || stats.bytes != buf.Len() {
		t.Errorf("stats = %+v, buffer %d bytes", stats, buf.Len())
	}

	packets := 0
	for {
		packet, err := encode.ReadFrame(&buf)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadFrame() failed: %v", err)
		}
		if len(packet) == 0 || len(packet) > encode.MaxPacketSize {
			t.Errorf("packet %d size %d out of range", packets, len(packet))
		}
		packets++
	}
	if packets != 5 {
		t.Errorf("read %d packets, want 5", packets)
	}
}

func TestEncodeToUnsupportedRate(t *testing.T) {
	cond := speech.Condition{SamplingFrequency: 44100, Period: 441}
	_, err := encodeTo(io.Discard, speech.NewTone(cond, 440, time.Second), encode.Config{Type: encode.TypeOpus})
	if !errors.Is(err, encode.ErrUnsupportedSampleRate) {
		t.Errorf("encodeTo() error = %v, want ErrUnsupportedSampleRate", err)
	}
}

func newFlagCommand(args ...string) (*cobra.Command, *encoderFlags, *sourceFlags) {
	cmd := &cobra.Command{Use: "test"}
	ef, sf := &encoderFlags{}, &sourceFlags{}
	ef.register(cmd)
	sf.register(cmd)
	cmd.Flags().Parse(args)
	return cmd, ef, sf
}

func TestEncoderFlagsOverrideOnlyChanged(t *testing.T) {
	cmd, ef, _ := newFlagCommand("--channels", "mono")

	config := encode.Config{Type: encode.TypeOpus, Channels: audio.Stereo, Mode: encode.ModeAudio, Bitrate: 24000}
	if err := ef.apply(cmd, &config); err != nil {
		t.Fatalf("apply() failed: %v", err)
	}
	want := encode.Config{Type: encode.TypeOpus, Channels: audio.Mono, Mode: encode.ModeAudio, Bitrate: 24000}
	if config != want {
		t.Errorf("config = %+v, want %+v", config, want)
	}
}

func TestEncoderFlagsTypeSwitchResetsBackendFields(t *testing.T) {
	cmd, ef, _ := newFlagCommand("-t", "raw")

	config := encode.Config{Type: encode.TypeOpus, Channels: audio.Stereo, Mode: encode.ModeVoIP, Bitrate: 24000}
	if err := ef.apply(cmd, &config); err != nil {
		t.Fatalf("apply() failed: %v", err)
	}
	if config.Type != encode.TypeRaw || config.Bitrate != 0 || config.ChunkSize != encode.DefaultRawChunkSize {
		t.Errorf("unexpected config after switch: %+v", config)
	}
}

func TestEncoderFlagsInvalid(t *testing.T) {
	for _, args := range [][]string{
		{"-t", "wav"},
		{"--channels", "quad"},
		{"-t", "opus", "--mode", "music"},
		{"-t", "raw", "--bitrate", "8000"},
	} {
		cmd, ef, _ := newFlagCommand(args...)
		config := encode.Config{}.WithDefaults()
		if err := ef.apply(cmd, &config); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestSourceFlagsAndGenerator(t *testing.T) {
	cmd, _, sf := newFlagCommand("-r", "16000", "-p", "160", "--tone", "300", "-d", "50ms")

	source := config.Default().Source
	sf.apply(cmd, &source)

	gen, err := newGenerator(source)
	if err != nil {
		t.Fatalf("newGenerator() failed: %v", err)
	}
	if gen.SamplingFrequency() != 16000 || gen.Period() != 160 {
		t.Errorf("unexpected condition: %+v", speech.ConditionOf(gen))
	}
	tone, ok := gen.(*speech.ToneGenerator)
	if !ok {
		t.Fatalf("expected tone generator, got %T", gen)
	}
	if tone.Total() != 800 {
		t.Errorf("tone total = %d, want 800", tone.Total())
	}
}

func TestNewGeneratorErrors(t *testing.T) {
	source := config.Default().Source
	source.Period = 0
	if _, err := newGenerator(source); err == nil {
		t.Error("expected error for zero period")
	}

	source = config.Default().Source
	source.Duration = 0
	if _, err := newGenerator(source); err == nil {
		t.Error("expected error for zero duration")
	}

	source = config.Default().Source
	source.File = "speech.ogg"
	if _, err := newGenerator(source); err == nil {
		t.Error("expected error for unsupported file")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "speechenc ") {
		t.Errorf("unexpected output: %q", out.String())
	}
}

func TestSourceTitle(t *testing.T) {
	tests := []struct {
		name   string
		source config.SourceConfig
		want   string
	}{
		{"tone", config.SourceConfig{ToneHz: 440}, "Test Tone (440Hz)"},
		{"file", config.SourceConfig{File: "/tmp/voices/greeting.flac"}, "greeting.flac"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sourceTitle(tt.source); got != tt.want {
				t.Errorf("sourceTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetupLoggingFileOnly(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	path := filepath.Join(t.TempDir(), "serve.log")
	if err := setupLogging(path, false); err != nil {
		t.Fatalf("setupLogging() failed: %v", err)
	}
	log.Printf("status screen active")
	if err := setupLogging("", true); err != nil {
		t.Fatalf("setupLogging() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	if !strings.Contains(string(data), "status screen active") {
		t.Errorf("log file missing entry: %q", data)
	}
	if logOutput != nil {
		t.Error("expected previous log file to be closed")
	}
}
