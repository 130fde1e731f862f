// ABOUTME: Shared encoder and source flags
// ABOUTME: Flags override profile values only when set on the command line
package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/speechenc/internal/config"
	"github.com/Resonate-Protocol/speechenc/pkg/audio"
	"github.com/Resonate-Protocol/speechenc/pkg/audio/encode"
	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

type encoderFlags struct {
	typ       string
	channels  string
	mode      string
	chunkSize int
	bitrate   int
}

func (f *encoderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.typ, "type", "t", "", "output type: raw or opus")
	cmd.Flags().StringVar(&f.channels, "channels", "", "output channels: mono or stereo")
	cmd.Flags().StringVar(&f.mode, "mode", "", "opus mode: voip, audio or lowdelay")
	cmd.Flags().IntVar(&f.chunkSize, "chunk-size", 0, "synthesis periods per raw chunk")
	cmd.Flags().IntVar(&f.bitrate, "bitrate", 0, "opus bitrate in bits per second")
}

// apply overrides config fields whose flags were set
func (f *encoderFlags) apply(cmd *cobra.Command, config *encode.Config) error {
	flags := cmd.Flags()

	if flags.Changed("type") {
		typ, err := encode.ParseType(f.typ)
		if err != nil {
			return err
		}
		if typ != config.Type {
			// Backend specific defaults do not carry over
			config.ChunkSize = 0
			config.Bitrate = 0
		}
		config.Type = typ
	}
	if flags.Changed("channels") {
		channels, err := audio.ParseChannels(f.channels)
		if err != nil {
			return err
		}
		config.Channels = channels
	}
	if flags.Changed("mode") {
		mode, err := encode.ParseMode(f.mode)
		if err != nil {
			return err
		}
		config.Mode = mode
	}
	if flags.Changed("chunk-size") {
		config.ChunkSize = f.chunkSize
	}
	if flags.Changed("bitrate") {
		config.Bitrate = f.bitrate
	}

	*config = config.WithDefaults()
	return config.Validate()
}

type sourceFlags struct {
	rate     int
	period   int
	file     string
	toneHz   float64
	duration time.Duration
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.rate, "rate", "r", 0, "sampling frequency in Hz")
	cmd.Flags().IntVarP(&f.period, "period", "p", 0, "samples per synthesis period")
	cmd.Flags().StringVarP(&f.file, "input", "i", "", "MP3 or FLAC speech file (default: test tone)")
	cmd.Flags().Float64Var(&f.toneHz, "tone", 0, "test tone frequency in Hz")
	cmd.Flags().DurationVarP(&f.duration, "duration", "d", 0, "test tone duration")
}

// apply overrides source fields whose flags were set
func (f *sourceFlags) apply(cmd *cobra.Command, source *config.SourceConfig) {
	flags := cmd.Flags()

	if flags.Changed("rate") {
		source.SamplingFrequency = f.rate
	}
	if flags.Changed("period") {
		source.Period = f.period
	}
	if flags.Changed("input") {
		source.File = f.file
	}
	if flags.Changed("tone") {
		source.ToneHz = f.toneHz
	}
	if flags.Changed("duration") {
		source.Duration = f.duration
	}
}

// newGenerator creates the generator described by source
func newGenerator(source config.SourceConfig) (speech.Generator, error) {
	cond := source.Condition()
	if err := cond.Validate(); err != nil {
		return nil, err
	}

	if source.File != "" {
		return speech.OpenAt(source.File, cond)
	}

	if source.ToneHz <= 0 || source.Duration <= 0 {
		return nil, fmt.Errorf("tone needs a positive frequency and duration (got %v Hz, %v)", source.ToneHz, source.Duration)
	}
	return speech.NewTone(cond, source.ToneHz, source.Duration), nil
}
