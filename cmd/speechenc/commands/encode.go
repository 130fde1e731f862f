// ABOUTME: encode command
// ABOUTME: Encodes a source to a raw PCM16 file or a length-prefixed Opus packet file
package commands

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/speechenc/pkg/audio"
	"github.com/Resonate-Protocol/speechenc/pkg/audio/encode"
	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

var (
	encodeEncoder encoderFlags
	encodeSource  sourceFlags
	encodeOutput  string
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a source to a file",
	Long: `Encode a test tone or speech file.

Raw output is interleaved little-endian PCM16 with final-chunk padding removed.
Opus output is a sequence of packets, each prefixed by a 2-byte big-endian length.

Examples:
  speechenc encode -t raw --channels mono -o tone.pcm
  speechenc encode -t opus -i speech.flac -r 16000 -p 160 -o speech.opus`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if encodeOutput == "" {
			return fmt.Errorf("output file is required, use -o flag")
		}
		if err := encodeEncoder.apply(cmd, &cfg.Encoder); err != nil {
			return err
		}
		encodeSource.apply(cmd, &cfg.Source)

		gen, err := newGenerator(cfg.Source)
		if err != nil {
			return err
		}

		f, err := os.Create(encodeOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()

		w := bufio.NewWriter(f)
		stats, err := encodeTo(w, gen, cfg.Encoder)
		if err != nil {
			return err
		}
		if err := w.Flush(); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}

		log.Printf("Wrote %s: %d chunks, %d samples (%v), %d bytes",
			encodeOutput, stats.chunks, stats.samples, stats.duration, stats.bytes)
		return nil
	},
}

func init() {
	encodeEncoder.register(encodeCmd)
	encodeSource.register(encodeCmd)
	encodeCmd.Flags().StringVarP(&encodeOutput, "output", "o", "", "output file path")
	rootCmd.AddCommand(encodeCmd)
}

type encodeStats struct {
	chunks   int
	samples  int
	bytes    int
	duration time.Duration
}

// encodeTo drains gen through an encoder built from config into w
func encodeTo(w io.Writer, gen speech.Generator, config encode.Config) (encodeStats, error) {
	var stats encodeStats

	cond := speech.ConditionOf(gen)
	encoder, err := encode.New(cond, config)
	if err != nil {
		return stats, err
	}
	defer encoder.Close()

	format := encoder.Format()
	log.Printf("Encoding %s %dHz %dch, %d periods per chunk", format.Codec, format.SampleRate, format.Channels, encoder.ChunkSize())

	for {
		data, err := encoder.Generate(gen)
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("chunk %d: %w", stats.chunks, err)
		}

		switch format.Codec {
		case "raw":
			// Padding is only meaningful inside a chunk; drop it from the file
			data = data[:encoder.Samples()*format.Channels*audio.BytesPerSample]
			if _, err := w.Write(data); err != nil {
				return stats, fmt.Errorf("failed to write output: %w", err)
			}
			stats.bytes += len(data)
		default:
			if err := encode.WriteFrame(w, data); err != nil {
				return stats, err
			}
			stats.bytes += len(data) + 2
		}

		stats.chunks++
		stats.samples += encoder.Samples()
	}

	stats.duration = cond.Duration(stats.samples)
	return stats, nil
}
