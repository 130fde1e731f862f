// ABOUTME: play command
// ABOUTME: Connects to a server, decodes the stream and plays or saves it
package commands

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/speechenc/internal/client"
	"github.com/Resonate-Protocol/speechenc/internal/discovery"
	"github.com/Resonate-Protocol/speechenc/internal/player"
	"github.com/Resonate-Protocol/speechenc/internal/protocol"
	"github.com/Resonate-Protocol/speechenc/pkg/audio"
)

var (
	playServer   string
	playName     string
	playType     string
	playChannels string
	playMode     string
	playBitrate  int
	playVolume   int
	playOutput   string
	playTimeout  time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Receive a stream and play it",
	Long: `Connect to a speechenc server and play the stream on the default audio device.

Without --server the first server found via mDNS is used.
With -o the decoded PCM16 is written to a file instead of played.

Examples:
  speechenc play
  speechenc play --server 192.168.1.20:8927 -t raw --channels mono -o speech.pcm`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		addr := playServer
		if addr == "" {
			discoverCtx, cancel := context.WithTimeout(ctx, playTimeout)
			server, err := discovery.Discover(discoverCtx)
			cancel()
			if err != nil {
				return err
			}
			addr = server.Addr()
		}

		c := client.NewClient(client.Config{
			ServerAddr: addr,
			Name:       playName,
			Encoder:    playRequest(cmd),
		})
		if err := c.Connect(ctx); err != nil {
			return err
		}
		defer c.Close()

		// Unblock reads when interrupted
		go func() {
			<-ctx.Done()
			c.Close()
		}()

		start, err := c.ReadStart()
		if err != nil {
			return err
		}

		sink, closeSink, err := openSink(start)
		if err != nil {
			return err
		}

		stats, err := player.Play(start, c, sink)
		if cerr := closeSink(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}

		log.Printf("Played %d frames, %d samples (%v)", stats.Frames, stats.Samples,
			time.Duration(stats.Samples)*time.Second/time.Duration(start.SampleRate))
		return nil
	},
}

func init() {
	playCmd.Flags().StringVar(&playServer, "server", "", "server address host:port (default: discover via mDNS)")
	playCmd.Flags().StringVar(&playName, "name", "", "client name reported to the server")
	playCmd.Flags().StringVarP(&playType, "type", "t", "", "request output type: raw or opus")
	playCmd.Flags().StringVar(&playChannels, "channels", "", "request channels: mono or stereo")
	playCmd.Flags().StringVar(&playMode, "mode", "", "request opus mode: voip, audio or lowdelay")
	playCmd.Flags().IntVar(&playBitrate, "bitrate", 0, "request opus bitrate in bits per second")
	playCmd.Flags().IntVar(&playVolume, "volume", 100, "playback volume 0-100")
	playCmd.Flags().StringVarP(&playOutput, "output", "o", "", "write decoded PCM16 to a file instead of playing")
	playCmd.Flags().DurationVar(&playTimeout, "discover-timeout", 10*time.Second, "how long to browse for a server")
	rootCmd.AddCommand(playCmd)
}

// playRequest builds the encoder request from flags; nil keeps server defaults
func playRequest(cmd *cobra.Command) *protocol.EncoderRequest {
	flags := cmd.Flags()
	if !flags.Changed("type") && !flags.Changed("channels") && !flags.Changed("mode") && !flags.Changed("bitrate") {
		return nil
	}

	req := &protocol.EncoderRequest{Type: playType, Mode: playMode, Bitrate: playBitrate}
	if playChannels != "" {
		if channels, err := audio.ParseChannels(playChannels); err == nil {
			req.Channels = int(channels)
		} else {
			log.Printf("Ignoring --channels: %v", err)
		}
	}
	return req
}

// pcmFile writes decoded samples as little-endian PCM16
type pcmFile struct {
	w *bufio.Writer
}

func (p *pcmFile) Write(samples []int16) error {
	_, err := p.w.Write(audio.Int16ToBytes(samples))
	return err
}

func openSink(start protocol.StreamStart) (player.Sink, func() error, error) {
	if playOutput != "" {
		f, err := os.Create(playOutput)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create output: %w", err)
		}
		sink := &pcmFile{w: bufio.NewWriter(f)}
		return sink, func() error {
			if err := sink.w.Flush(); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		}, nil
	}

	out, err := player.NewOutput(start.SampleRate, start.Channels)
	if err != nil {
		return nil, nil, err
	}
	out.SetVolume(playVolume)
	return out, out.Close, nil
}
