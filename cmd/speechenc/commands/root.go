// ABOUTME: Root command for the speechenc CLI
// ABOUTME: Loads the YAML profile and routes logs to stdout and a log file
package commands

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/speechenc/internal/config"
)

var (
	configFile string
	logFile    string

	// cfg is loaded before any subcommand runs
	cfg config.Config

	logOutput *os.File
)

var rootCmd = &cobra.Command{
	Use:   "speechenc",
	Short: "Speech encoding pipeline",
	Long: `Encode synthesized speech to raw PCM16 or Opus.

A source (test tone or MP3/FLAC file) is pulled one synthesis period at a
time, converted to 16-bit PCM, grouped into chunks and encoded.

Example profile (speechenc.yaml):
  encoder:
    type: opus
    channels: mono
    mode: voip
  source:
    sampling_frequency: 48000
    period: 240
    tone_hz: 440
    duration: 3s`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded

		if cmd.Flags().Changed("log-file") {
			cfg.Log.File = logFile
		}
		return setupLogging(cfg.Log.File, true)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logOutput != nil {
			logOutput.Close()
		}
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML profile path")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "log file path (empty logs to stdout only)")
}

// setupLogging logs to the file, and to stdout as well when console is set
func setupLogging(path string, console bool) error {
	if logOutput != nil {
		logOutput.Close()
		logOutput = nil
	}

	if path == "" {
		if console {
			log.SetOutput(os.Stdout)
		} else {
			log.SetOutput(io.Discard)
		}
		return nil
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	logOutput = f

	if console {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	} else {
		// TUI mode: log only to file
		log.SetOutput(f)
	}
	return nil
}
