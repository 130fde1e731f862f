// ABOUTME: serve command
// ABOUTME: Streams encoded speech to WebSocket clients until interrupted
package commands

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/speechenc/internal/config"
	"github.com/Resonate-Protocol/speechenc/internal/server"
	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

var (
	serveEncoder encoderFlags
	serveSource  sourceFlags
	servePort    int
	serveName    string
	serveNoMDNS  bool
	serveBurst   bool
	serveNoTUI   bool
)

// defaultServeLogFile keeps logs off the terminal while the TUI owns it
const defaultServeLogFile = "speechenc-serve.log"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Stream encoded speech over WebSocket",
	Long: `Serve the configured source on ws://<host>:<port>/speech.

Each connection gets a fresh generator and encoder. Clients may request a
different output type, channel layout or Opus mode in their hello.

Example:
  speechenc serve -t opus --mode voip --port 8927`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := serveEncoder.apply(cmd, &cfg.Encoder); err != nil {
			return err
		}
		serveSource.apply(cmd, &cfg.Source)
		if cmd.Flags().Changed("port") {
			cfg.Server.Port = servePort
		}
		if cmd.Flags().Changed("name") {
			cfg.Server.Name = serveName
		}
		if serveNoMDNS {
			cfg.Server.MDNS = false
		}
		if serveBurst {
			cfg.Server.Realtime = false
		}

		// Fail fast on a bad source instead of on the first connection
		if _, err := newGenerator(cfg.Source); err != nil {
			return err
		}

		useTUI := !serveNoTUI
		if useTUI {
			path := cfg.Log.File
			if path == "" {
				path = defaultServeLogFile
			}
			if err := setupLogging(path, false); err != nil {
				return err
			}
		}

		name := cfg.Server.Name
		if name == "" {
			hostname, err := os.Hostname()
			if err != nil {
				hostname = "unknown"
			}
			name = fmt.Sprintf("%s-speechenc", hostname)
		}

		source := cfg.Source
		srv, err := server.New(server.Config{
			Port:        cfg.Server.Port,
			Name:        name,
			EnableMDNS:  cfg.Server.MDNS,
			UseTUI:      useTUI,
			Realtime:    cfg.Server.Realtime,
			Encoder:     cfg.Encoder,
			SourceTitle: sourceTitle(cfg.Source),
			NewGenerator: func() (speech.Generator, error) {
				return newGenerator(source)
			},
		})
		if err != nil {
			return err
		}

		log.Printf("Starting speechenc server: %s on port %d", name, cfg.Server.Port)
		if !useTUI {
			log.Printf("Press Ctrl-C to stop")
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		go func() {
			sig := <-sigChan
			log.Printf("Received %v signal, shutting down gracefully...", sig)
			srv.Stop()
		}()

		return srv.Start()
	},
}

func init() {
	serveEncoder.register(serveCmd)
	serveSource.register(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "WebSocket server port")
	serveCmd.Flags().StringVar(&serveName, "name", "", "server friendly name (default: hostname-speechenc)")
	serveCmd.Flags().BoolVar(&serveNoMDNS, "no-mdns", false, "disable mDNS advertisement")
	serveCmd.Flags().BoolVar(&serveBurst, "burst", false, "send frames as fast as possible instead of in real time")
	serveCmd.Flags().BoolVar(&serveNoTUI, "no-tui", false, "disable TUI, use streaming logs instead")
	rootCmd.AddCommand(serveCmd)
}

// sourceTitle describes the configured source for the status screen
func sourceTitle(source config.SourceConfig) string {
	if source.File != "" {
		return filepath.Base(source.File)
	}
	return fmt.Sprintf("Test Tone (%gHz)", source.ToneHz)
}
