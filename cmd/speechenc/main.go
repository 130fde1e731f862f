// Package main provides the speechenc CLI.
//
// Usage:
//
//	speechenc [flags] <command> [args]
//
// Commands:
//
//	encode   - Encode a tone or speech file to raw PCM or Opus
//	serve    - Stream encoded speech over WebSocket
//	play     - Receive a stream and play it
//	version  - Print version information
//
// Configuration:
//
//	Settings load from a YAML profile (-c) with SPEECHENC_* environment
//	overrides. Command flags override both.
package main

import (
	"fmt"
	"os"

	"github.com/Resonate-Protocol/speechenc/cmd/speechenc/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
