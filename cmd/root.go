package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "playoutd",
	Short: "Automated radio playout engine",
	Long: `playoutd schedules calendar-driven audio programming onto a small fixed
set of Players (file, stream, premix, line), mixes them in a hard-real-time
audio callback, and falls back to emergency programming when the schedule
goes silent.

Features:
  - Lock-free SPSC ringbuffers decoupling decode from the audio callback
  - IDLE/WAIT/LOAD/CUED/PLAY/FAIL Player state machine with equal-power fades
  - Silence-triggered fallback with directory-scanned filler and a last-resort tone
  - MP3 recording and Icecast/Shoutcast relay of the mixed output
  - TCP line-protocol and JSON REST control surfaces

Commands:
  - run: start the playout engine with the given configuration
  - version: print build version information`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
