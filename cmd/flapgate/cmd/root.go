package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is the release version stamped into the banner.
const Version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "flapgate",
	Short: "FlapGate is a score admission service",
	Long: `A leaderboard backend for a browser arcade game. Scores must pass a
signed session token check and a gameplay-log plausibility check before they
reach the board.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
