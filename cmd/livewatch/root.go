package main

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/livewatch/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "livewatch",
	Short: "Live-status dashboard for a watchlist of streaming channels",
	Long: `livewatch polls the streaming platform for every channel on a remote
watchlist, keeps per-channel history and serves a filterable dashboard API.

Configuration is read from LIVEWATCH_* environment variables. Running
livewatch without a subcommand starts the server.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func init() {
	rootCmd.SetVersionTemplate("livewatch version {{.Version}}\n")
}
