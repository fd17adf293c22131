package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/livewatch/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard server (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := app.New(context.Background())
	if err != nil {
		return err
	}
	return a.Run()
}
