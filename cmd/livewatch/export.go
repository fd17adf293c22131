package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/livewatch/internal/app"
	"github.com/MrSnakeDoc/livewatch/internal/utils"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a backup of the persisted state",
	Long: `Export watchlist, favorites, filters, settings and history as a
livewatch-backup JSON document.

Examples:
  livewatch export > backup.json
  livewatch export --out backup.json`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	off, err := app.OpenOffline(ctx)
	if err != nil {
		return err
	}
	defer off.Close()

	var w io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer utils.Close(f)
		w = f
	}
	return off.Export(ctx, w)
}
