package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/livewatch/internal/app"
	"github.com/MrSnakeDoc/livewatch/internal/utils"
)

var importIn string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore persisted state from a backup",
	Long: `Replace the persisted state with a livewatch-backup document.
Invalid filter values are reset and reported. The remote watchlist stays
authoritative on the next reload.

Examples:
  livewatch import --in backup.json
  livewatch import --in - < backup.json`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importIn, "in", "i", "", "Backup file to read, - for stdin")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	if importIn == "" {
		return errors.New("--in is required")
	}

	var r io.Reader = cmd.InOrStdin()
	if importIn != "-" {
		f, err := os.Open(importIn)
		if err != nil {
			return fmt.Errorf("open %s: %w", importIn, err)
		}
		defer utils.Close(f)
		r = f
	}

	ctx := cmd.Context()
	off, err := app.OpenOffline(ctx)
	if err != nil {
		return err
	}
	defer off.Close()

	report, err := off.Import(ctx, r)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "imported %d watched, %d favorites, %d histories\n",
		report.Watchlist, report.Favorites, report.Histories)
	if report.SettingsReset {
		_, _ = fmt.Fprintln(out, "settings missing from backup, reset to defaults")
	}
	for _, c := range report.Corrections {
		_, _ = fmt.Fprintf(out, "corrected %s\n", c)
	}
	return nil
}
