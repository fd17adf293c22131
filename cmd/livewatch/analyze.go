package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/livewatch/internal/app"
	"github.com/MrSnakeDoc/livewatch/internal/domain"
)

var (
	analyzeDays   int
	analyzeFormat string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <id>",
	Short: "Print stream analytics for one channel",
	Long: `Derive analytics from the recorded history of a channel: stream time,
peak and weighted average viewers, frequency, growth, top categories and
the busiest hours and days.

Examples:
  livewatch analyze xqc
  livewatch analyze xqc --days 30 --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeDays, "days", 0, "Window in days, 1-30 (default: settings window)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "text", "Output format (text, json)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeDays < 0 || analyzeDays > 30 {
		return fmt.Errorf("--days must be between 1 and 30")
	}
	off, err := app.OpenOffline(cmd.Context())
	if err != nil {
		return err
	}
	defer off.Close()

	a, ok := off.Analyze(args[0], analyzeDays)
	if !ok {
		return fmt.Errorf("no history recorded for %q", args[0])
	}

	if analyzeFormat == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	return printAnalytics(cmd, a)
}

func printAnalytics(cmd *cobra.Command, a domain.Analytics) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	row := func(k string, v any) { _, _ = fmt.Fprintf(tw, "%s\t%v\n", k, v) }

	row("channel", a.ID)
	row("window", fmt.Sprintf("%d days", a.WindowDays))
	row("sessions", a.SessionCount)
	row("total stream time", a.TotalStreamTime.Round(time.Minute))
	row("average stream", a.AverageStreamDuration.Round(time.Minute))
	row("peak viewers", a.PeakViewers)
	row("average viewers", fmt.Sprintf("%.0f", a.AverageViewers))
	row("streams per day", fmt.Sprintf("%.2f", a.StreamFrequency))
	row("viewer growth", fmt.Sprintf("%+.1f%%", a.ViewerGrowth))

	cats := make([]string, 0, len(a.TopCategories))
	for _, c := range a.TopCategories {
		cats = append(cats, fmt.Sprintf("%s (%d)", c.Key, c.Count))
	}
	row("top categories", strings.Join(cats, ", "))

	hours := make([]string, 0, len(a.PeakHours))
	for _, h := range a.PeakHours {
		hours = append(hours, fmt.Sprintf("%02d:00", h))
	}
	row("peak hours", strings.Join(hours, ", "))

	days := make([]string, 0, len(a.PeakDays))
	for _, d := range a.PeakDays {
		days = append(days, d.String())
	}
	row("peak days", strings.Join(days, ", "))
	return tw.Flush()
}
