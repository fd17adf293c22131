package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
)

func TestPrintAnalytics(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	a := domain.Analytics{
		ID:                    "alice",
		WindowDays:            7,
		SessionCount:          3,
		TotalStreamTime:       6 * time.Hour,
		AverageStreamDuration: 2 * time.Hour,
		PeakViewers:           900,
		AverageViewers:        412.4,
		StreamFrequency:       3.0 / 7,
		ViewerGrowth:          12.5,
		TopCategories:         []domain.Ranked{{Key: "Music", Count: 2}, {Key: "Chess", Count: 1}},
		PeakHours:             []int{20, 9},
		PeakDays:              []time.Weekday{time.Friday},
	}
	if err := printAnalytics(cmd, a); err != nil {
		t.Fatalf("printAnalytics() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"alice", "7 days", "6h0m0s", "412", "0.43", "+12.5%", "Music (2), Chess (1)", "20:00, 09:00", "Friday"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCommandsRegistered(t *testing.T) {
	want := map[string]bool{"serve": false, "export": false, "import": false, "analyze": false, "version": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
