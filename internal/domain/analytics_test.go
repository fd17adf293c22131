package domain

import (
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func closedSession(start time.Time, d time.Duration, category string, samples ...int) *Session {
	end := start.Add(d)
	s := &Session{StartTime: start, EndTime: &end, Duration: d, Category: category}
	for i, v := range samples {
		s.ViewerSamples = append(s.ViewerSamples, ViewerSample{At: start.Add(time.Duration(i) * time.Minute), Viewers: v})
		s.PeakViewers = max(s.PeakViewers, v)
	}
	return s
}

func TestViewerGrowth(t *testing.T) {
	tests := []struct {
		name    string
		samples []int
		want    float64
	}{
		{"no samples", nil, 0},
		{"single sample", []int{100}, 0},
		{"doubling", []int{100, 200}, 100},
		{"halving", []int{100, 100, 50, 50}, -50},
		{"zero first half", []int{0, 0, 10, 10}, 0},
		{"odd count puts middle in second half", []int{100, 150, 150}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var samples []ViewerSample
			for _, v := range tt.samples {
				samples = append(samples, ViewerSample{Viewers: v})
			}
			if got := ViewerGrowth(samples); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ViewerGrowth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnalyzeEmptyHistoryHasNoNaN(t *testing.T) {
	a := Analyze(NewStreamerHistory("alice"), 7, now)
	if a.AverageViewers != 0 || a.StreamFrequency != 0 || a.ViewerGrowth != 0 || a.AverageStreamDuration != 0 {
		t.Errorf("Analyze() on empty history = %+v, want zeros", a)
	}

	zero := Analyze(NewStreamerHistory("alice"), 0, now)
	if zero.StreamFrequency != 0 || math.IsNaN(zero.StreamFrequency) {
		t.Errorf("Analyze() with zero window frequency = %v, want 0", zero.StreamFrequency)
	}
}

func TestAnalyzeRollup(t *testing.T) {
	// Wednesday 2024-05-01; sessions on Mon 18:00, Tue 18:00 and Tue 09:00.
	mon := time.Date(2024, 4, 29, 18, 0, 0, 0, time.UTC)
	tue := time.Date(2024, 4, 30, 18, 0, 0, 0, time.UTC)
	tueMorning := time.Date(2024, 4, 30, 9, 0, 0, 0, time.UTC)
	old := now.Add(-20 * 24 * time.Hour)

	h := NewStreamerHistory("alice")
	h.Sessions = []*Session{
		closedSession(old, time.Hour, "Music", 999),
		closedSession(mon, time.Hour, "Music", 100),
		closedSession(tue, 3*time.Hour, "Chess", 200),
		closedSession(tueMorning, 2*time.Hour, "Music", 50),
	}
	h.ViewerHistory = []ViewerSample{
		{At: old, Viewers: 999},
		{At: mon, Viewers: 100},
		{At: tue, Viewers: 200},
	}

	a := Analyze(h, 7, now)

	if a.SessionCount != 3 {
		t.Errorf("SessionCount = %d, want 3", a.SessionCount)
	}
	if a.TotalStreamTime != 6*time.Hour {
		t.Errorf("TotalStreamTime = %v, want 6h", a.TotalStreamTime)
	}
	if a.AverageStreamDuration != 2*time.Hour {
		t.Errorf("AverageStreamDuration = %v, want 2h", a.AverageStreamDuration)
	}
	if a.PeakViewers != 200 {
		t.Errorf("PeakViewers = %d, want 200", a.PeakViewers)
	}
	// (100*1h + 200*3h + 50*2h) / 6h
	if want := 800.0 / 6.0; math.Abs(a.AverageViewers-want) > 1e-9 {
		t.Errorf("AverageViewers = %v, want %v", a.AverageViewers, want)
	}
	if want := 3.0 / 7.0; math.Abs(a.StreamFrequency-want) > 1e-9 {
		t.Errorf("StreamFrequency = %v, want %v", a.StreamFrequency, want)
	}
	if a.ViewerGrowth != 100 {
		t.Errorf("ViewerGrowth = %v, want 100", a.ViewerGrowth)
	}

	wantCats := []Ranked{{Key: "Music", Count: 2}, {Key: "Chess", Count: 1}}
	if diff := cmp.Diff(wantCats, a.TopCategories); diff != "" {
		t.Errorf("TopCategories mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{18, 9}, a.PeakHours); diff != "" {
		t.Errorf("PeakHours mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]time.Weekday{time.Tuesday, time.Monday}, a.PeakDays); diff != "" {
		t.Errorf("PeakDays mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeOpenSessionMeasuredToNow(t *testing.T) {
	h := NewStreamerHistory("alice")
	h.Sessions = []*Session{{
		StartTime:     now.Add(-90 * time.Minute),
		PeakViewers:   40,
		ViewerSamples: []ViewerSample{{At: now.Add(-90 * time.Minute), Viewers: 40}},
	}}

	a := Analyze(h, 1, now)
	if a.TotalStreamTime != 90*time.Minute {
		t.Errorf("TotalStreamTime = %v, want 90m", a.TotalStreamTime)
	}
	if a.SessionCount != 1 || a.AverageViewers != 40 {
		t.Errorf("Analyze() = %+v, want one session averaging 40", a)
	}
}
