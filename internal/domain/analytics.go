package domain

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"
)

const topN = 3

// Ranked is a label with its occurrence count.
type Ranked struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Analytics is the rollup of one channel's history over a window of days.
type Analytics struct {
	ID                    string         `json:"id"`
	WindowDays            int            `json:"window_days"`
	SessionCount          int            `json:"session_count"`
	TotalStreamTime       time.Duration  `json:"total_stream_time"`
	AverageStreamDuration time.Duration  `json:"average_stream_duration"`
	PeakViewers           int            `json:"peak_viewers"`
	AverageViewers        float64        `json:"average_viewers"`
	StreamFrequency       float64        `json:"stream_frequency"`
	ViewerGrowth          float64        `json:"viewer_growth"`
	TopCategories         []Ranked       `json:"top_categories"`
	HourHistogram         [24]int        `json:"hour_histogram"`
	DayHistogram          [7]int         `json:"day_histogram"`
	PeakHours             []int          `json:"peak_hours"`
	PeakDays              []time.Weekday `json:"peak_days"`
}

// Analyze rolls up h over the last windowDays days ending at now. Sessions
// count toward the window by start time; open sessions are measured up to now.
// Every ratio with a zero denominator is reported as 0.
func Analyze(h *StreamerHistory, windowDays int, now time.Time) Analytics {
	a := Analytics{
		WindowDays:    windowDays,
		TopCategories: []Ranked{},
		PeakHours:     []int{},
		PeakDays:      []time.Weekday{},
	}
	if h == nil {
		return a
	}
	a.ID = h.ID
	if windowDays <= 0 {
		return a
	}

	cutoff := now.Add(-time.Duration(windowDays) * 24 * time.Hour)
	sessions := lo.Filter(h.Sessions, func(s *Session, _ int) bool {
		return !s.StartTime.Before(cutoff)
	})
	samples := lo.Filter(h.ViewerHistory, func(v ViewerSample, _ int) bool {
		return !v.At.Before(cutoff)
	})

	a.SessionCount = len(sessions)
	var weighted float64
	for _, s := range sessions {
		d := s.Elapsed(now)
		a.TotalStreamTime += d
		weighted += s.MeanViewers() * d.Seconds()
		a.PeakViewers = max(a.PeakViewers, s.PeakViewers)

		a.HourHistogram[s.StartTime.Hour()]++
		a.DayHistogram[s.StartTime.Weekday()]++
	}

	if a.SessionCount > 0 {
		a.AverageStreamDuration = a.TotalStreamTime / time.Duration(a.SessionCount)
	}
	if secs := a.TotalStreamTime.Seconds(); secs > 0 {
		a.AverageViewers = weighted / secs
	}
	a.StreamFrequency = float64(a.SessionCount) / float64(windowDays)
	a.ViewerGrowth = ViewerGrowth(samples)

	a.TopCategories = topCategories(sessions)
	a.PeakHours = topIndexes(a.HourHistogram[:])
	for _, d := range topIndexes(a.DayHistogram[:]) {
		a.PeakDays = append(a.PeakDays, time.Weekday(d))
	}
	return a
}

// ViewerGrowth compares the mean of the second half of samples with the first
// half, as a percentage. Fewer than two samples, or a zero first-half mean,
// yields 0.
func ViewerGrowth(samples []ViewerSample) float64 {
	if len(samples) < 2 {
		return 0
	}
	half := len(samples) / 2
	first := meanViewers(samples[:half])
	second := meanViewers(samples[half:])
	if first == 0 {
		return 0
	}
	return (second - first) / first * 100
}

func meanViewers(samples []ViewerSample) float64 {
	if len(samples) == 0 {
		return 0
	}
	total := lo.SumBy(samples, func(v ViewerSample) int { return v.Viewers })
	return float64(total) / float64(len(samples))
}

func topCategories(sessions []*Session) []Ranked {
	counts := lo.CountValuesBy(
		lo.Filter(sessions, func(s *Session, _ int) bool { return s.Category != "" }),
		func(s *Session) string { return s.Category },
	)
	ranked := lo.MapToSlice(counts, func(k string, v int) Ranked { return Ranked{Key: k, Count: v} })
	slices.SortFunc(ranked, func(a, b Ranked) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Key, b.Key))
	})
	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// topIndexes returns up to three non-empty histogram slots, busiest first,
// lower index winning ties.
func topIndexes(hist []int) []int {
	idx := make([]int, 0, len(hist))
	for i, c := range hist {
		if c > 0 {
			idx = append(idx, i)
		}
	}
	slices.SortStableFunc(idx, func(a, b int) int { return cmp.Compare(hist[b], hist[a]) })
	if len(idx) > topN {
		idx = idx[:topN]
	}
	return idx
}
