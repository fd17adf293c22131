package index

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
)

func fixture(now time.Time) []*domain.Snapshot {
	categories := []string{"Music", "Chess", "Just Chatting", ""}
	languages := []string{"en", "de", "fr"}
	viewers := []int{0, 100, 101, 480, 750, 1000, 2500, 5000, 9000}

	var list []*domain.Snapshot
	for i := 0; i < 60; i++ {
		s := &domain.Snapshot{
			ID:            fmt.Sprintf("streamer%02d", i),
			DisplayName:   fmt.Sprintf("Streamer %02d", i),
			IsLive:        i%3 != 0,
			ViewerCount:   viewers[i%len(viewers)],
			Category:      categories[i%len(categories)],
			Language:      languages[i%len(languages)],
			FollowerCount: (i * 37) % 1000,
			Title:         fmt.Sprintf("stream number %d", i),
		}
		if s.IsLive {
			since := now.Add(-time.Duration(i*10) * time.Minute)
			s.LiveSince = &since
		} else {
			seen := now.Add(-time.Duration(i) * time.Hour)
			s.LastSeen = &seen
		}
		list = append(list, s)
	}
	return list
}

func TestQueryMatchesApply(t *testing.T) {
	now := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	list := fixture(now)
	idx := NewSecondaryIndex(list)

	states := []domain.FilterState{
		domain.DefaultFilterState(),
		{Status: domain.StatusLive},
		{Status: domain.StatusOffline, Sort: domain.SortLastSeen},
		{Category: "music", Viewers: domain.Viewers100To500},
		{Status: domain.StatusLive, Category: "Chess", Viewers: domain.Viewers1kTo5k, Sort: domain.SortViewers, Direction: domain.Descending},
		{Viewers: domain.Viewers5kPlus, Language: "de"},
		{Status: domain.StatusLive, Duration: domain.Duration3To6h, Search: "stream"},
		{Category: "nonexistent"},
		{Search: "number 1", Sort: domain.SortName},
		{Status: domain.StatusOffline, Duration: domain.Duration0To1h},
	}

	for _, st := range states {
		t.Run(fmt.Sprintf("%+v", st), func(t *testing.T) {
			want := idsOf(domain.Apply(list, st, now))
			got := idsOf(idx.Query(st, now))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("Query() differs from Apply() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIntersect(t *testing.T) {
	got := intersect([]int{1, 3, 5, 7, 9}, []int{2, 3, 4, 7, 10})
	if diff := cmp.Diff([]int{3, 7}, got); diff != "" {
		t.Errorf("intersect() mismatch (-want +got):\n%s", diff)
	}
}
