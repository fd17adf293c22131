package domain

import (
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var now = time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)

func ids(list []*Snapshot) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.ID
	}
	return out
}

func liveSnap(id string, viewers int, category string, since time.Duration) *Snapshot {
	start := now.Add(-since)
	return &Snapshot{ID: id, DisplayName: id, IsLive: true, ViewerCount: viewers, Category: category, LiveSince: &start, Language: "en"}
}

func offlineSnap(id string, lastSeenAgo time.Duration) *Snapshot {
	seen := now.Add(-lastSeenAgo)
	return &Snapshot{ID: id, DisplayName: id, LastSeen: &seen, Language: "en"}
}

func TestApplyScenario(t *testing.T) {
	alice := liveSnap("alice", 120, "Music", time.Hour)
	bob := offlineSnap("bob", 2*time.Hour)
	list := []*Snapshot{bob, alice}

	tests := []struct {
		name  string
		state FilterState
		want  []string
	}{
		{
			name:  "status live",
			state: FilterState{Status: StatusLive},
			want:  []string{"alice"},
		},
		{
			name:  "viewer bucket 100-500",
			state: FilterState{Viewers: Viewers100To500},
			want:  []string{"alice"},
		},
		{
			name:  "sort by name ascending",
			state: FilterState{Sort: SortName, Direction: Ascending},
			want:  []string{"alice", "bob"},
		},
		{
			name:  "category is case insensitive",
			state: FilterState{Category: "music"},
			want:  []string{"alice"},
		},
		{
			name:  "offline duration bucket",
			state: FilterState{Duration: DurationOffline},
			want:  []string{"bob"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(list, tt.state, now))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Apply() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	list := []*Snapshot{
		offlineSnap("zed", time.Hour),
		liveSnap("amy", 10, "Chess", time.Minute),
		liveSnap("bea", 900, "Music", 4*time.Hour),
	}
	before := slices.Clone(list)

	states := []FilterState{
		DefaultFilterState(),
		{Sort: SortName},
		{Sort: SortViewers, Direction: Descending},
		{Status: StatusLive, Sort: SortDuration},
		{Search: "a", Sort: SortLastSeen},
	}
	for _, st := range states {
		out := Apply(list, st, now)
		for i := range list {
			if list[i] != before[i] {
				t.Fatalf("Apply(%+v) reordered input at %d", st, i)
			}
		}
		for _, s := range out {
			if !slices.Contains(list, s) {
				t.Fatalf("Apply(%+v) returned %q not present in input", st, s.ID)
			}
		}
	}
}

func TestStatusSortTieBreaks(t *testing.T) {
	list := []*Snapshot{
		offlineSnap("dan", time.Hour),
		liveSnap("carl", 50, "", time.Hour),
		liveSnap("bert", 300, "", time.Hour),
		liveSnap("anna", 50, "", time.Hour),
	}

	got := ids(Apply(list, FilterState{Sort: SortStatus}, now))
	want := []string{"bert", "anna", "carl", "dan"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("status sort mismatch (-want +got):\n%s", diff)
	}

	got = ids(Apply(list, FilterState{Sort: SortStatus, Direction: Descending}, now))
	slices.Reverse(want)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("descending status sort mismatch (-want +got):\n%s", diff)
	}
}

func TestSortKeys(t *testing.T) {
	a := liveSnap("a", 10, "Zelda", 30*time.Minute)
	a.FollowerCount = 500
	b := liveSnap("b", 400, "Art", 5*time.Hour)
	b.FollowerCount = 100
	c := offlineSnap("c", 10*time.Minute)
	d := offlineSnap("d", 48*time.Hour)
	list := []*Snapshot{d, c, b, a}

	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortViewers, []string{"c", "d", "a", "b"}},
		{SortCategory, []string{"c", "d", "b", "a"}},
		{SortDuration, []string{"c", "d", "a", "b"}},
		{SortLastSeen, []string{"a", "b", "c", "d"}},
		{SortFollowers, []string{"c", "d", "b", "a"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			got := ids(Apply(list, FilterState{Sort: tt.key}, now))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("sort %s mismatch (-want +got):\n%s", tt.key, diff)
			}
		})
	}
}

func TestSearchMatchesAcrossFields(t *testing.T) {
	s := &Snapshot{ID: "xqc", DisplayName: "xQc", Title: "Late night GAMING", Category: "Just Chatting"}
	tests := []struct {
		query string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"XQC", true},
		{"gaming", true},
		{"chatting", true},
		{"speedrun", false},
	}
	for _, tt := range tests {
		if got := matchSearch(s, tt.query); got != tt.want {
			t.Errorf("matchSearch(%q) = %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestDurationFilterNeverMatchesOfflineOnTimeRange(t *testing.T) {
	off := offlineSnap("bob", time.Minute)
	for _, b := range []DurationBucket{Duration0To1h, Duration1To3h, Duration3To6h, Duration6hPlus} {
		if matchDuration(off, b, now) {
			t.Errorf("offline snapshot matched duration bucket %s", b)
		}
	}
	if !matchDuration(off, DurationOffline, now) {
		t.Error("offline snapshot should match the offline bucket")
	}
}

func TestFacets(t *testing.T) {
	list := []*Snapshot{
		liveSnap("a", 1, "Music", time.Hour),
		offlineSnap("b", time.Hour),
		liveSnap("c", 1, "music", time.Hour),
		liveSnap("d", 1, "Chess", time.Hour),
	}
	list[1].Category = "Chess"

	got := Facets(list)
	want := []Facet{
		{Category: "Chess", Count: 2, Live: 1},
		{Category: "Music", Count: 2, Live: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Facets() mismatch (-want +got):\n%s", diff)
	}
}
