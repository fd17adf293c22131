package domain

import (
	"testing"
	"time"
)

func TestViewerBucketOf(t *testing.T) {
	tests := []struct {
		viewers int
		want    ViewerBucket
	}{
		{-5, Viewers0To100},
		{0, Viewers0To100},
		{100, Viewers0To100},
		{101, Viewers100To500},
		{500, Viewers100To500},
		{501, Viewers500To1k},
		{1000, Viewers500To1k},
		{1001, Viewers1kTo5k},
		{5000, Viewers1kTo5k},
		{5001, Viewers5kPlus},
		{1 << 30, Viewers5kPlus},
	}
	for _, tt := range tests {
		if got := ViewerBucketOf(tt.viewers); got != tt.want {
			t.Errorf("ViewerBucketOf(%d) = %s, want %s", tt.viewers, got, tt.want)
		}
	}
}

func TestViewerBucketsPartition(t *testing.T) {
	for v := 0; v <= 6000; v++ {
		hits := 0
		for _, b := range ViewerBuckets {
			if matchViewers(&Snapshot{ViewerCount: v}, b) {
				hits++
			}
		}
		if hits != 1 {
			t.Fatalf("viewer count %d matched %d buckets, want exactly 1", v, hits)
		}
	}
}

func TestDurationBucketOf(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
		want DurationBucket
	}{
		{"offline", offlineSnap("x", time.Hour), DurationOffline},
		{"live without start", &Snapshot{IsLive: true}, Duration0To1h},
		{"exactly one hour", liveSnap("x", 0, "", time.Hour), Duration0To1h},
		{"just over one hour", liveSnap("x", 0, "", time.Hour+time.Second), Duration1To3h},
		{"three hours", liveSnap("x", 0, "", 3*time.Hour), Duration1To3h},
		{"five hours", liveSnap("x", 0, "", 5*time.Hour), Duration3To6h},
		{"ten hours", liveSnap("x", 0, "", 10*time.Hour), Duration6hPlus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DurationBucketOf(tt.snap, now); got != tt.want {
				t.Errorf("DurationBucketOf() = %s, want %s", got, tt.want)
			}
		})
	}
}
