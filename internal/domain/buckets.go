package domain

import "time"

// ViewerBucket labels a viewer-count range. Each bucket includes its upper
// edge: 100 viewers is "0-100", 101 is "100-500".
type ViewerBucket string

const (
	ViewersAll      ViewerBucket = "all"
	Viewers0To100   ViewerBucket = "0-100"
	Viewers100To500 ViewerBucket = "100-500"
	Viewers500To1k  ViewerBucket = "500-1000"
	Viewers1kTo5k   ViewerBucket = "1000-5000"
	Viewers5kPlus   ViewerBucket = "5000+"
)

// ViewerBuckets lists the concrete buckets in ascending order.
var ViewerBuckets = []ViewerBucket{Viewers0To100, Viewers100To500, Viewers500To1k, Viewers1kTo5k, Viewers5kPlus}

// ViewerBucketOf maps a viewer count onto exactly one bucket. Negative counts
// are treated as zero.
func ViewerBucketOf(v int) ViewerBucket {
	switch {
	case v <= 100:
		return Viewers0To100
	case v <= 500:
		return Viewers100To500
	case v <= 1000:
		return Viewers500To1k
	case v <= 5000:
		return Viewers1kTo5k
	default:
		return Viewers5kPlus
	}
}

func (b ViewerBucket) valid() bool {
	if b == ViewersAll {
		return true
	}
	for _, known := range ViewerBuckets {
		if b == known {
			return true
		}
	}
	return false
}

// DurationBucket labels how long a channel has been live. Offline channels
// only ever fall in DurationOffline.
type DurationBucket string

const (
	DurationAll     DurationBucket = "all"
	DurationOffline DurationBucket = "offline"
	Duration0To1h   DurationBucket = "0-1h"
	Duration1To3h   DurationBucket = "1-3h"
	Duration3To6h   DurationBucket = "3-6h"
	Duration6hPlus  DurationBucket = "6h+"
)

var DurationBuckets = []DurationBucket{DurationOffline, Duration0To1h, Duration1To3h, Duration3To6h, Duration6hPlus}

// DurationBucketOf returns the bucket of s at now. Edges belong to the lower
// bucket, matching the viewer buckets.
func DurationBucketOf(s *Snapshot, now time.Time) DurationBucket {
	if !s.IsLive {
		return DurationOffline
	}
	d := s.LiveDuration(now)
	switch {
	case d <= time.Hour:
		return Duration0To1h
	case d <= 3*time.Hour:
		return Duration1To3h
	case d <= 6*time.Hour:
		return Duration3To6h
	default:
		return Duration6hPlus
	}
}

func (b DurationBucket) valid() bool {
	if b == DurationAll {
		return true
	}
	for _, known := range DurationBuckets {
		if b == known {
			return true
		}
	}
	return false
}
