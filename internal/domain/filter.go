package domain

import (
	"fmt"
	"strings"
)

type StatusFilter string

const (
	StatusAll     StatusFilter = "all"
	StatusLive    StatusFilter = "live"
	StatusOffline StatusFilter = "offline"
)

type SortKey string

const (
	SortStatus    SortKey = "status"
	SortViewers   SortKey = "viewers"
	SortName      SortKey = "name"
	SortCategory  SortKey = "category"
	SortDuration  SortKey = "duration"
	SortLastSeen  SortKey = "last_seen" // offline recency
	SortFollowers SortKey = "followers"
)

var SortKeys = []SortKey{SortStatus, SortViewers, SortName, SortCategory, SortDuration, SortLastSeen, SortFollowers}

type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// AllValues is the "no filtering" selector shared by category and language.
const AllValues = "all"

// MaxSearchLength caps the free-text query.
const MaxSearchLength = 100

// FilterState selects which snapshots are shown and in what order. Every
// predicate defaults to no filtering and exactly one sort key is active.
type FilterState struct {
	Status    StatusFilter   `json:"status"`
	Viewers   ViewerBucket   `json:"viewers"`
	Category  string         `json:"category"`
	Search    string         `json:"search"`
	Duration  DurationBucket `json:"duration"`
	Language  string         `json:"language"`
	Sort      SortKey        `json:"sort"`
	Direction Direction      `json:"direction"`
}

func DefaultFilterState() FilterState {
	return FilterState{
		Status:    StatusAll,
		Viewers:   ViewersAll,
		Category:  AllValues,
		Search:    "",
		Duration:  DurationAll,
		Language:  AllValues,
		Sort:      SortStatus,
		Direction: Ascending,
	}
}

// Correction records a field that Validate reset to its default.
type Correction struct {
	Field    string `json:"field"`
	Rejected string `json:"rejected"`
	Reset    string `json:"reset"`
}

func (c Correction) String() string {
	return fmt.Sprintf("%s: %q reset to %q", c.Field, c.Rejected, c.Reset)
}

// Validate resets every invalid field to its default in place and reports what
// changed. Empty selectors are normalized to their default silently.
func (f *FilterState) Validate() []Correction {
	def := DefaultFilterState()
	var out []Correction

	reset := func(field, rejected, to string) {
		out = append(out, Correction{Field: field, Rejected: rejected, Reset: to})
	}

	f.Status = StatusFilter(strings.ToLower(strings.TrimSpace(string(f.Status))))
	switch f.Status {
	case "":
		f.Status = def.Status
	case StatusAll, StatusLive, StatusOffline:
	default:
		reset("status", string(f.Status), string(def.Status))
		f.Status = def.Status
	}

	f.Viewers = ViewerBucket(strings.TrimSpace(string(f.Viewers)))
	if f.Viewers == "" {
		f.Viewers = def.Viewers
	} else if !f.Viewers.valid() {
		reset("viewers", string(f.Viewers), string(def.Viewers))
		f.Viewers = def.Viewers
	}

	f.Duration = DurationBucket(strings.ToLower(strings.TrimSpace(string(f.Duration))))
	if f.Duration == "" {
		f.Duration = def.Duration
	} else if !f.Duration.valid() {
		reset("duration", string(f.Duration), string(def.Duration))
		f.Duration = def.Duration
	}

	f.Category = strings.TrimSpace(f.Category)
	if f.Category == "" || strings.EqualFold(f.Category, AllValues) {
		f.Category = def.Category
	}

	f.Language = strings.ToLower(strings.TrimSpace(f.Language))
	if f.Language == "" {
		f.Language = def.Language
	}

	if runes := []rune(f.Search); len(runes) > MaxSearchLength {
		trimmed := string(runes[:MaxSearchLength])
		reset("search", f.Search, trimmed)
		f.Search = trimmed
	}

	f.Sort = SortKey(strings.ToLower(strings.TrimSpace(string(f.Sort))))
	if f.Sort == "" {
		f.Sort = def.Sort
	} else if !validSortKey(f.Sort) {
		reset("sort", string(f.Sort), string(def.Sort))
		f.Sort = def.Sort
	}

	f.Direction = Direction(strings.ToLower(strings.TrimSpace(string(f.Direction))))
	switch f.Direction {
	case "":
		f.Direction = def.Direction
	case Ascending, Descending:
	default:
		reset("direction", string(f.Direction), string(def.Direction))
		f.Direction = def.Direction
	}

	return out
}

func validSortKey(k SortKey) bool {
	for _, known := range SortKeys {
		if k == known {
			return true
		}
	}
	return false
}
