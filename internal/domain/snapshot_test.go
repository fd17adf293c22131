package domain

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

func TestSnapshotCloneTags(t *testing.T) {
	seen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"nil tags", nil, `[]`},
		{"empty tags", []string{}, `[]`},
		{"with tags", []string{"music"}, `["music"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &Snapshot{ID: "alice", Tags: tt.tags, LastSeen: &seen}
			c := src.Clone()

			raw, err := json.Marshal(c.Tags)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(raw) != tt.want {
				t.Errorf("cloned tags = %s, want %s", raw, tt.want)
			}
			if c.LastSeen == src.LastSeen {
				t.Error("Clone() shares the LastSeen pointer")
			}
			if len(tt.tags) > 0 {
				c.Tags[0] = "changed"
				if src.Tags[0] != tt.tags[0] {
					t.Error("Clone() shares the tags backing array")
				}
			}
		})
	}
}
