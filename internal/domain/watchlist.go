package domain

import "slices"

// Watchlist is the ordered set of channel ids being monitored. Order is the
// order ids were first added and is kept stable for display.
type Watchlist struct {
	ids []string
}

// NewWatchlist normalizes ids and drops blanks and duplicates, keeping first occurrence.
func NewWatchlist(ids []string) *Watchlist {
	w := &Watchlist{ids: make([]string, 0, len(ids))}
	for _, id := range ids {
		w.Add(id)
	}
	return w
}

// Add appends id if it is not already present and reports whether it did.
func (w *Watchlist) Add(id string) bool {
	id = NormalizeID(id)
	if id == "" || w.Contains(id) {
		return false
	}
	w.ids = append(w.ids, id)
	return true
}

// Remove deletes id and reports whether it was present.
func (w *Watchlist) Remove(id string) bool {
	id = NormalizeID(id)
	i := slices.Index(w.ids, id)
	if i < 0 {
		return false
	}
	w.ids = slices.Delete(w.ids, i, i+1)
	return true
}

func (w *Watchlist) Contains(id string) bool {
	return slices.Contains(w.ids, NormalizeID(id))
}

// IDs returns a copy of the ids in display order.
func (w *Watchlist) IDs() []string {
	return slices.Clone(w.ids)
}

func (w *Watchlist) Len() int { return len(w.ids) }
