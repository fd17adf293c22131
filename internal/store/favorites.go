package store

import (
	"context"
	"slices"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
)

func (s *Store) AddFavorite(ctx context.Context, id string) bool {
	id = domain.NormalizeID(id)
	if id == "" {
		return false
	}
	if err := s.backend.SetAdd(ctx, s.key(KeyFavorites), id); err != nil {
		s.warn("favorites.add", id, err)
		return false
	}
	return true
}

func (s *Store) RemoveFavorite(ctx context.Context, id string) bool {
	id = domain.NormalizeID(id)
	if err := s.backend.SetRemove(ctx, s.key(KeyFavorites), id); err != nil {
		s.warn("favorites.remove", id, err)
		return false
	}
	return true
}

// ToggleFavorite flips membership of id and returns the resulting state. If
// the backend fails the previous membership is returned unchanged.
func (s *Store) ToggleFavorite(ctx context.Context, id string) bool {
	id = domain.NormalizeID(id)
	if s.IsFavorite(ctx, id) {
		if s.RemoveFavorite(ctx, id) {
			return false
		}
		return true
	}
	return s.AddFavorite(ctx, id)
}

func (s *Store) IsFavorite(ctx context.Context, id string) bool {
	ok, err := s.backend.SetContains(ctx, s.key(KeyFavorites), domain.NormalizeID(id))
	if err != nil {
		s.warn("favorites.contains", id, err)
		return false
	}
	return ok
}

// Favorites lists the favorite set in sorted order.
func (s *Store) Favorites(ctx context.Context) []string {
	ids, err := s.backend.SetMembers(ctx, s.key(KeyFavorites))
	if err != nil {
		s.warn("favorites.list", KeyFavorites, err)
		return []string{}
	}
	slices.Sort(ids)
	return ids
}

// ReplaceFavorites overwrites the whole set.
func (s *Store) ReplaceFavorites(ctx context.Context, ids []string) bool {
	if !s.Remove(ctx, KeyFavorites) {
		return false
	}
	normalized := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = domain.NormalizeID(id); id != "" {
			normalized = append(normalized, id)
		}
	}
	if len(normalized) == 0 {
		return true
	}
	if err := s.backend.SetAdd(ctx, s.key(KeyFavorites), normalized...); err != nil {
		s.warn("favorites.replace", KeyFavorites, err)
		return false
	}
	return true
}
