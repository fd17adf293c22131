package store

const (
	KeyFavorites = "favorites"
	KeySettings  = "settings"
	KeyFilters   = "filters"
	KeyWatchlist = "watchlist"
	KeyHistory   = "history"

	// KeyPrefixCache marks entries written by the TTL cache helpers.
	KeyPrefixCache    = "cache:"
	KeyPrefixLastSeen = "lastseen:"
)

// CacheKey returns the key of a TTL cache entry.
func CacheKey(name string) string {
	return KeyPrefixCache + name
}

// LastSeenKey returns the key holding a channel's last live observation.
func LastSeenKey(id string) string {
	return KeyPrefixLastSeen + id
}
