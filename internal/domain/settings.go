package domain

// Settings is the user preference bag persisted alongside filters and favorites.
type Settings struct {
	AutoRefresh            bool `json:"auto_refresh"`
	RefreshIntervalSeconds int  `json:"refresh_interval_seconds"`
	Notifications          bool `json:"notifications"`
	HistoryWindowDays      int  `json:"history_window_days"`
}

func DefaultSettings() Settings {
	return Settings{
		AutoRefresh:            true,
		RefreshIntervalSeconds: 60,
		Notifications:          true,
		HistoryWindowDays:      7,
	}
}

// Normalize replaces out-of-range values with their defaults.
func (s *Settings) Normalize() {
	d := DefaultSettings()
	if s.RefreshIntervalSeconds < 10 {
		s.RefreshIntervalSeconds = d.RefreshIntervalSeconds
	}
	if s.HistoryWindowDays <= 0 || s.HistoryWindowDays > 30 {
		s.HistoryWindowDays = d.HistoryWindowDays
	}
}
