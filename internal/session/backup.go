package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
)

const (
	BackupFormat  = "livewatch-backup"
	BackupVersion = 1
)

// ErrInvalidBackup is wrapped by every import rejection.
var ErrInvalidBackup = errors.New("session: invalid backup")

// BackupError names the envelope field that made an import fail.
type BackupError struct {
	Field  string
	Reason string
}

func (e *BackupError) Error() string {
	return fmt.Sprintf("invalid backup: %s %s", e.Field, e.Reason)
}

func (e *BackupError) Unwrap() error { return ErrInvalidBackup }

// Backup is the exported state envelope.
type Backup struct {
	Format     string                             `json:"format"`
	Version    int                                `json:"version"`
	ExportedAt time.Time                          `json:"exported_at"`
	Watchlist  []string                           `json:"watchlist"`
	Favorites  []string                           `json:"favorites"`
	Filters    domain.FilterState                 `json:"filters"`
	Settings   domain.Settings                    `json:"settings"`
	History    map[string]*domain.StreamerHistory `json:"history"`
}

// incomingBackup mirrors Backup with pointers so absent fields can be told
// apart from zero values.
type incomingBackup struct {
	Format     *string                            `json:"format"`
	Version    *int                               `json:"version"`
	ExportedAt *time.Time                         `json:"exported_at"`
	Watchlist  []string                           `json:"watchlist"`
	Favorites  []string                           `json:"favorites"`
	Filters    *domain.FilterState                `json:"filters"`
	Settings   *domain.Settings                   `json:"settings"`
	History    map[string]*domain.StreamerHistory `json:"history"`
}

// ImportReport summarizes an accepted import.
type ImportReport struct {
	Watchlist     int                 `json:"watchlist"`
	Favorites     int                 `json:"favorites"`
	Histories     int                 `json:"histories"`
	Corrections   []domain.Correction `json:"corrections,omitempty"`
	SettingsReset bool                `json:"settings_reset"`
	HistoryKept   bool                `json:"history_kept"`
}

func (s *Session) Export(ctx context.Context) Backup {
	return Backup{
		Format:     BackupFormat,
		Version:    BackupVersion,
		ExportedAt: s.now().UTC(),
		Watchlist:  s.Watchlist(),
		Favorites:  s.Favorites(),
		Filters:    s.Filter(),
		Settings:   s.Settings(),
		History:    s.history.Export(),
	}
}

// Import replaces the session state with the backup in data. Structural
// problems reject the whole backup; invalid filter values are corrected and
// reported.
func (s *Session) Import(ctx context.Context, data []byte) (ImportReport, error) {
	var in incomingBackup
	if err := json.Unmarshal(data, &in); err != nil {
		return ImportReport{}, fmt.Errorf("%w: %w", ErrInvalidBackup, err)
	}
	if err := in.check(); err != nil {
		return ImportReport{}, err
	}

	var report ImportReport

	filters := domain.DefaultFilterState()
	if in.Filters != nil {
		filters = *in.Filters
	}
	report.Corrections = s.SetFilter(ctx, filters)

	settings := domain.DefaultSettings()
	if in.Settings != nil {
		settings = *in.Settings
	} else {
		report.SettingsReset = true
	}
	s.SaveSettings(ctx, settings)

	s.ReplaceWatchlist(ctx, in.Watchlist)
	report.Watchlist = len(s.Watchlist())

	favs := domain.NewWatchlist(in.Favorites).IDs()
	s.mu.Lock()
	s.favorites = make(map[string]bool, len(favs))
	for _, id := range favs {
		s.favorites[id] = true
	}
	s.mu.Unlock()
	s.store.ReplaceFavorites(ctx, favs)
	report.Favorites = len(favs)

	if in.History != nil {
		s.history.Replace(ctx, in.History)
		report.Histories = s.history.Len()
	} else {
		report.HistoryKept = true
	}

	s.logger.Info("backup imported",
		logger.Int("watchlist", report.Watchlist),
		logger.Int("favorites", report.Favorites),
		logger.Int("histories", report.Histories),
		logger.Int("corrections", len(report.Corrections)),
		logger.Bool("settings_reset", report.SettingsReset),
	)
	return report, nil
}

func (in *incomingBackup) check() error {
	switch {
	case in.Format == nil:
		return &BackupError{Field: "format", Reason: "is missing"}
	case *in.Format != BackupFormat:
		return &BackupError{Field: "format", Reason: fmt.Sprintf("is %q, want %q", *in.Format, BackupFormat)}
	case in.Version == nil:
		return &BackupError{Field: "version", Reason: "is missing"}
	case *in.Version < 1 || *in.Version > BackupVersion:
		return &BackupError{Field: "version", Reason: fmt.Sprintf("%d is not supported", *in.Version)}
	case in.ExportedAt == nil || in.ExportedAt.IsZero():
		return &BackupError{Field: "exported_at", Reason: "is missing"}
	}
	return nil
}
