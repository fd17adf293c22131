package app

import (
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/MrSnakeDoc/livewatch/internal/config"
	"github.com/MrSnakeDoc/livewatch/internal/domain"
	"github.com/MrSnakeDoc/livewatch/internal/logger"
	"github.com/MrSnakeDoc/livewatch/internal/session"
)

// maxImportBytes caps a backup read from disk or stdin.
const maxImportBytes = 32 << 20

// Offline opens the persisted state without starting the server or any
// background loop. Used by the export, import and analyze commands.
type Offline struct {
	*core
}

func OpenOffline(ctx context.Context) (*Offline, error) {
	cfg := config.Load()
	// Offline commands write their result to stdout; keep logs quiet there.
	loggerClient := logger.New("warn", cfg.PrettyLog)

	c, err := buildCore(ctx, cfg, loggerClient)
	if err != nil {
		return nil, err
	}
	report := c.session.Restore(ctx)
	loggerClient.Debug("offline state restored",
		logger.Int("watchlist", report.Watchlist),
		logger.Int("favorites", report.Favorites),
		logger.Int("histories", report.Histories))
	return &Offline{core: c}, nil
}

// Export writes the backup envelope as indented JSON.
func (o *Offline) Export(ctx context.Context, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o.session.Export(ctx)); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Import replaces the persisted state with the backup read from r.
func (o *Offline) Import(ctx context.Context, r io.Reader) (session.ImportReport, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		return session.ImportReport{}, fmt.Errorf("read backup: %w", err)
	}
	if len(data) > maxImportBytes {
		return session.ImportReport{}, fmt.Errorf("backup larger than %d bytes", maxImportBytes)
	}
	return o.session.Import(ctx, data)
}

// Analyze derives analytics for id over days (settings window when <= 0).
func (o *Offline) Analyze(id string, days int) (domain.Analytics, bool) {
	return o.session.Analyze(id, days)
}

func (o *Offline) Close() { o.close() }
