package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/livewatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/livewatch/internal/session"
)

const maxBackupBytes = 32 << 20

func ExportBackup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := d.Session.Export(r.Context())
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="livewatch-backup-%s.json"`, b.ExportedAt.Format("20060102-150405")))
		writeJSON(w, http.StatusOK, b)
	}
}

func ImportBackup(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
		if err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "backup too large")
			return
		}
		report, err := d.Session.Import(r.Context(), data)
		if err != nil {
			if errors.Is(err, session.ErrInvalidBackup) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "import failed")
			return
		}
		select {
		case d.RefreshTrigger <- struct{}{}:
		default:
		}
		writeJSON(w, http.StatusOK, report)
	}
}
