package handlers

import (
	"errors"
	"net/http"

	appdb "bakehouse/internal/db"
	applog "bakehouse/internal/log"
)

var errBackupsUnavailable = errors.New("backups are only available for a local sqlite database")

type restoreResponse struct {
	Restored string `json:"restored"`
}

func (h *Handlers) backupsAvailable(w http.ResponseWriter, r *http.Request) bool {
	if h.backups == nil {
		writeJSON(w, r, http.StatusNotImplemented, errorResponse{Error: errBackupsUnavailable.Error()})
		return false
	}
	return true
}

func (h *Handlers) ListBackups(w http.ResponseWriter, r *http.Request) {
	if !h.backupsAvailable(w, r) {
		return
	}
	backups, err := h.backups.List()
	if err != nil {
		writeError(w, r, err)
		return
	}
	last, err := h.backups.LastBackup()
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := map[string]any{"backups": backups}
	if !last.IsZero() {
		resp["last_backup"] = last
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handlers) CreateBackup(w http.ResponseWriter, r *http.Request) {
	if !h.backupsAvailable(w, r) {
		return
	}
	b, err := h.backups.Backup(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	applog.Info(r.Context(), "manual backup taken", "file", b.Name, "by", h.currentUser(r).Username)
	writeJSON(w, r, http.StatusCreated, b)
}

// RestoreBackup swaps the live data for the named backup's rows.
func (h *Handlers) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	if !h.backupsAvailable(w, r) {
		return
	}
	name := r.PathValue("name")
	tables, err := appdb.Tables(h.db)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.backups.RestoreInto(r.Context(), h.db, name, tables); err != nil {
		writeError(w, r, err)
		return
	}
	h.bakery.InvalidateReports(r.Context())
	applog.Warn(r.Context(), "database restored from backup", "file", name, "by", h.currentUser(r).Username)
	writeJSON(w, r, http.StatusOK, restoreResponse{Restored: name})
}
