package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	"bakehouse/internal/auth"
	"bakehouse/internal/backup"
	"bakehouse/internal/bakery"
	"bakehouse/internal/delivery"
	applog "bakehouse/internal/log"
)

const maxJSONBody = 1 << 20

var errBadRequest = errors.New("handlers: malformed request")

// Dependencies are the services the HTTP handlers call into. Backups may be
// nil when the database is not a local sqlite file.
type Dependencies struct {
	Sessions   *scs.SessionManager
	Database   *gorm.DB
	Bakery     *bakery.Bakery
	Users      *auth.Store
	Backups    *backup.Manager
	Deliveries *delivery.Importer
}

// Handlers serves the till's HTTP surface.
type Handlers struct {
	sessions   *scs.SessionManager
	db         *gorm.DB
	bakery     *bakery.Bakery
	users      *auth.Store
	backups    *backup.Manager
	deliveries *delivery.Importer
}

func New(deps Dependencies) *Handlers {
	h := &Handlers{
		sessions:   deps.Sessions,
		db:         deps.Database,
		bakery:     deps.Bakery,
		users:      deps.Users,
		backups:    deps.Backups,
		deliveries: deps.Deliveries,
	}
	if h.deliveries == nil && h.bakery != nil {
		h.deliveries = delivery.NewImporter(h.bakery.Inventory)
	}
	return h
}

type errorResponse struct {
	Error      string   `json:"error"`
	Ingredient string   `json:"ingredient,omitempty"`
	Unit       string   `json:"unit,omitempty"`
	Available  *float64 `json:"available,omitempty"`
	Required   *float64 `json:"required,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.Error(r.Context(), "failed to encode response", "error", err, "path", r.URL.Path)
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var insufficient *bakery.InsufficientStockError
	if errors.As(err, &insufficient) {
		writeJSON(w, r, http.StatusConflict, errorResponse{
			Error:      err.Error(),
			Ingredient: insufficient.Ingredient,
			Unit:       insufficient.Unit,
			Available:  &insufficient.Available,
			Required:   &insufficient.Required,
		})
		return
	}

	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		applog.Error(r.Context(), "request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		message = "internal error"
	}
	writeJSON(w, r, status, errorResponse{Error: message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, bakery.ErrDuplicateName),
		errors.Is(err, auth.ErrDuplicateUsername),
		errors.Is(err, backup.ErrNoDatabase):
		return http.StatusConflict
	case errors.Is(err, bakery.ErrInvalidName),
		errors.Is(err, bakery.ErrInvalidAmount),
		errors.Is(err, bakery.ErrEmptyRecipe),
		errors.Is(err, bakery.ErrUnknownWindow),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, delivery.ErrUnsupportedFormat),
		errors.Is(err, delivery.ErrEmptyNote),
		errors.Is(err, backup.ErrInvalidBackup),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, bakery.ErrNotFound),
		errors.Is(err, bakery.ErrRecipeNotFound),
		errors.Is(err, backup.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (uint, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return uint(id), nil
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errBadRequest, key, raw)
	}
	return v, nil
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
