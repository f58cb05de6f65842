package handlers

import (
	"net/http"
	"strconv"

	"waconsole/internal/storage/repository"

	"github.com/rs/zerolog/log"
)

// AuditHandler lists recent operator actions
type AuditHandler struct {
	repo              *repository.AuditRepository
	defaultLocationID string
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(repo *repository.AuditRepository, defaultLocationID string) *AuditHandler {
	return &AuditHandler{repo: repo, defaultLocationID: defaultLocationID}
}

// Recent handles GET /audit
func (h *AuditHandler) Recent(w http.ResponseWriter, r *http.Request) {
	locationID := h.defaultLocationID
	if loc := r.URL.Query().Get("locationId"); loc != "" {
		locationID = loc
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	entries, err := h.repo.Recent(r.Context(), locationID, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list audit entries")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": len(entries),
	})
}
