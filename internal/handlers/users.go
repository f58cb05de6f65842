package handlers

import (
	"net/http"

	"waconsole/internal/registry"

	"github.com/rs/zerolog/log"
)

// UsersHandler proxies the tenant's user list for the assignment dropdown
type UsersHandler struct {
	api               registry.API
	notifier          registry.Notifier
	defaultLocationID string
}

// NewUsersHandler creates a new users handler
func NewUsersHandler(api registry.API, notifier registry.Notifier, defaultLocationID string) *UsersHandler {
	return &UsersHandler{
		api:               api,
		notifier:          notifier,
		defaultLocationID: defaultLocationID,
	}
}

// List handles GET /users. A failed fetch surfaces a notification and an
// empty list so the dropdown never shows stale entries.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	locationID := h.defaultLocationID
	if loc := r.URL.Query().Get("locationId"); loc != "" {
		locationID = loc
	}

	users, err := h.api.GetUsers(r.Context(), locationID)
	if err != nil {
		log.Error().Err(err).Str("location_id", locationID).Msg("Failed to load users")
		h.notifier.Error("Error al cargar los usuarios")
		writeJSON(w, http.StatusOK, map[string]any{
			"data":  []any{},
			"total": 0,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  users,
		"total": len(users),
	})
}
