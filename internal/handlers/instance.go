package handlers

import (
	"encoding/json"
	"net/http"

	"waconsole/internal/domain"
	"waconsole/internal/registry"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// InstanceHandler handles HTTP requests for instance operations
type InstanceHandler struct {
	registry          *registry.Registry
	api               registry.API
	defaultLocationID string
	validate          *validator.Validate
}

// NewInstanceHandler creates a new instance handler
func NewInstanceHandler(reg *registry.Registry, api registry.API, defaultLocationID string) *InstanceHandler {
	return &InstanceHandler{
		registry:          reg,
		api:               api,
		defaultLocationID: defaultLocationID,
		validate:          validator.New(),
	}
}

// locationID resolves the tenant for a request: the fixed deployment
// tenant unless the UI passes an explicit locationId override.
func (h *InstanceHandler) locationID(r *http.Request) string {
	if loc := r.URL.Query().Get("locationId"); loc != "" {
		return loc
	}
	return h.defaultLocationID
}

// instanceConfigRequest is the create/edit form payload
type instanceConfigRequest struct {
	Alias        string `json:"alias" validate:"max=255"`
	UserID       string `json:"userId" validate:"max=64"`
	IsMainDevice bool   `json:"isMainDevice"`
	FacebookAds  bool   `json:"facebookAds"`
}

func (req instanceConfigRequest) draft() domain.ConfigDraft {
	draft := domain.ConfigDraft{
		Alias:       req.Alias,
		UserID:      req.UserID,
		FacebookAds: req.FacebookAds,
	}
	draft.SetMainDevice(req.IsMainDevice)
	return draft
}

// List handles GET /instances
func (h *InstanceHandler) List(w http.ResponseWriter, r *http.Request) {
	instances, err := h.registry.Load(r.Context(), h.locationID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":              instances,
		"total":             len(instances),
		"has_main_device":   h.registry.HasMainDevice(),
		"next_default_name": h.registry.NextDefaultName(),
	})
}

// Create handles POST /instances
func (h *InstanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req instanceConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Failed to decode create instance request")
		writeError(w, domain.NewValidationError("cuerpo de la solicitud inválido"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, domain.NewValidationError(err.Error()))
		return
	}

	instanceName, err := h.registry.Create(r.Context(), h.locationID(r), req.draft())
	if err != nil {
		log.Error().Err(err).Msg("Failed to create instance")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"instance_name": instanceName,
		"message":       "WhatsApp creado correctamente",
	})
}

// GetConfig handles GET /instances/config?instanceId=N
func (h *InstanceHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	instanceID := r.URL.Query().Get("instanceId")
	if instanceID == "" {
		writeError(w, domain.NewValidationError("instanceId es requerido"))
		return
	}

	detail, err := h.api.GetInstanceConfig(r.Context(), h.locationID(r), instanceID)
	if err != nil {
		log.Error().Err(err).Str("instance_id", instanceID).Msg("Failed to get instance config")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": detail})
}

// Edit handles PUT /instances/{instanceName}
func (h *InstanceHandler) Edit(w http.ResponseWriter, r *http.Request) {
	instanceName := chi.URLParam(r, "instanceName")

	var req instanceConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error().Err(err).Msg("Failed to decode edit instance request")
		writeError(w, domain.NewValidationError("cuerpo de la solicitud inválido"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, domain.NewValidationError(err.Error()))
		return
	}

	if err := h.registry.Edit(r.Context(), h.locationID(r), instanceName, req.draft()); err != nil {
		log.Error().Err(err).Str("instance_name", instanceName).Msg("Failed to edit instance")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instance_name": instanceName,
		"message":       "Configuración actualizada correctamente",
	})
}

// Delete handles DELETE /instances/{instanceName}. The UI owns the
// confirmation dialog; this call is irreversible.
func (h *InstanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	instanceName := chi.URLParam(r, "instanceName")

	if err := h.registry.Delete(r.Context(), h.locationID(r), instanceName); err != nil {
		log.Error().Err(err).Str("instance_name", instanceName).Msg("Failed to delete instance")
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TurnOff handles POST /instances/{instanceName}/turnoff
func (h *InstanceHandler) TurnOff(w http.ResponseWriter, r *http.Request) {
	instanceName := chi.URLParam(r, "instanceName")

	if err := h.registry.TurnOff(r.Context(), h.locationID(r), instanceName); err != nil {
		log.Error().Err(err).Str("instance_name", instanceName).Msg("Failed to turn off instance")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"instance_name": instanceName,
		"message":       "Instancia desconectada correctamente",
	})
}
