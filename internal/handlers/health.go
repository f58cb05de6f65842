package handlers

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	startTime time.Time
	version   string
	db        HealthChecker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, db HealthChecker) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		version:   version,
		db:        db,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   "waconsole",
		Version:   h.version,
		Timestamp: time.Now(),
		Uptime:    uptime.String(),
	})
}

// Ready handles GET /ready (readiness probe)
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"database": "ok",
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Health(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": "ready",
		"checks": checks,
	})
}
