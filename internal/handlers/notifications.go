package handlers

import (
	"net/http"

	"waconsole/internal/notify"
)

// NotificationsHandler drains pending operator notifications
type NotificationsHandler struct {
	hub *notify.Hub
}

// NewNotificationsHandler creates a new notifications handler
func NewNotificationsHandler(hub *notify.Hub) *NotificationsHandler {
	return &NotificationsHandler{hub: hub}
}

// Drain handles GET /notifications. Returned notifications are removed
// from the queue; the UI shows them as toasts.
func (h *NotificationsHandler) Drain(w http.ResponseWriter, r *http.Request) {
	notifications := h.hub.Drain()
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  notifications,
		"total": len(notifications),
	})
}
