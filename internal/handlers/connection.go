package handlers

import (
	"net/http"
	"time"

	"waconsole/internal/connection"
	"waconsole/internal/domain"
	"waconsole/internal/registry"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionHandler drives the QR pairing flow over HTTP and WebSocket
type ConnectionHandler struct {
	manager           *connection.Manager
	registry          *registry.Registry
	defaultLocationID string
	upgrader          websocket.Upgrader
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(manager *connection.Manager, reg *registry.Registry, defaultLocationID string) *ConnectionHandler {
	return &ConnectionHandler{
		manager:           manager,
		registry:          reg,
		defaultLocationID: defaultLocationID,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The console runs behind the deployment's own auth layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *ConnectionHandler) locationID(r *http.Request) string {
	if loc := r.URL.Query().Get("locationId"); loc != "" {
		return loc
	}
	return h.defaultLocationID
}

// Open handles POST /instances/{instanceName}/connection. It starts the
// pairing flow, seeded with the instance's last known QR payload.
func (h *ConnectionHandler) Open(w http.ResponseWriter, r *http.Request) {
	instanceName := chi.URLParam(r, "instanceName")

	seedQR := ""
	if inst, ok := h.registry.Get(instanceName); ok {
		seedQR = inst.QRCode
	}

	flow := h.manager.Open(h.locationID(r), instanceName, seedQR)

	log.Info().
		Str("instance_name", instanceName).
		Str("remote_addr", r.RemoteAddr).
		Msg("Connection flow requested")

	writeJSON(w, http.StatusAccepted, flow.Snapshot())
}

// Snapshot handles GET /instances/{instanceName}/connection
func (h *ConnectionHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	instanceName := chi.URLParam(r, "instanceName")

	flow, ok := h.manager.Get(instanceName)
	if !ok {
		writeError(w, domain.NewNotFoundError("ConnectionFlow", instanceName))
		return
	}

	writeJSON(w, http.StatusOK, flow.Snapshot())
}

// Close handles DELETE /instances/{instanceName}/connection. Closing the
// view always stops subsequent polling.
func (h *ConnectionHandler) Close(w http.ResponseWriter, r *http.Request) {
	instanceName := chi.URLParam(r, "instanceName")

	if !h.manager.Close(instanceName) {
		writeError(w, domain.NewNotFoundError("ConnectionFlow", instanceName))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
)

// Stream handles GET /instances/{instanceName}/connection/ws. It pushes
// flow events (fresh QR codes, the connected transition, notices) to the
// browser so the UI does not have to poll this service.
func (h *ConnectionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	instanceName := chi.URLParam(r, "instanceName")

	flow, ok := h.manager.Get(instanceName)
	if !ok {
		writeError(w, domain.NewNotFoundError("ConnectionFlow", instanceName))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("instance_name", instanceName).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	events, unsubscribe := flow.Subscribe()
	defer unsubscribe()

	// Reader goroutine: we ignore client messages, but reading is what
	// detects the peer going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Replay the current state so a client that connects mid-flow is
	// not left waiting for the next tick.
	snapshot := flow.Snapshot()
	if snapshot.Connected {
		h.writeEvent(conn, connection.Event{Type: connection.EventConnected, Profile: snapshot.Profile})
	} else if snapshot.QRCode != "" {
		h.writeEvent(conn, connection.Event{Type: connection.EventQR, QRCode: snapshot.QRCode})
	}

	pings := time.NewTicker(wsPingPeriod)
	defer pings.Stop()

	for {
		select {
		case <-closed:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.writeEvent(conn, ev); err != nil {
				return
			}
			if ev.Type == connection.EventConnected {
				return
			}
		case <-pings.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *ConnectionHandler) writeEvent(conn *websocket.Conn, ev connection.Event) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(ev)
}
