package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Level classifies a notification for the UI
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient operator-facing message, the server-side
// counterpart of the console's toasts.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

const maxPending = 100

// Hub queues notifications until the UI drains them. Oldest entries are
// dropped once the queue is full.
type Hub struct {
	mu      sync.Mutex
	pending []Notification
}

// NewHub creates a new notification hub
func NewHub() *Hub {
	return &Hub{}
}

// Success queues a success notification
func (h *Hub) Success(message string) {
	h.push(LevelSuccess, message)
}

// Error queues an error notification
func (h *Hub) Error(message string) {
	h.push(LevelError, message)
}

// Drain returns all pending notifications and clears the queue
func (h *Hub) Drain() []Notification {
	h.mu.Lock()
	defer h.mu.Unlock()

	drained := h.pending
	h.pending = nil
	if drained == nil {
		drained = []Notification{}
	}
	return drained
}

func (h *Hub) push(level Level, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.pending = append(h.pending, Notification{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		CreatedAt: time.Now(),
	})
	if len(h.pending) > maxPending {
		h.pending = h.pending[len(h.pending)-maxPending:]
	}

	log.Debug().Str("level", string(level)).Str("message", message).Msg("Notification queued")
}
