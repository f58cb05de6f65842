package notify

import (
	"fmt"
	"testing"
)

func TestHubDrain(t *testing.T) {
	t.Run("returns queued notifications in order and clears them", func(t *testing.T) {
		hub := NewHub()
		hub.Success("WhatsApp creado correctamente")
		hub.Error("Error al obtener QR")

		drained := hub.Drain()
		if len(drained) != 2 {
			t.Fatalf("expected 2 notifications, got %d", len(drained))
		}
		if drained[0].Level != LevelSuccess || drained[0].Message != "WhatsApp creado correctamente" {
			t.Errorf("unexpected first notification: %+v", drained[0])
		}
		if drained[1].Level != LevelError {
			t.Errorf("unexpected second notification: %+v", drained[1])
		}
		if drained[0].ID == drained[1].ID {
			t.Error("notifications should carry distinct ids")
		}

		if again := hub.Drain(); len(again) != 0 {
			t.Errorf("second drain should be empty, got %d", len(again))
		}
	})

	t.Run("empty hub drains to an empty slice, not nil", func(t *testing.T) {
		hub := NewHub()
		if drained := hub.Drain(); drained == nil {
			t.Error("Drain() returned nil, want empty slice")
		}
	})

	t.Run("oldest entries are dropped past the cap", func(t *testing.T) {
		hub := NewHub()
		for i := 0; i < maxPending+10; i++ {
			hub.Success(fmt.Sprintf("mensaje %d", i))
		}

		drained := hub.Drain()
		if len(drained) != maxPending {
			t.Fatalf("expected %d notifications, got %d", maxPending, len(drained))
		}
		if drained[0].Message != "mensaje 10" {
			t.Errorf("oldest surviving message = %q, want %q", drained[0].Message, "mensaje 10")
		}
	})
}
