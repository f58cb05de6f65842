package connection

import (
	"context"
	"os"
	"sync"
	"time"

	"waconsole/internal/domain"
	"waconsole/internal/upstream"

	"github.com/mdp/qrterminal/v3"
	"github.com/rs/zerolog/log"
)

// API is the slice of the bridge client the connection flow depends on
type API interface {
	RefreshQR(ctx context.Context, locationID, instanceName string) (*upstream.QRResult, error)
	GetInstanceData(ctx context.Context, locationID, instanceName string) (*domain.InstanceProfile, error)
}

// Notifier surfaces transient operator notifications
type Notifier interface {
	Success(message string)
	Error(message string)
}

// State is the pairing flow state for one instance
type State string

const (
	StateIdle         State = "idle"
	StateRequesting   State = "requesting"
	StateAwaitingScan State = "awaiting_scan"
	StateConnected    State = "connected"
)

// EventType identifies a flow event pushed to subscribers
type EventType string

const (
	EventQR        EventType = "qr"
	EventConnected EventType = "connected"
	EventNotice    EventType = "notice"
)

// Event is pushed to flow subscribers (the WebSocket bridge)
type Event struct {
	Type    EventType               `json:"type"`
	QRCode  string                  `json:"qrcode,omitempty"`
	Profile *domain.InstanceProfile `json:"profile,omitempty"`
	Message string                  `json:"message,omitempty"`
}

// Snapshot is the externally visible flow state
type Snapshot struct {
	InstanceName string                  `json:"instance_name"`
	State        State                   `json:"state"`
	Connected    bool                    `json:"connected"`
	QRCode       string                  `json:"qrcode,omitempty"`
	Profile      *domain.InstanceProfile `json:"profile,omitempty"`
}

// Flow drives QR pairing for a single instance: it polls the bridge on a
// fixed interval until the backend reports the connection open, then
// fetches the live profile once and stops. Closing the flow cancels the
// timer on every exit path.
type Flow struct {
	locationID   string
	instanceName string
	client       API
	notifier     Notifier
	interval     time.Duration
	qrTerminal   bool

	cancel context.CancelFunc
	done   chan struct{}

	mu         sync.Mutex
	state      State
	qrCode     string
	profile    *domain.InstanceProfile
	failedOnce bool
	subs       map[chan Event]struct{}
}

func newFlow(client API, notifier Notifier, locationID, instanceName, seedQR string, interval time.Duration, qrTerminal bool) *Flow {
	f := &Flow{
		locationID:   locationID,
		instanceName: instanceName,
		client:       client,
		notifier:     notifier,
		interval:     interval,
		qrTerminal:   qrTerminal,
		done:         make(chan struct{}),
		state:        StateIdle,
		subs:         make(map[chan Event]struct{}),
	}

	// The instance's last known QR payload seeds the view so the
	// operator is not staring at a blank panel until the first poll.
	if seedQR != "" {
		if qr, err := upstream.NormalizeQR(seedQR); err == nil {
			f.qrCode = qr.DataURI
		}
	}
	return f
}

func (f *Flow) start() {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go f.run(ctx)
}

func (f *Flow) run(ctx context.Context) {
	defer close(f.done)

	f.tick(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.tick(ctx)
		}
	}
}

// tick performs one poll. Ticks run synchronously inside the flow
// goroutine, so they never overlap.
func (f *Flow) tick(ctx context.Context) {
	f.mu.Lock()
	if f.state == StateConnected {
		f.mu.Unlock()
		return
	}
	hadQR := f.qrCode != ""
	f.state = StateRequesting
	f.mu.Unlock()

	result, err := f.client.RefreshQR(ctx, f.locationID, f.instanceName)
	if err != nil {
		f.handlePollFailure(hadQR, err)
		return
	}

	if result.DataURI != "" {
		f.storeQR(result)
	}

	if result.State.IsConnected() {
		f.markConnected(ctx)
		return
	}

	f.mu.Lock()
	if f.qrCode != "" {
		f.state = StateAwaitingScan
	} else {
		f.state = StateIdle
	}
	f.mu.Unlock()
}

// handlePollFailure surfaces the very first failed attempt once and
// swallows the rest, so the operator is not toasted every 30 seconds.
func (f *Flow) handlePollFailure(hadQR bool, err error) {
	f.mu.Lock()
	first := !f.failedOnce
	f.failedOnce = true
	if hadQR {
		f.state = StateAwaitingScan
	} else {
		f.state = StateIdle
	}
	f.mu.Unlock()

	if first {
		log.Error().Err(err).Str("instance_name", f.instanceName).Msg("QR refresh failed")
		f.notifier.Error("Error al obtener QR")
		f.publish(Event{Type: EventNotice, Message: "Error al obtener QR"})
		return
	}
	log.Debug().Err(err).Str("instance_name", f.instanceName).Msg("QR refresh failed, retrying on next tick")
}

func (f *Flow) storeQR(result *upstream.QRResult) {
	f.mu.Lock()
	f.qrCode = result.DataURI
	f.state = StateAwaitingScan
	f.mu.Unlock()

	f.publish(Event{Type: EventQR, QRCode: result.DataURI})

	if f.qrTerminal && result.Code != "" {
		qrterminal.GenerateHalfBlock(result.Code, qrterminal.L, os.Stdout)
	}

	log.Debug().Str("instance_name", f.instanceName).Msg("QR code refreshed")
}

// markConnected is the terminal transition: polling stops, the live
// profile is fetched exactly once as a trailing step, and a one-time
// success notification goes out.
func (f *Flow) markConnected(ctx context.Context) {
	profile, err := f.client.GetInstanceData(ctx, f.locationID, f.instanceName)
	if err != nil {
		log.Warn().Err(err).Str("instance_name", f.instanceName).Msg("Connected, but profile fetch failed")
		profile = nil
	}

	f.mu.Lock()
	f.state = StateConnected
	f.profile = profile
	f.mu.Unlock()

	f.notifier.Success("WhatsApp conectado correctamente")
	f.publish(Event{Type: EventConnected, Profile: profile})

	log.Info().Str("instance_name", f.instanceName).Msg("WhatsApp instance connected")

	f.cancel()
}

// Snapshot returns the current flow state
func (f *Flow) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	return Snapshot{
		InstanceName: f.instanceName,
		State:        f.state,
		Connected:    f.state == StateConnected,
		QRCode:       f.qrCode,
		Profile:      f.profile,
	}
}

// Subscribe registers an event channel. The returned function removes the
// subscription; events that cannot be delivered immediately are dropped
// rather than blocking the flow.
func (f *Flow) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		delete(f.subs, ch)
		f.mu.Unlock()
	}
}

func (f *Flow) publish(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Close cancels the poll timer and waits for the flow goroutine to exit.
// No request fires after Close returns.
func (f *Flow) Close() {
	f.cancel()
	<-f.done
}
