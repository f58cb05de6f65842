package connection

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds connection flow tunables
type Config struct {
	PollInterval time.Duration
	QRTerminal   bool
}

// Manager owns at most one Flow per instance. Flows are created when the
// operator opens the connection view and destroyed when it closes, so the
// poll timer's lifetime matches the view's.
type Manager struct {
	client   API
	notifier Notifier
	cfg      Config

	mu    sync.Mutex
	flows map[string]*Flow
}

// NewManager creates a new connection flow manager
func NewManager(client API, notifier Notifier, cfg Config) *Manager {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	return &Manager{
		client:   client,
		notifier: notifier,
		cfg:      cfg,
		flows:    make(map[string]*Flow),
	}
}

// Open starts the pairing flow for an instance, seeding it with the
// instance's last known QR payload. Opening an instance that already has
// an active flow returns that flow unchanged.
func (m *Manager) Open(locationID, instanceName, seedQR string) *Flow {
	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.flows[instanceName]; ok {
		return f
	}

	f := newFlow(m.client, m.notifier, locationID, instanceName, seedQR, m.cfg.PollInterval, m.cfg.QRTerminal)
	m.flows[instanceName] = f
	f.start()

	log.Info().Str("instance_name", instanceName).Msg("Connection flow opened")
	return f
}

// Get returns the active flow for an instance, if any
func (m *Manager) Get(instanceName string) (*Flow, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, ok := m.flows[instanceName]
	return f, ok
}

// Close stops an instance's flow and removes it. Reopening afterwards
// restarts the state machine from idle.
func (m *Manager) Close(instanceName string) bool {
	m.mu.Lock()
	f, ok := m.flows[instanceName]
	delete(m.flows, instanceName)
	m.mu.Unlock()

	if !ok {
		return false
	}

	f.Close()
	log.Info().Str("instance_name", instanceName).Msg("Connection flow closed")
	return true
}

// CloseAll stops every active flow; called on shutdown
func (m *Manager) CloseAll() {
	m.mu.Lock()
	flows := m.flows
	m.flows = make(map[string]*Flow)
	m.mu.Unlock()

	for name, f := range flows {
		f.Close()
		log.Debug().Str("instance_name", name).Msg("Connection flow closed on shutdown")
	}
}
