package registry

import (
	"context"
	"fmt"
	"sync"

	"waconsole/internal/domain"

	"github.com/rs/zerolog/log"
)

// API is the slice of the bridge client the registry depends on
type API interface {
	GetUsers(ctx context.Context, locationID string) ([]domain.User, error)
	ListInstances(ctx context.Context, locationID string) ([]domain.Instance, error)
	GetInstanceConfig(ctx context.Context, locationID, instanceID string) (*domain.InstanceDetail, error)
	CreateInstance(ctx context.Context, locationID string, cfg domain.InstanceConfig, instanceName string, contact *domain.User) error
	EditInstance(ctx context.Context, locationID, instanceName string, cfg domain.InstanceConfig) error
	DeleteInstance(ctx context.Context, locationID, instanceName string) error
	TurnOffInstance(ctx context.Context, locationID, instanceName string) error
}

// Notifier surfaces transient operator notifications
type Notifier interface {
	Success(message string)
	Error(message string)
}

// AuditStore records operator mutations
type AuditStore interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
}

// Config holds registry tunables
type Config struct {
	NamePrefix   string
	MaxInstances int
}

// Registry owns the in-memory instance list for the active tenant. It is
// rehydrated from the backend on load and after every mutation; mutations
// are never patched in locally (trust-but-reload).
type Registry struct {
	client   API
	notifier Notifier
	audit    AuditStore
	cfg      Config

	mu        sync.RWMutex
	instances []domain.Instance
}

// New creates a new instance registry
func New(client API, notifier Notifier, audit AuditStore, cfg Config) *Registry {
	if cfg.NamePrefix == "" {
		cfg.NamePrefix = domain.DefaultNamePrefix
	}
	if cfg.MaxInstances <= 0 {
		cfg.MaxInstances = 5
	}
	return &Registry{
		client:   client,
		notifier: notifier,
		audit:    audit,
		cfg:      cfg,
	}
}

// Load replaces the in-memory list with the backend's view. On failure the
// list is cleared so the UI never shows stale data alongside an error.
func (r *Registry) Load(ctx context.Context, locationID string) ([]domain.Instance, error) {
	instances, err := r.client.ListInstances(ctx, locationID)
	if err != nil {
		log.Error().Err(err).Str("location_id", locationID).Msg("Failed to load instances")
		r.mu.Lock()
		r.instances = nil
		r.mu.Unlock()
		r.notifier.Error("Error al cargar las instancias")
		return nil, err
	}

	r.mu.Lock()
	r.instances = instances
	r.mu.Unlock()

	log.Info().Int("count", len(instances)).Str("location_id", locationID).Msg("Instances loaded")
	return r.Instances(), nil
}

// Instances returns a snapshot of the current list
func (r *Registry) Instances() []domain.Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := make([]domain.Instance, len(r.instances))
	copy(snapshot, r.instances)
	return snapshot
}

// Count returns the number of instances currently held
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// HasMainDevice reports whether any instance is flagged as main device
func (r *Registry) HasMainDevice() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.instances {
		if r.instances[i].MainDevice {
			return true
		}
	}
	return false
}

// Get returns the instance with the given name, if present
func (r *Registry) Get(instanceName string) (domain.Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.instances {
		if r.instances[i].InstanceName == instanceName {
			return r.instances[i], true
		}
	}
	return domain.Instance{}, false
}

// NextDefaultName derives the default name for the next instance
func (r *Registry) NextDefaultName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return domain.NextDefaultName(r.cfg.NamePrefix, r.instances)
}

// Create validates the draft and provisions a new instance. The hard cap
// and all form rules are checked before any network call is made.
func (r *Registry) Create(ctx context.Context, locationID string, draft domain.ConfigDraft) (string, error) {
	if r.Count() >= r.cfg.MaxInstances {
		err := domain.ErrInstanceLimitReached(r.cfg.MaxInstances)
		r.notifier.Error(err.(*domain.BusinessError).Message)
		return "", err
	}

	cfg, err := domain.ValidateDraft(draft, r.HasMainDevice(), false)
	if err != nil {
		return "", err
	}

	instanceName := r.NextDefaultName()

	var contact *domain.User
	if cfg.UserID != "" {
		contact = r.lookupUser(ctx, locationID, cfg.UserID)
	}

	if err := r.client.CreateInstance(ctx, locationID, cfg, instanceName, contact); err != nil {
		log.Error().Err(err).Str("instance_name", instanceName).Msg("Failed to create instance")
		r.notifier.Error("Error al crear WhatsApp")
		return "", err
	}

	r.recordAudit(ctx, locationID, domain.AuditCreate, instanceName, fmt.Sprintf("alias=%s", cfg.Alias))
	r.notifier.Success("WhatsApp creado correctamente")
	r.reload(ctx, locationID)

	log.Info().
		Str("instance_name", instanceName).
		Str("alias", cfg.Alias).
		Bool("main_device", cfg.IsMainDevice).
		Msg("Instance created")
	return instanceName, nil
}

// Edit validates the draft and updates an existing instance
func (r *Registry) Edit(ctx context.Context, locationID, instanceName string, draft domain.ConfigDraft) error {
	editingMainDevice := false
	if current, ok := r.Get(instanceName); ok {
		editingMainDevice = current.MainDevice
	}

	cfg, err := domain.ValidateDraft(draft, r.HasMainDevice(), editingMainDevice)
	if err != nil {
		return err
	}

	if err := r.client.EditInstance(ctx, locationID, instanceName, cfg); err != nil {
		log.Error().Err(err).Str("instance_name", instanceName).Msg("Failed to edit instance")
		r.notifier.Error("Error al actualizar la configuración")
		return err
	}

	r.recordAudit(ctx, locationID, domain.AuditEdit, instanceName, fmt.Sprintf("alias=%s", cfg.Alias))
	r.notifier.Success("Configuración actualizada correctamente")
	r.reload(ctx, locationID)

	log.Info().Str("instance_name", instanceName).Msg("Instance updated")
	return nil
}

// Delete removes an instance. Confirmation is the UI's responsibility;
// this call is the point of no return.
func (r *Registry) Delete(ctx context.Context, locationID, instanceName string) error {
	if err := r.client.DeleteInstance(ctx, locationID, instanceName); err != nil {
		log.Error().Err(err).Str("instance_name", instanceName).Msg("Failed to delete instance")
		r.notifier.Error("Error al eliminar la instancia")
		return err
	}

	r.recordAudit(ctx, locationID, domain.AuditDelete, instanceName, "")
	r.notifier.Success("Instancia eliminada correctamente")
	r.reload(ctx, locationID)

	log.Info().Str("instance_name", instanceName).Msg("Instance deleted")
	return nil
}

// TurnOff disconnects an instance without deleting it
func (r *Registry) TurnOff(ctx context.Context, locationID, instanceName string) error {
	if err := r.client.TurnOffInstance(ctx, locationID, instanceName); err != nil {
		log.Error().Err(err).Str("instance_name", instanceName).Msg("Failed to turn off instance")
		r.notifier.Error("Error al desconectar la instancia")
		return err
	}

	r.recordAudit(ctx, locationID, domain.AuditTurnOff, instanceName, "")
	r.notifier.Success("Instancia desconectada correctamente")
	r.reload(ctx, locationID)

	log.Info().Str("instance_name", instanceName).Msg("Instance turned off")
	return nil
}

// lookupUser resolves the assigned user's contact details. Creation
// proceeds without them if the user list cannot be fetched.
func (r *Registry) lookupUser(ctx context.Context, locationID, userID string) *domain.User {
	users, err := r.client.GetUsers(ctx, locationID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Could not resolve user contact details")
		return nil
	}
	for i := range users {
		if users[i].ID == userID {
			return &users[i]
		}
	}
	return nil
}

// reload refreshes the list after a successful mutation. A failed reload
// already surfaces its own notification inside Load.
func (r *Registry) reload(ctx context.Context, locationID string) {
	if _, err := r.Load(ctx, locationID); err != nil {
		log.Warn().Err(err).Msg("Reload after mutation failed")
	}
}

func (r *Registry) recordAudit(ctx context.Context, locationID string, action domain.AuditAction, instanceName, detail string) {
	if r.audit == nil {
		return
	}
	entry := domain.NewAuditEntry(locationID, action, instanceName, detail)
	if err := r.audit.Create(ctx, entry); err != nil {
		log.Warn().Err(err).Str("action", string(action)).Msg("Failed to record audit entry")
	}
}
