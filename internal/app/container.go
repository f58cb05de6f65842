package app

import (
	"context"
	"fmt"

	"waconsole/internal/app/config"
	"waconsole/internal/connection"
	"waconsole/internal/notify"
	"waconsole/internal/registry"
	"waconsole/internal/storage"
	"waconsole/internal/storage/repository"
	"waconsole/internal/upstream"

	"github.com/rs/zerolog/log"
)

// Container holds all application dependencies
type Container struct {
	config *config.Config
	db     *storage.Database

	// Bridge API
	bridge *upstream.Client

	// Notifications
	hub *notify.Hub

	// Repositories
	auditRepo *repository.AuditRepository

	// Core components
	registry *registry.Registry
	flows    *connection.Manager
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	container := &Container{
		config: cfg,
		hub:    notify.NewHub(),
	}

	if err := container.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	container.initializeBridge()
	container.initializeRegistry()
	container.initializeConnectionFlows()

	log.Info().Msg("Application container initialized successfully")
	return container, nil
}

// initializeDatabase sets up the audit database and runs migrations
func (c *Container) initializeDatabase() error {
	db, err := storage.New(c.config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.db = db
	c.auditRepo = repository.NewAuditRepository(db.DB)
	log.Info().Msg("Database initialized successfully")
	return nil
}

// initializeBridge sets up the WhatsApp-bridge API client
func (c *Container) initializeBridge() {
	c.bridge = upstream.New(c.config.Bridge.BaseURL, c.config.Bridge.Timeout)
	log.Info().Str("base_url", c.config.Bridge.BaseURL).Msg("Bridge API client initialized")
}

// initializeRegistry sets up the instance registry
func (c *Container) initializeRegistry() {
	c.registry = registry.New(c.bridge, c.hub, c.auditRepo, registry.Config{
		NamePrefix:   c.config.Registry.NamePrefix,
		MaxInstances: c.config.Registry.MaxInstances,
	})
	log.Info().
		Str("name_prefix", c.config.Registry.NamePrefix).
		Int("max_instances", c.config.Registry.MaxInstances).
		Msg("Instance registry initialized")
}

// initializeConnectionFlows sets up the QR pairing flow manager
func (c *Container) initializeConnectionFlows() {
	c.flows = connection.NewManager(c.bridge, c.hub, connection.Config{
		PollInterval: c.config.Polling.Interval,
		QRTerminal:   c.config.Polling.QRTerminal,
	})
	log.Info().
		Dur("poll_interval", c.config.Polling.Interval).
		Msg("Connection flow manager initialized")
}

// Close closes all resources
func (c *Container) Close() error {
	if c.flows != nil {
		c.flows.CloseAll()
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database connection")
			return err
		}
	}

	log.Info().Msg("Application container closed successfully")
	return nil
}

// Getters for dependencies

func (c *Container) Config() *config.Config {
	return c.config
}

func (c *Container) Database() *storage.Database {
	return c.db
}

func (c *Container) Bridge() *upstream.Client {
	return c.bridge
}

func (c *Container) NotificationHub() *notify.Hub {
	return c.hub
}

func (c *Container) AuditRepository() *repository.AuditRepository {
	return c.auditRepo
}

func (c *Container) Registry() *registry.Registry {
	return c.registry
}

func (c *Container) ConnectionFlows() *connection.Manager {
	return c.flows
}
