package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"waconsole/internal/handlers"
	"waconsole/internal/router"

	"github.com/rs/zerolog/log"
)

// Server represents the HTTP server
type Server struct {
	container *Container
	server    *http.Server
	handler   http.Handler
	version   string
}

// NewServer creates a new HTTP server
func NewServer(container *Container, version string) *Server {
	cfg := container.Config()
	locationID := cfg.Bridge.LocationID

	instanceHandler := handlers.NewInstanceHandler(container.Registry(), container.Bridge(), locationID)
	usersHandler := handlers.NewUsersHandler(container.Bridge(), container.NotificationHub(), locationID)
	connectionHandler := handlers.NewConnectionHandler(container.ConnectionFlows(), container.Registry(), locationID)
	notificationHandler := handlers.NewNotificationsHandler(container.NotificationHub())
	auditHandler := handlers.NewAuditHandler(container.AuditRepository(), locationID)
	healthHandler := handlers.NewHealthHandler(version, container.Database())

	// Setup router
	appRouter := router.NewRouter(
		instanceHandler,
		usersHandler,
		connectionHandler,
		notificationHandler,
		auditHandler,
		healthHandler,
		cfg.Server.EnableCORS,
	)
	handler := appRouter.SetupRoutes()

	server := &Server{
		container: container,
		handler:   handler,
		version:   version,
	}

	server.setupHTTPServer()

	return server
}

// setupHTTPServer configures the HTTP server
func (s *Server) setupHTTPServer() {
	cfg := s.container.Config()

	s.server = &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           s.handler,
		ReadHeaderTimeout: 20 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	log.Info().Msg("HTTP server configured successfully")
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	cfg := s.container.Config()

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("address", cfg.GetServerAddress()).
			Msg("Starting HTTP server")

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for context cancellation (shutdown signal)
	<-ctx.Done()

	log.Info().Msg("Shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info().Msg("Server stopped gracefully")
	return nil
}
