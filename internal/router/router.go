package router

import (
	_ "embed"
	"net/http"

	"waconsole/internal/handlers"
	"waconsole/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.json
var openAPIDoc []byte

// Router holds all the route handlers
type Router struct {
	instanceHandler     *handlers.InstanceHandler
	usersHandler        *handlers.UsersHandler
	connectionHandler   *handlers.ConnectionHandler
	notificationHandler *handlers.NotificationsHandler
	auditHandler        *handlers.AuditHandler
	healthHandler       *handlers.HealthHandler
	enableCORS          bool
}

// NewRouter creates a new router instance
func NewRouter(
	instanceHandler *handlers.InstanceHandler,
	usersHandler *handlers.UsersHandler,
	connectionHandler *handlers.ConnectionHandler,
	notificationHandler *handlers.NotificationsHandler,
	auditHandler *handlers.AuditHandler,
	healthHandler *handlers.HealthHandler,
	enableCORS bool,
) *Router {
	return &Router{
		instanceHandler:     instanceHandler,
		usersHandler:        usersHandler,
		connectionHandler:   connectionHandler,
		notificationHandler: notificationHandler,
		auditHandler:        auditHandler,
		healthHandler:       healthHandler,
		enableCORS:          enableCORS,
	}
}

// SetupRoutes configures all the HTTP routes
func (rt *Router) SetupRoutes() http.Handler {
	r := chi.NewRouter()

	// Add Chi built-in middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))

	// Add custom middleware
	r.Use(middleware.LoggingMiddleware)

	if rt.enableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Probes
	r.Get("/health", rt.healthHandler.Health)
	r.Get("/ready", rt.healthHandler.Ready)

	// Swagger UI over the embedded OpenAPI document
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(openAPIDoc)
	})
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/users", rt.usersHandler.List)
		r.Get("/notifications", rt.notificationHandler.Drain)
		r.Get("/audit", rt.auditHandler.Recent)
		rt.setupInstanceRoutes(r)
	})

	return r
}

// setupInstanceRoutes configures instance-related routes
func (rt *Router) setupInstanceRoutes(r chi.Router) {
	r.Route("/instances", func(r chi.Router) {
		r.Get("/", rt.instanceHandler.List)
		r.Post("/", rt.instanceHandler.Create)

		// Config lookup is by numeric instance id, like the bridge's
		// ver-instancia endpoint.
		r.Get("/config", rt.instanceHandler.GetConfig)

		r.Route("/{instanceName}", func(r chi.Router) {
			r.Put("/", rt.instanceHandler.Edit)
			r.Delete("/", rt.instanceHandler.Delete)
			r.Post("/turnoff", rt.instanceHandler.TurnOff)

			// QR pairing flow
			r.Route("/connection", func(r chi.Router) {
				r.Post("/", rt.connectionHandler.Open)
				r.Get("/", rt.connectionHandler.Snapshot)
				r.Delete("/", rt.connectionHandler.Close)
				r.Get("/ws", rt.connectionHandler.Stream)
			})
		})
	})
}
