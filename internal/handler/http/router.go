package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coregatekit/microservices/internal/service"
	"github.com/coregatekit/microservices/pkg/health"
	"github.com/coregatekit/microservices/pkg/middleware"
)

// RouterConfig bundles the dependencies the router wires together.
type RouterConfig struct {
	AuthService    *service.AuthService
	UserService    *service.UserService
	AddressService *service.AddressService
	HealthHandler  *health.Handler
	Logger         *slog.Logger
	CORS           CORSConfig
	ServiceName    string
}

// NewRouter creates a chi router with all routes registered behind the
// identity gate. Every route is guarded unless explicitly allowed.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(cfg.CORS))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))

	gate := NewGate(cfg.AuthService, cfg.Logger)
	gate.Allow(http.MethodPost, "/api/v1/auth/login")
	gate.Allow(http.MethodPost, "/api/v1/users/register")
	r.Use(gate.Middleware)

	// Health check endpoints
	r.Get("/health/live", cfg.HealthHandler.LivenessHandler())
	r.Get("/health/ready", cfg.HealthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	authHandler := NewAuthHandler(cfg.AuthService, cfg.Logger)
	userHandler := NewUserHandler(cfg.UserService, cfg.Logger)
	addressHandler := NewAddressHandler(cfg.AddressService, cfg.Logger)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", userHandler.Register)
		r.Get("/me", userHandler.GetProfile)
		r.Delete("/me/data", userHandler.ClearData)
	})

	r.Route("/api/v1/addresses", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", addressHandler.Create)
		r.Get("/", addressHandler.List)
		r.Get("/defaults", addressHandler.GetDefaults)
		r.Get("/{id}", addressHandler.Get)
		r.Patch("/{id}", addressHandler.Update)
		r.Patch("/{id}/default", addressHandler.SetDefault)
		r.Delete("/", addressHandler.Clear)
	})

	return r
}
