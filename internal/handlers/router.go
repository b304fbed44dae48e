package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/abdul-hamid-achik/clipshare/internal/config"
	"github.com/abdul-hamid-achik/clipshare/internal/middleware"
	"github.com/abdul-hamid-achik/clipshare/internal/services"
)

// verifyAttemptsPerMinute bounds secret verification per client IP.
const verifyAttemptsPerMinute = 10

// Dependencies holds all the dependencies needed for handlers.
type Dependencies struct {
	Config      *config.Config
	Redis       *redis.Client // nil disables rate limiting
	Logger      *slog.Logger
	ClipService *services.ClipService
	Checks      map[string]HealthCheck
}

// NewRouter creates and configures the HTTP router.
func NewRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Metrics())
	r.Use(middleware.Logging(deps.Logger))
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(chimiddleware.Timeout(deps.Config.Server.RequestTimeout))
	r.Use(middleware.SecurityHeaders(deps.Config.IsProduction()))

	r.NotFound(NotFoundHandler)
	r.MethodNotAllowed(MethodNotAllowedHandler)

	var apiLimiter, verifyLimiter *middleware.RateLimiter
	if deps.Redis != nil {
		apiLimiter = middleware.NewRateLimiter(
			deps.Redis,
			"api",
			deps.Config.RateLimit.Requests,
			deps.Config.RateLimit.Window,
		)
		verifyLimiter = middleware.NewRateLimiter(deps.Redis, "verify", verifyAttemptsPerMinute, time.Minute)
	}

	healthHandler := NewHealthHandler(deps.Checks)
	apiHandler := NewAPIHandler(deps.ClipService)

	// Health checks and metrics (no auth, no rate limit)
	r.Get("/health", healthHandler.Liveness)
	r.Get("/ready", healthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(apiLimiter))
		r.Use(middleware.MaxBodySize(deps.Config.Security.MaxRequestBodySize))

		r.Route("/entries", func(r chi.Router) {
			r.Post("/", apiHandler.CreateEntry)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", apiHandler.GetEntry)
				r.Put("/", apiHandler.PutEntry)
				r.Delete("/", apiHandler.DeleteEntry)

				r.Route("/secret", func(r chi.Router) {
					r.Get("/", apiHandler.GetSecret)
					r.Post("/", apiHandler.SetSecret)
					r.Delete("/", apiHandler.DeleteSecret)
					r.With(middleware.RateLimit(verifyLimiter)).Put("/verify", apiHandler.VerifySecret)
				})
			})
		})

		r.With(middleware.AdminToken(deps.Config.Security.AdminToken)).Post("/cleanup", apiHandler.Cleanup)
	})

	return r
}
