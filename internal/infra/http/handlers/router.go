package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/usecase"
)

type RouterConfig struct {
	Lifecycle      *usecase.LifecycleController
	Registry       *usecase.ListRegistry
	Visibility     *usecase.VisibilityFilter
	Health         *HealthHandler
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter mounts every endpoint. /health and /metrics are public; the
// rest needs a caller identity.
func NewRouter(cfg RouterConfig) http.Handler {
	leads := NewLeadHandler(cfg.Lifecycle)
	customers := NewCustomerHandler(cfg.Lifecycle)
	depositors := NewDepositorHandler(cfg.Lifecycle)
	lists := NewListHandler(cfg.Registry, cfg.Visibility)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.Metrics)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", middleware.HeaderAgentID, middleware.HeaderAgentRole},
		}))
	}

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity)
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		r.Get("/lists", lists.List)
		r.Post("/lists", lists.Create)
		r.Patch("/lists/{id}", lists.Update)
		r.Delete("/lists/{id}", lists.Delete)
		r.Post("/lists/{id}/leads", leads.Create)

		r.Get("/leads", leads.List)
		r.Delete("/leads/{id}", leads.Delete)
		r.Post("/leads/{id}/own", leads.Own)
		r.Post("/leads/{id}/release", leads.Release)
		r.Post("/leads/{id}/take-over", leads.TakeOver)
		r.Post("/leads/{id}/transfer", leads.Transfer)
		r.Post("/leads/{id}/notes", leads.Notes)

		r.Get("/customers", customers.List)
		r.Post("/customers/{id}/notes", customers.Notes)
		r.Post("/customers/{id}/release", customers.Release)
		r.Post("/customers/{id}/move-to-depositors", customers.MoveToDepositors)

		r.Get("/depositors", depositors.List)
		r.Post("/depositors/{id}/notes", depositors.Notes)
		r.Post("/depositors/{id}/release-to-customers", depositors.ReleaseToCustomers)
	})

	return r
}
