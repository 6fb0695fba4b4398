package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/coinledger/internal/adapter/http/handler"
	"github.com/iho/coinledger/internal/adapter/http/middleware"
	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/infrastructure/auth"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	CommandHandler *handler.CommandHandler
	AccountHandler *handler.AccountHandler
	EntryHandler   *handler.EntryHandler
	CatalogHandler *handler.CatalogHandler
	LedgerHandler  *handler.LedgerHandler
	HealthHandler  *handler.HealthHandler

	// JWTManager verifies bearer tokens when AuthEnabled is set. Without it the
	// X-Privileged header decides who may run admin commands.
	JWTManager  *auth.JWTManager
	AuthEnabled bool

	RateLimiter *middleware.RateLimiter
	Logger      zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics)

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.AuthEnabled {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		} else {
			r.Use(middleware.DevPrivilege)
		}

		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		r.Post("/commands", cfg.CommandHandler.Handle)

		r.Get("/items", cfg.CatalogHandler.List)

		r.Route("/accounts/{id}", func(r chi.Router) {
			r.Get("/balance", cfg.AccountHandler.Balance)
			r.Get("/inventory", cfg.AccountHandler.Inventory)
			r.Get("/entries", cfg.EntryHandler.ListByAccount)
		})

		r.Route("/ledger", func(r chi.Router) {
			if cfg.AuthEnabled {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
			}
			r.Get("/consistency", cfg.LedgerHandler.CheckConsistency)
			r.Get("/reconciliation", cfg.LedgerHandler.Reconcile)
		})
	})

	return r
}
