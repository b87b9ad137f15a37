package router

import (
	"skinvault-api/internal/handler"
	"skinvault-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	PriceHandler     *handler.PriceHandler
	InventoryHandler *handler.InventoryHandler
	CaseHandler      *handler.CaseHandler
	AdminHandler     *handler.AdminHandler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Unified monitoring endpoint
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		if cfg.PriceHandler != nil {
			r.Get("/price/{market_hash_name}", cfg.PriceHandler.GetPrice)
		}

		if cfg.InventoryHandler != nil {
			r.Get("/inventory/{steam_id}", cfg.InventoryHandler.GetInventoryValue)
		}

		if cfg.CaseHandler != nil {
			r.Route("/cases", func(r chi.Router) {
				r.Get("/", cfg.CaseHandler.ListCases)
				r.Get("/{case_id}", cfg.CaseHandler.EvaluateCase)
			})
		}

		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Get("/stats", cfg.AdminHandler.GetStats)
				r.Get("/scheduler", cfg.AdminHandler.GetScheduler)
				r.Post("/refresh", cfg.AdminHandler.TriggerRefresh)
			})
		}
	})

	return r
}
