// Package api provides the HTTP API of the campus locator.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/api/handler"
	"github.com/digitaladdress/locator/internal/api/middleware"
	"github.com/digitaladdress/locator/internal/auth"
)

// RouterConfig holds configuration for the router. Nil dependencies disable the
// endpoints that need them.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// RequireTLS rejects plain HTTP requests outside local development.
	RequireTLS bool

	Tokens    middleware.TokenValidator
	Resolver  handler.LocationResolver
	Planner   handler.RoutePlanner
	Buildings handler.BuildingDirectory
	Publisher handler.JobPublisher

	Subsystems map[string]handler.Pinger
	Providers  handler.ProviderHealthSource
	Cache      handler.CacheReporter
	RouteCache handler.RouteCacheReporter
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "locator-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:    cfg.Version,
		BuildTime:  cfg.BuildTime,
		Subsystems: cfg.Subsystems,
		Providers:  cfg.Providers,
		Cache:      cfg.Cache,
		RouteCache: cfg.RouteCache,
	})
	adminHandler := handler.NewAdminHandler(cfg.Publisher, cfg.Logger)

	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit) // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)   // 100 req/min

	r.Route("/v1", func(r chi.Router) {
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			if cfg.Tokens != nil {
				r.With(middleware.OperatorAuth(cfg.Tokens, auth.ScopeOps)).Get("/status", opsHandler.SystemStatus)
			}
		})

		if cfg.Resolver != nil {
			h := handler.NewLocationHandler(cfg.Resolver)
			r.With(expensiveRateLimit, middleware.RequireJSON).Post("/locations:resolve", h.Resolve)
		}

		if cfg.Planner != nil {
			h := handler.NewRouteHandler(cfg.Planner)
			r.With(expensiveRateLimit, middleware.RequireJSON).Post("/routes:plan", h.PlanRoute)
		}

		if cfg.Buildings != nil {
			h := handler.NewBuildingHandler(cfg.Buildings)
			r.With(expensiveRateLimit, middleware.RequireJSON).Post("/buildings:identify", h.Identify)
			r.Route("/buildings", func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/nearby", h.Nearby)
				r.Get("/{code}", h.GetBuilding)
			})
		}

		// Admin endpoints (operator token) - per-operator rate limiting
		if cfg.Tokens != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.OperatorAuth(cfg.Tokens, auth.ScopeAdmin))
				r.Use(middleware.RateLimitByOperator(middleware.AdminRateLimit))
				r.With(middleware.RequireJSON).Post("/areas:register", adminHandler.RegisterArea)
			})
		}
	})

	return r
}
