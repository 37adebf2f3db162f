// Package app wires the locator components from configuration. The API server, the
// worker and dalctl share it so every entrypoint talks to the same gateways.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/building"
	"github.com/digitaladdress/locator/internal/building/overpass"
	"github.com/digitaladdress/locator/internal/config"
	"github.com/digitaladdress/locator/internal/database"
	"github.com/digitaladdress/locator/internal/location"
	"github.com/digitaladdress/locator/internal/location/nominatim"
	"github.com/digitaladdress/locator/internal/planner"
	"github.com/digitaladdress/locator/internal/provider/resilience"
	"github.com/digitaladdress/locator/internal/routing"
	"github.com/digitaladdress/locator/internal/routing/openrouteservice"
	"github.com/digitaladdress/locator/internal/routing/osrm"
	"github.com/digitaladdress/locator/internal/telemetry"
)

// attemptsPerEngine is one try plus the resilience client's default retries.
const attemptsPerEngine = 3

// Components are the wired services.
type Components struct {
	Registry  *resilience.Registry
	Metrics   *telemetry.GatewayMetrics
	Pool      *pgxpool.Pool // nil with the in-memory registry
	Buildings *building.Service
	Resolver  *location.Resolver
	Routes    *routing.Service
	Planner   *planner.Planner
}

// Build connects to the building registry and creates the gateway clients and services.
// With no database host configured the registry is kept in memory.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Components, error) {
	c := &Components{Registry: resilience.NewRegistry()}

	metrics, err := telemetry.NewGatewayMetrics()
	if err != nil {
		return nil, fmt.Errorf("create gateway metrics: %w", err)
	}
	c.Metrics = metrics

	repo, err := c.repository(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	mapData := overpass.NewClient(overpass.ClientConfig{
		BaseURL:  cfg.Overpass.BaseURL,
		Timeout:  cfg.Overpass.Timeout,
		Registry: c.Registry,
		Logger:   log,
	})

	c.Buildings = building.NewService(building.ServiceConfig{
		Repository:      repo,
		MapData:         mapData,
		Logger:          log,
		Metrics:         metrics,
		CodePrefix:      cfg.Buildings.CodePrefix,
		SearchRadius:    cfg.Buildings.SearchRadius,
		MaxSnapDistance: cfg.Buildings.MaxSnapDistance,
		GeometryTTL:     cfg.Buildings.GeometryTTL,
	})

	geocoder := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:      cfg.Nominatim.BaseURL,
		Timeout:      cfg.Nominatim.Timeout,
		CountryCodes: cfg.Nominatim.CountryCodes,
		Email:        cfg.Nominatim.Email,
		Registry:     c.Registry,
		Logger:       log,
	})

	c.Resolver = location.NewResolver(location.ResolverConfig{
		Positioner:   location.ContextPositioner{},
		Buildings:    c.Buildings,
		Geocoder:     geocoder,
		LocalityBias: cfg.Resolver.LocalityBias,
		CodePrefixes: cfg.Resolver.CodePrefixes,
		Logger:       log,
	})

	fetchTimeout := cfg.OSRM.Timeout * attemptsPerEngine
	providers := []routing.Provider{osrm.NewClient(osrm.ClientConfig{
		BaseURL:  cfg.OSRM.BaseURL,
		Timeout:  cfg.OSRM.Timeout,
		Registry: c.Registry,
		Logger:   log,
	})}
	if cfg.ORS.APIKey != "" {
		providers = append(providers, openrouteservice.NewClient(openrouteservice.ClientConfig{
			APIKey:   cfg.ORS.APIKey,
			BaseURL:  cfg.ORS.BaseURL,
			Timeout:  cfg.ORS.Timeout,
			Registry: c.Registry,
			Logger:   log,
		}))
		fetchTimeout += cfg.ORS.Timeout * attemptsPerEngine
	}
	c.Routes = routing.NewService(routing.ServiceConfig{
		Providers:    providers,
		Logger:       log,
		CacheTTL:     cfg.OSRM.CacheTTL,
		FetchTimeout: fetchTimeout,
	})

	c.Planner = planner.New(planner.Config{
		Resolver: c.Resolver,
		Router:   c.Routes,
		Metrics:  metrics,
		Logger:   log,
	})

	return c, nil
}

func (c *Components) repository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (building.Repository, error) {
	dbConfig := cfg.DatabaseConfig()
	if !dbConfig.Enabled() {
		log.Warn().Msg("no database configured - building codes are kept in memory")
		return building.NewInMemoryRepository(), nil
	}

	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	repo := building.NewPostgresRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	c.Pool = pool
	return repo, nil
}

// Close releases the database pool.
func (c *Components) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}
