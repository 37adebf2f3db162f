// Package main provides the entrypoint for the locator API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/api"
	"github.com/digitaladdress/locator/internal/api/handler"
	"github.com/digitaladdress/locator/internal/api/middleware"
	"github.com/digitaladdress/locator/internal/app"
	"github.com/digitaladdress/locator/internal/auth"
	"github.com/digitaladdress/locator/internal/config"
	"github.com/digitaladdress/locator/internal/telemetry"
	"github.com/digitaladdress/locator/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "locator-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting locator API")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Server.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SampleRatio:    cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if cfg.Telemetry.Enabled {
		log.Info().
			Str("otlp_endpoint", cfg.Telemetry.OTLPEndpoint).
			Msg("OpenTelemetry initialized")
	}

	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	components, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize services")
	}
	defer components.Close()

	if cfg.Auth.SigningKey == "" {
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	tokens := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.SigningKey(),
		Issuer:     cfg.Auth.Issuer,
		Audience:   cfg.Auth.Audience,
		TokenTTL:   cfg.Auth.TokenTTL,
	})

	// Job publisher (optional; admin job endpoints answer 503 without it)
	var publisher handler.JobPublisher
	if cfg.PubSub.ProjectID != "" {
		client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub client")
		}
		defer client.Close()

		jobs := worker.NewPublisher(client, cfg.PubSub.Topic)
		defer jobs.Stop()
		publisher = jobs

		log.Info().Str("topic", cfg.PubSub.Topic).Msg("job publisher initialized")
	} else {
		log.Warn().Msg("PUBSUB_PROJECT_ID not set - admin job endpoints are disabled")
	}

	subsystems := map[string]handler.Pinger{}
	if components.Pool != nil {
		subsystems["postgres"] = components.Pool
	}

	router := api.NewRouter(api.RouterConfig{
		Version:     Version,
		BuildTime:   BuildTime,
		Logger:      log,
		ServiceName: serviceName,
		Metrics:     metrics,
		RequireTLS:  cfg.Server.RequireTLS,
		Tokens:      tokens,
		Resolver:    components.Resolver,
		Planner:     components.Planner,
		Buildings:   components.Buildings,
		Publisher:   publisher,
		Subsystems:  subsystems,
		Providers:   components.Registry,
		Cache:       components.Buildings,
		RouteCache:  components.Routes,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server stopped")
}
