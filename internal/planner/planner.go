package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/digitaladdress/locator/internal/directions"
	"github.com/digitaladdress/locator/internal/location"
	"github.com/digitaladdress/locator/internal/routing"
	"github.com/digitaladdress/locator/internal/telemetry"
)

const tracerName = "github.com/digitaladdress/locator/planner"

// Resolver resolves one endpoint query.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*location.ResolvedLocation, error)
}

// Config holds configuration for the planner.
type Config struct {
	// Resolver resolves origin and destination queries.
	Resolver Resolver

	// Router computes routes between resolved points.
	Router routing.Provider

	// Metrics records resolver and router call durations (optional).
	Metrics *telemetry.GatewayMetrics

	// Logger for planner operations.
	Logger zerolog.Logger
}

// Planner resolves two endpoints, requests a route between them and synthesizes
// directions. It keeps no state between calls.
type Planner struct {
	resolver Resolver
	router   routing.Provider
	metrics  *telemetry.GatewayMetrics
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// New creates a new planner.
func New(cfg Config) *Planner {
	return &Planner{
		resolver: cfg.Resolver,
		router:   cfg.Router,
		metrics:  cfg.Metrics,
		tracer:   telemetry.Tracer(tracerName),
		logger:   cfg.Logger,
	}
}

// PlanRoute plans a route from origin to destination. Both queries are resolved
// concurrently; if both fail the origin failure is returned. The travel mode is mapped
// only after both endpoints resolved.
func (p *Planner) PlanRoute(ctx context.Context, origin, destination string, mode TravelMode) (*RoutePlan, error) {
	if strings.TrimSpace(origin) == "" || strings.TrimSpace(destination) == "" {
		return nil, &Error{
			Code:    "MISSING_ENDPOINT",
			Message: "both origin and destination must be provided",
			Err:     ErrMissingEndpoint,
		}
	}

	ctx, span := p.tracer.Start(ctx, "planner.PlanRoute", trace.WithAttributes(
		attribute.String("travel_mode", string(mode)),
	))
	defer span.End()

	from, to, err := p.resolveEndpoints(ctx, origin, destination)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	profile, ok := ProfileFor(mode)
	if !ok || !routing.Supports(p.router, profile) {
		span.SetStatus(codes.Error, "unsupported travel mode")
		return nil, &Error{
			Code:    "UNSUPPORTED_MODE",
			Message: fmt.Sprintf("travel mode %q is not supported", mode),
			Err:     ErrUnsupportedMode,
		}
	}

	req := routing.RouteRequest{
		Origin:      from.Coordinate,
		Destination: to.Coordinate,
		Profile:     profile,
	}

	start := time.Now()
	resp, err := p.router.Route(ctx, req)
	p.metrics.RecordRequest(p.router.Name(), "route", time.Since(start), err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, p.routeError(err)
	}

	if resp == nil || len(resp.Routes) == 0 {
		p.logger.Info().
			Str("origin", from.Label).
			Str("destination", to.Label).
			Str("mode", string(mode)).
			Msg("no route between endpoints")
		return nil, &Error{
			Code:    "NO_ROUTE_FOUND",
			Message: "no route found between origin and destination",
			Err:     routing.ErrNoRouteFound,
		}
	}

	plan := p.buildPlan(*from, *to, mode, resp)

	p.logger.Debug().
		Str("origin", from.Label).
		Str("destination", to.Label).
		Float64("distance_m", plan.TotalDistanceMeters).
		Int("instructions", len(plan.Instructions)).
		Msg("route planned")

	return plan, nil
}

func (p *Planner) resolveEndpoints(ctx context.Context, origin, destination string) (*location.ResolvedLocation, *location.ResolvedLocation, error) {
	var (
		from, to       *location.ResolvedLocation
		fromErr, toErr error
	)

	// Neither side cancels the other; both results are needed to pick the reported failure.
	var g errgroup.Group
	g.Go(func() error {
		from, fromErr = p.resolve(ctx, origin)
		return nil
	})
	g.Go(func() error {
		to, toErr = p.resolve(ctx, destination)
		return nil
	})
	_ = g.Wait()

	if fromErr != nil {
		return nil, nil, sideError(SideOrigin, fromErr)
	}
	if toErr != nil {
		return nil, nil, sideError(SideDestination, toErr)
	}
	return from, to, nil
}

func (p *Planner) resolve(ctx context.Context, query string) (*location.ResolvedLocation, error) {
	start := time.Now()
	loc, err := p.resolver.Resolve(ctx, query)
	p.metrics.RecordRequest("resolver", "resolve", time.Since(start), err)
	if err == nil && loc == nil {
		err = location.ErrNotFound
	}
	return loc, err
}

func sideError(side Side, err error) error {
	code := "RESOLUTION_FAILED"
	message := "location could not be resolved"

	var locErr *location.Error
	if errors.As(err, &locErr) {
		code = locErr.Code
		message = locErr.Message
	}

	return &Error{
		Side:    side,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func (p *Planner) routeError(err error) error {
	if errors.Is(err, routing.ErrNoRouteFound) {
		return &Error{
			Code:    "NO_ROUTE_FOUND",
			Message: "no route found between origin and destination",
			Err:     err,
		}
	}

	p.logger.Error().Err(err).Str("provider", p.router.Name()).Msg("route request failed")

	if !errors.Is(err, routing.ErrProviderUnavailable) {
		err = fmt.Errorf("%w: %w", routing.ErrProviderUnavailable, err)
	}
	return &Error{
		Code:    "ROUTE_SERVICE_UNAVAILABLE",
		Message: "route service is unavailable",
		Err:     err,
	}
}

func (p *Planner) buildPlan(from, to location.ResolvedLocation, mode TravelMode, resp *routing.RouteResponse) *RoutePlan {
	route := resp.Routes[0]

	var steps []routing.Step
	if len(route.Legs) > 0 {
		steps = route.Legs[0].Steps
	}

	return &RoutePlan{
		Origin:               from,
		Destination:          to,
		Geometry:             route.Geometry,
		EncodedGeometry:      route.EncodedGeometry,
		TotalDistanceMeters:  route.DistanceMeters,
		TotalDurationSeconds: route.DurationSeconds,
		Instructions:         directions.Synthesize(steps),
		TravelMode:           mode,
		Provider:             resp.Provider,
		Summary: Summary{
			DistanceDisplay: fmt.Sprintf("%.1f km", route.DistanceMeters/1000),
			DurationDisplay: directions.FormatDuration(route.DurationSeconds),
			ModeLabel:       mode.Label(),
		},
	}
}
