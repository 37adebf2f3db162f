package location

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/building"
)

// DefaultLocalityBias scopes place-name searches to the district the service covers.
const DefaultLocalityBias = "Thrissur"

// BuildingDirectory looks up registered building codes.
type BuildingDirectory interface {
	LookupByCode(ctx context.Context, code string) (*building.Building, error)
}

// Geocoder searches place names. An empty result is not an error.
type Geocoder interface {
	Search(ctx context.Context, text, localityBias string) ([]Candidate, error)
}

// ResolverConfig holds configuration for the resolver.
type ResolverConfig struct {
	// Positioner provides the caller's position for "my location" queries.
	Positioner Positioner

	// Buildings resolves building codes.
	Buildings BuildingDirectory

	// Geocoder resolves place names.
	Geocoder Geocoder

	// LocalityBias is appended to place-name searches (default: Thrissur).
	LocalityBias string

	// CodePrefixes are the building code families (default: DAL, VAST).
	CodePrefixes []string

	// Logger for resolver operations.
	Logger zerolog.Logger
}

// Resolver turns queries into resolved locations using, in order: the caller's position,
// the building directory, then the geocoder. It keeps no state between calls.
type Resolver struct {
	positioner   Positioner
	buildings    BuildingDirectory
	geocoder     Geocoder
	localityBias string
	classifier   *Classifier
	logger       zerolog.Logger
}

// NewResolver creates a new resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	localityBias := cfg.LocalityBias
	if localityBias == "" {
		localityBias = DefaultLocalityBias
	}

	positioner := cfg.Positioner
	if positioner == nil {
		positioner = ContextPositioner{}
	}

	return &Resolver{
		positioner:   positioner,
		buildings:    cfg.Buildings,
		geocoder:     cfg.Geocoder,
		localityBias: localityBias,
		classifier:   NewClassifier(cfg.CodePrefixes),
		logger:       cfg.Logger,
	}
}

// Resolve resolves one query. Failures are *Error values wrapping one of ErrEmptyQuery,
// ErrPositionUnavailable, ErrNotFound or ErrServiceUnavailable.
func (r *Resolver) Resolve(ctx context.Context, query string) (*ResolvedLocation, error) {
	q := strings.TrimSpace(query)
	class := r.classifier.Classify(q)

	r.logger.Debug().
		Str("query", q).
		Stringer("class", class).
		Msg("resolving location")

	switch class {
	case ClassEmpty:
		return nil, &Error{
			Query:   query,
			Code:    "EMPTY_QUERY",
			Message: "location query is empty",
			Err:     ErrEmptyQuery,
		}
	case ClassCurrentLocation:
		return r.resolvePosition(ctx, query)
	case ClassBuildingCode:
		loc, err := r.resolveBuilding(ctx, q)
		if loc != nil || err != nil {
			return loc, err
		}
	}

	return r.resolvePlace(ctx, q)
}

func (r *Resolver) resolvePosition(ctx context.Context, query string) (*ResolvedLocation, error) {
	c, err := r.positioner.CurrentPosition(ctx)
	if err != nil {
		r.logger.Debug().Err(err).Msg("current position unavailable")
		return nil, &Error{
			Query:   query,
			Code:    "POSITION_UNAVAILABLE",
			Message: "current position is not available",
			Err:     ErrPositionUnavailable,
		}
	}

	return &ResolvedLocation{
		Coordinate: c,
		Label:      LabelMyLocation,
		Source:     SourcePosition,
	}, nil
}

// resolveBuilding returns (nil, nil) when the code is unknown or has no geometry so the
// caller falls through to geocoding.
func (r *Resolver) resolveBuilding(ctx context.Context, code string) (*ResolvedLocation, error) {
	if r.buildings == nil {
		return nil, nil
	}

	b, err := r.buildings.LookupByCode(ctx, building.NormalizeCode(code))
	if err != nil {
		if errors.Is(err, building.ErrBuildingNotFound) || errors.Is(err, building.ErrGeometryUnavailable) {
			r.logger.Warn().
				Err(err).
				Str("code", code).
				Msg("building code miss, falling back to geocoder")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("code", code).Msg("building directory lookup failed")
		return nil, &Error{
			Query:   code,
			Code:    "DIRECTORY_UNAVAILABLE",
			Message: "building directory is unavailable",
			Err:     fmt.Errorf("%w: %w", ErrServiceUnavailable, err),
		}
	}

	if len(b.Outline) == 0 {
		return nil, nil
	}

	return &ResolvedLocation{
		Coordinate:      b.Centroid,
		Label:           b.Code,
		BuildingCode:    b.Code,
		BuildingOutline: b.Outline,
		Source:          SourceBuilding,
	}, nil
}

func (r *Resolver) resolvePlace(ctx context.Context, query string) (*ResolvedLocation, error) {
	if r.geocoder == nil {
		return nil, &Error{
			Query:   query,
			Code:    "GEOCODER_UNAVAILABLE",
			Message: "no geocoder configured",
			Err:     ErrServiceUnavailable,
		}
	}

	candidates, err := r.geocoder.Search(ctx, query, r.localityBias)
	if err != nil {
		r.logger.Error().Err(err).Str("query", query).Msg("geocoder search failed")
		return nil, &Error{
			Query:   query,
			Code:    "GEOCODER_UNAVAILABLE",
			Message: "geocoding service is unavailable",
			Err:     fmt.Errorf("%w: %w", ErrServiceUnavailable, err),
		}
	}

	if len(candidates) == 0 {
		return nil, &Error{
			Query:   query,
			Code:    "NOT_FOUND",
			Message: `place "` + query + `" not found`,
			Err:     ErrNotFound,
		}
	}

	first := candidates[0]
	label := first.Label
	if label == "" {
		label = query
	}

	return &ResolvedLocation{
		Coordinate: first.Coordinate,
		Label:      label,
		Source:     SourceGeocoder,
	}, nil
}
