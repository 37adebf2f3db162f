package building

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/paulmach/osm"
	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/telemetry"
	"github.com/digitaladdress/locator/pkg/geo"
)

const outlineCacheName = "building_outline"

// MapData is the source of building footprints.
type MapData interface {
	// WayGeometry returns the outline of one way, or ErrGeometryUnavailable.
	WayGeometry(ctx context.Context, id osm.WayID) (*Footprint, error)
	// BuildingsAround returns building footprints within radius meters of center.
	BuildingsAround(ctx context.Context, center geo.Coordinate, radiusMeters float64) ([]Footprint, error)
}

// ServiceConfig holds configuration for the building service.
type ServiceConfig struct {
	// Repository stores code registrations.
	Repository Repository

	// MapData provides footprints.
	MapData MapData

	// Logger for service operations.
	Logger zerolog.Logger

	// Metrics records outline cache hits and misses (optional).
	Metrics *telemetry.GatewayMetrics

	// CodePrefix is the prefix of generated codes (default: DAL-THR).
	CodePrefix string

	// SearchRadius is how far around a picked point buildings are fetched (default: 200m).
	SearchRadius float64

	// MaxSnapDistance is the largest accepted distance between a picked point and the
	// nearest building centroid (default: 25m).
	MaxSnapDistance float64

	// GeometryTTL is how long fetched outlines are served from cache (default: 24 hours).
	GeometryTTL time.Duration

	// StaleIfErrorTTL allows serving stale outlines when the map source fails (default: 7 days).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often expired entries are dropped (default: 1 hour).
	CleanupInterval time.Duration
}

// Service resolves building codes to footprints and assigns codes to new buildings.
type Service struct {
	repo            Repository
	mapData         MapData
	logger          zerolog.Logger
	metrics         *telemetry.GatewayMetrics
	codePrefix      string
	searchRadius    float64
	maxSnapDistance float64
	geometryTTL     time.Duration
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration

	mu          sync.RWMutex
	cache       map[osm.WayID]*cachedFootprint
	lastCleanup time.Time
}

type cachedFootprint struct {
	footprint *Footprint
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new building service.
func NewService(cfg ServiceConfig) *Service {
	codePrefix := cfg.CodePrefix
	if codePrefix == "" {
		codePrefix = DefaultCodePrefix
	}

	searchRadius := cfg.SearchRadius
	if searchRadius == 0 {
		searchRadius = 200
	}

	maxSnap := cfg.MaxSnapDistance
	if maxSnap == 0 {
		maxSnap = 25
	}

	geometryTTL := cfg.GeometryTTL
	if geometryTTL == 0 {
		geometryTTL = 24 * time.Hour
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 7 * 24 * time.Hour
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = time.Hour
	}

	return &Service{
		repo:            cfg.Repository,
		mapData:         cfg.MapData,
		logger:          cfg.Logger,
		metrics:         cfg.Metrics,
		codePrefix:      codePrefix,
		searchRadius:    searchRadius,
		maxSnapDistance: maxSnap,
		geometryTTL:     geometryTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		cache:           make(map[osm.WayID]*cachedFootprint),
	}
}

// LookupByCode returns the registered building for code with its current outline.
func (s *Service) LookupByCode(ctx context.Context, code string) (*Building, error) {
	code = NormalizeCode(code)

	reg, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrBuildingNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: registry lookup: %v", ErrDirectoryUnavailable, err)
	}

	fp, err := s.footprint(ctx, reg.WayID)
	if err != nil {
		return nil, err
	}

	return newBuilding(reg.Code, fp)
}

// LookupByCoordinate identifies the building under point, assigning it a code on first use.
// Returns ErrNoBuildingAtPoint when the nearest building centroid is too far away.
func (s *Service) LookupByCoordinate(ctx context.Context, point geo.Coordinate) (*Building, error) {
	if err := point.Validate(); err != nil {
		return nil, err
	}

	footprints, err := s.mapData.BuildingsAround(ctx, point, s.searchRadius)
	if err != nil {
		return nil, err
	}

	var nearest *Footprint
	minDist := 0.0
	for i := range footprints {
		c, ok := geo.Centroid(footprints[i].Outline)
		if !ok {
			continue
		}
		d := geo.Distance(point, c)
		if nearest == nil || d < minDist {
			nearest = &footprints[i]
			minDist = d
		}
	}

	if nearest == nil || minDist > s.maxSnapDistance {
		s.logger.Debug().
			Float64("lat", point.Lat).
			Float64("lon", point.Lon).
			Float64("nearest_m", minDist).
			Int("candidates", len(footprints)).
			Msg("no building at point")
		return nil, ErrNoBuildingAtPoint
	}

	s.store(nearest)

	reg, err := s.register(ctx, nearest.WayID)
	if err != nil {
		return nil, err
	}

	return newBuilding(reg.Code, nearest)
}

// Nearby lists buildings around center ordered by distance, with their code when registered.
func (s *Service) Nearby(ctx context.Context, center geo.Coordinate, radiusMeters float64) ([]NearbyBuilding, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if radiusMeters <= 0 {
		radiusMeters = s.searchRadius
	}

	footprints, err := s.mapData.BuildingsAround(ctx, center, radiusMeters)
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyBuilding, 0, len(footprints))
	for i := range footprints {
		fp := &footprints[i]
		c, ok := geo.Centroid(fp.Outline)
		if !ok {
			continue
		}

		nb := NearbyBuilding{
			WayID:          fp.WayID,
			Name:           fp.Name,
			Centroid:       c,
			DistanceMeters: geo.Distance(center, c),
		}

		reg, err := s.repo.GetByWayID(ctx, fp.WayID)
		switch {
		case err == nil:
			nb.Code = reg.Code
		case !errors.Is(err, ErrBuildingNotFound):
			return nil, fmt.Errorf("%w: registry lookup: %v", ErrDirectoryUnavailable, err)
		}

		nearby = append(nearby, nb)
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceMeters < nearby[j].DistanceMeters
	})

	return nearby, nil
}

// AreaResult summarizes a RegisterArea run.
type AreaResult struct {
	Found      int
	Registered int
	Existing   int
}

// RegisterArea assigns codes to every building within radius meters of center.
func (s *Service) RegisterArea(ctx context.Context, center geo.Coordinate, radiusMeters float64) (*AreaResult, error) {
	if err := center.Validate(); err != nil {
		return nil, err
	}

	footprints, err := s.mapData.BuildingsAround(ctx, center, radiusMeters)
	if err != nil {
		return nil, err
	}

	result := &AreaResult{Found: len(footprints)}
	for i := range footprints {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		_, err := s.repo.GetByWayID(ctx, footprints[i].WayID)
		if err == nil {
			result.Existing++
			continue
		}
		if !errors.Is(err, ErrBuildingNotFound) {
			return result, fmt.Errorf("%w: registry lookup: %v", ErrDirectoryUnavailable, err)
		}

		if _, err := s.register(ctx, footprints[i].WayID); err != nil {
			return result, err
		}
		s.store(&footprints[i])
		result.Registered++
	}

	s.logger.Info().
		Float64("lat", center.Lat).
		Float64("lon", center.Lon).
		Float64("radius_m", radiusMeters).
		Int("found", result.Found).
		Int("registered", result.Registered).
		Int("existing", result.Existing).
		Msg("registered building area")

	return result, nil
}

// List returns the newest registrations.
func (s *Service) List(ctx context.Context, limit int) ([]*Registration, error) {
	return s.repo.List(ctx, limit)
}

// register returns the existing registration for a way or stores a new one.
func (s *Service) register(ctx context.Context, id osm.WayID) (*Registration, error) {
	reg, err := s.repo.GetByWayID(ctx, id)
	if err == nil {
		return reg, nil
	}
	if !errors.Is(err, ErrBuildingNotFound) {
		return nil, fmt.Errorf("%w: registry lookup: %v", ErrDirectoryUnavailable, err)
	}

	reg, err = s.repo.Save(ctx, &Registration{
		Code:      CodeForWay(s.codePrefix, id),
		WayID:     id,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: saving registration: %v", ErrDirectoryUnavailable, err)
	}

	s.logger.Info().
		Str("code", reg.Code).
		Int64("way_id", int64(id)).
		Msg("assigned building code")

	return reg, nil
}

// footprint returns a cached outline or fetches it, serving stale data if the source fails.
func (s *Service) footprint(ctx context.Context, id osm.WayID) (*Footprint, error) {
	s.mu.RLock()
	if cached, ok := s.cache[id]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.metrics.RecordCacheHit(outlineCacheName)
		s.logger.Debug().
			Int64("way_id", int64(id)).
			Msg("cache hit for building outline")
		return cached.footprint, nil
	}
	s.mu.RUnlock()
	s.metrics.RecordCacheMiss(outlineCacheName)

	fp, err := s.mapData.WayGeometry(ctx, id)
	if err != nil {
		if errors.Is(err, ErrGeometryUnavailable) {
			return nil, err
		}

		s.logger.Error().Err(err).
			Int64("way_id", int64(id)).
			Msg("failed to fetch building outline")

		s.mu.RLock()
		cached, ok := s.cache[id]
		s.mu.RUnlock()
		if ok && time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			s.logger.Warn().
				Time("fetched_at", cached.fetchedAt).
				Int64("way_id", int64(id)).
				Msg("serving stale building outline due to map source error")
			return cached.footprint, nil
		}

		return nil, err
	}

	if len(fp.Outline) == 0 {
		return nil, ErrGeometryUnavailable
	}

	s.store(fp)
	return fp, nil
}

func (s *Service) store(fp *Footprint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.cache[fp.WayID] = &cachedFootprint{
		footprint: fp,
		fetchedAt: now,
		expiresAt: now.Add(s.geometryTTL),
	}

	s.cleanupIfNeeded(now)
}

// cleanupIfNeeded drops entries past the stale window. Caller holds s.mu.
func (s *Service) cleanupIfNeeded(now time.Time) {
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now

	expired := 0
	for id, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, id)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired building outlines")
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
}

// CacheStats returns outline cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	stats := CacheStats{TotalEntries: len(s.cache)}
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			stats.FreshEntries++
		} else if now.Before(c.fetchedAt.Add(s.staleIfErrorTTL)) {
			stats.StaleEntries++
		}
	}
	return stats
}

// InvalidateCache clears all cached outlines.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[osm.WayID]*cachedFootprint)
}

func newBuilding(code string, fp *Footprint) (*Building, error) {
	centroid, ok := geo.Centroid(fp.Outline)
	if !ok {
		return nil, ErrGeometryUnavailable
	}

	outline := make([]geo.Coordinate, len(fp.Outline))
	copy(outline, fp.Outline)

	return &Building{
		Code:     code,
		WayID:    fp.WayID,
		Name:     fp.Name,
		Outline:  outline,
		Centroid: centroid,
	}, nil
}
