package routing

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Providers are the route engines in order of preference. A provider is skipped for
	// profiles it does not support.
	Providers []Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache routes (default: 2 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.000001 ~ 0.1m,
	// the precision of the coordinates sent upstream). Requests whose endpoints fall in the
	// same cells share cached routes, so a coarse grid hands out geometry that starts at a
	// neighbouring point.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale routes when every provider fails (default: 15 minutes).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often to clean up expired entries (default: 5 minutes).
	CleanupInterval time.Duration

	// FetchTimeout bounds a shared upstream fetch, which outlives the caller that
	// started it (default: 30 seconds).
	FetchTimeout time.Duration
}

// Service is a Provider that fails over between route engines and caches their answers.
// Only transient failures (unavailable or rate limited) move on to the next engine; an
// engine saying there is no route is final.
type Service struct {
	providers       []Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration
	fetchTimeout    time.Duration

	group singleflight.Group

	mu          sync.RWMutex
	cache       map[string]*cachedRoute
	lastCleanup time.Time
}

type cachedRoute struct {
	response  *RouteResponse
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 2 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.000001
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	fetchTimeout := cfg.FetchTimeout
	if fetchTimeout == 0 {
		fetchTimeout = 30 * time.Second
	}

	return &Service{
		providers:       cfg.Providers,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		fetchTimeout:    fetchTimeout,
		cache:           make(map[string]*cachedRoute),
	}
}

// Name joins the provider names in preference order.
func (s *Service) Name() string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return strings.Join(names, "+")
}

// SupportedProfiles returns the union of the providers' profiles.
func (s *Service) SupportedProfiles() []Profile {
	var profiles []Profile
	seen := make(map[Profile]bool)
	for _, p := range s.providers {
		for _, profile := range p.SupportedProfiles() {
			if !seen[profile] {
				seen[profile] = true
				profiles = append(profiles, profile)
			}
		}
	}
	return profiles
}

// Route returns cached routes when fresh, otherwise asks the providers in order.
// Concurrent identical requests share one upstream call. A caller whose context ends
// stops waiting for it; the call itself keeps running for the other callers.
func (s *Service) Route(ctx context.Context, req RouteRequest) (*RouteResponse, error) {
	if err := req.Origin.Validate(); err != nil {
		return nil, &Error{
			Provider: s.Name(),
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}
	if err := req.Destination.Validate(); err != nil {
		return nil, &Error{
			Provider: s.Name(),
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      ErrInvalidCoordinates,
		}
	}

	cacheKey := s.cacheKey(req)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit for route")
		return cached.response, nil
	}
	s.mu.RUnlock()

	ch := s.group.DoChan(cacheKey, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()
		return s.fetchRoute(fetchCtx, req, cacheKey)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*RouteResponse), nil
	}
}

// fetchRoute walks the providers and updates the cache.
func (s *Service) fetchRoute(ctx context.Context, req RouteRequest, cacheKey string) (*RouteResponse, error) {
	var lastErr error
	tried := 0

	for _, p := range s.providers {
		if !Supports(p, req.Profile) {
			continue
		}
		tried++

		resp, err := p.Route(ctx, req)
		if err == nil {
			s.store(cacheKey, resp)
			return resp, nil
		}

		lastErr = err
		if !isTransient(err) || ctx.Err() != nil {
			return nil, err
		}

		s.logger.Warn().Err(err).
			Str("provider", p.Name()).
			Str("profile", string(req.Profile)).
			Msg("route provider failed, trying next")
	}

	if tried == 0 {
		return nil, &Error{
			Provider: s.Name(),
			Code:     "UNSUPPORTED_PROFILE",
			Message:  fmt.Sprintf("profile %q is not supported", req.Profile),
			Err:      ErrUnsupportedProfile,
		}
	}

	// Stale-if-error
	s.mu.RLock()
	cached, ok := s.cache[cacheKey]
	s.mu.RUnlock()
	if ok && time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
		s.logger.Warn().
			Time("fetched_at", cached.fetchedAt).
			Str("cache_key", cacheKey).
			Msg("serving stale route due to provider errors")
		return cached.response, nil
	}

	return nil, lastErr
}

func (s *Service) store(cacheKey string, resp *RouteResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.cache[cacheKey] = &cachedRoute{
		response:  resp,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}
	s.cleanupIfNeeded(now)
}

// isTransient reports whether another provider may succeed where this one failed.
func isTransient(err error) bool {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.IsRetryable()
	}
	return errors.Is(err, ErrProviderUnavailable) || errors.Is(err, ErrRateLimitExceeded)
}

// cacheKey snaps both endpoints to the cache grid.
// Format: {profile}:{originLat},{originLon}:{destLat},{destLon}.
func (s *Service) cacheKey(req RouteRequest) string {
	q := func(v float64) float64 {
		return math.Round(v/s.cacheGridSize) * s.cacheGridSize
	}
	return fmt.Sprintf("%s:%.6f,%.6f:%.6f,%.6f",
		req.Profile,
		q(req.Origin.Lat), q(req.Origin.Lon),
		q(req.Destination.Lat), q(req.Destination.Lon),
	)
}

// cleanupIfNeeded removes entries past the stale window. Caller holds s.mu.
func (s *Service) cleanupIfNeeded(now time.Time) {
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired route cache entries")
	}
}

// InvalidateCache clears all cached routes.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedRoute)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	stale := 0

	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		} else if now.Before(c.fetchedAt.Add(s.staleIfErrorTTL)) {
			stale++
		}
	}

	return CacheStats{
		TotalEntries: len(s.cache),
		FreshEntries: fresh,
		StaleEntries: stale,
		Provider:     s.Name(),
	}
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Provider     string
}
