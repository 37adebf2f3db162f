package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/internal/api/response"
	"github.com/digitaladdress/locator/internal/building"
	"github.com/digitaladdress/locator/internal/provider/resilience"
	"github.com/digitaladdress/locator/internal/routing"
)

const readyTimeout = 2 * time.Second

// Pinger is a dependency that can report its availability, e.g. *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderHealthSource reports gateway health.
type ProviderHealthSource interface {
	GetAllHealth() []*resilience.ProviderHealth
}

// CacheReporter reports building outline cache statistics.
type CacheReporter interface {
	CacheStats() building.CacheStats
}

// RouteCacheReporter reports route cache statistics.
type RouteCacheReporter interface {
	CacheStats() routing.CacheStats
}

// OpsConfig holds the dependencies of the operational endpoints. All are optional.
type OpsConfig struct {
	Version    string
	BuildTime  string
	Subsystems map[string]Pinger
	Providers  ProviderHealthSource
	Cache      CacheReporter
	RouteCache RouteCacheReporter
}

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version    string
	buildTime  string
	subsystems map[string]Pinger
	providers  ProviderHealthSource
	cache      CacheReporter
	routeCache RouteCacheReporter
}

// NewOpsHandler creates a new OpsHandler.
func NewOpsHandler(cfg OpsConfig) *OpsHandler {
	return &OpsHandler{
		version:    cfg.Version,
		buildTime:  cfg.BuildTime,
		subsystems: cfg.Subsystems,
		providers:  cfg.Providers,
		cache:      cfg.Cache,
		routeCache: cfg.RouteCache,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - fails while any subsystem is unreachable.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	subsystems := h.checkSubsystems(r.Context())

	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
	}
	status := http.StatusOK
	for _, s := range subsystems {
		if s.Status != models.HealthStatusOK {
			health.Status = models.HealthStatusFail
			status = http.StatusServiceUnavailable
		}
	}
	if len(subsystems) > 0 {
		health.Details = map[string]interface{}{"subsystems": subsystems}
	}

	response.JSON(w, r, status, health)
}

// SystemStatus handles GET /v1/ops/status - subsystem, gateway and cache status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:     models.HealthStatusOK,
		Time:       models.Timestamp(time.Now()),
		Subsystems: h.checkSubsystems(r.Context()),
		Providers:  []models.ProviderStatus{},
	}

	for _, s := range status.Subsystems {
		if s.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusFail
		}
	}

	if h.providers != nil {
		for _, ph := range h.providers.GetAllHealth() {
			ps := providerStatus(ph)
			if ps.Status != models.HealthStatusOK && status.Status == models.HealthStatusOK {
				status.Status = models.HealthStatusDegraded
			}
			status.Providers = append(status.Providers, ps)
		}
	}

	if h.cache != nil {
		stats := h.cache.CacheStats()
		status.Cache = &models.CacheStatus{
			Entries: stats.TotalEntries,
			Fresh:   stats.FreshEntries,
			Stale:   stats.StaleEntries,
		}
	}

	if h.routeCache != nil {
		stats := h.routeCache.CacheStats()
		status.RouteCache = &models.CacheStatus{
			Entries: stats.TotalEntries,
			Fresh:   stats.FreshEntries,
			Stale:   stats.StaleEntries,
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) checkSubsystems(ctx context.Context) []models.SubsystemStatus {
	if len(h.subsystems) == 0 {
		return []models.SubsystemStatus{}
	}

	names := make([]string, 0, len(h.subsystems))
	for name := range h.subsystems {
		names = append(names, name)
	}
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	out := make([]models.SubsystemStatus, 0, len(names))
	for _, name := range names {
		s := models.SubsystemStatus{Name: name, Status: models.HealthStatusOK}
		if err := h.subsystems[name].Ping(ctx); err != nil {
			detail := err.Error()
			s.Status = models.HealthStatusFail
			s.Detail = &detail
		}
		out = append(out, s)
	}
	return out
}

func providerStatus(ph *resilience.ProviderHealth) models.ProviderStatus {
	ps := models.ProviderStatus{
		Provider:     ph.Name,
		CircuitState: ph.CircuitState.String(),
		Requests:     ph.Counts.Requests,
		Failures:     ph.Counts.TotalFailures,
	}

	switch ph.Status() {
	case resilience.StatusHealthy:
		ps.Status = models.HealthStatusOK
	case resilience.StatusDegraded:
		ps.Status = models.HealthStatusDegraded
	default:
		ps.Status = models.HealthStatusFail
	}

	if ph.LastSuccessAt != nil {
		ts := models.Timestamp(*ph.LastSuccessAt)
		ps.LastSuccessAt = &ts
	}
	if ph.LastFailureAt != nil {
		ts := models.Timestamp(*ph.LastFailureAt)
		ps.LastFailureAt = &ts
	}
	if ph.LastError != "" {
		msg := ph.LastError
		ps.Message = &msg
	}
	return ps
}
