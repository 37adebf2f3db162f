package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/building"
	"github.com/digitaladdress/locator/pkg/geo"
)

// Directory is the part of the building service the worker drives.
type Directory interface {
	RegisterArea(ctx context.Context, center geo.Coordinate, radiusMeters float64) (*building.AreaResult, error)
	Nearby(ctx context.Context, center geo.Coordinate, radiusMeters float64) ([]building.NearbyBuilding, error)
}

// RegisterJob assigns building codes across areas with bounded concurrency.
type RegisterJob struct {
	config    RegisterConfig
	directory Directory
	logger    zerolog.Logger
	metrics   *JobMetrics
}

// JobMetrics tracks registration job statistics.
type JobMetrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	AreasSucceeded  int64
	AreasFailed     int64
	BuildingsFound  int64
	CodesRegistered int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
}

// RegisterJobConfig holds configuration for creating a RegisterJob.
type RegisterJobConfig struct {
	Config    RegisterConfig
	Directory Directory
	Logger    zerolog.Logger
}

// NewRegisterJob creates a new registration job.
func NewRegisterJob(cfg RegisterJobConfig) *RegisterJob {
	return &RegisterJob{
		config:    cfg.Config.withDefaults(),
		directory: cfg.Directory,
		logger:    cfg.Logger,
		metrics:   &JobMetrics{},
	}
}

// RunResult contains the result of a registration run.
type RunResult struct {
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalAreas     int
	Successful     int
	Failed         int
	BuildingsFound int
	Registered     int
	Existing       int
	Errors         []AreaError
}

// AreaError represents a failed area.
type AreaError struct {
	Area  string
	Error string
}

type areaResult struct {
	area   Area
	result *building.AreaResult
	err    error
}

// Run registers the given areas, or the configured areas when none are given.
// Higher priority areas are dispatched first.
func (j *RegisterJob) Run(ctx context.Context, areas []Area) *RunResult {
	if len(areas) == 0 {
		areas = j.config.Areas
	}
	ordered := make([]Area, len(areas))
	copy(ordered, areas)
	sort.SliceStable(ordered, func(a, b int) bool { return ordered[a].Priority < ordered[b].Priority })

	startTime := time.Now()
	result := &RunResult{
		StartTime:  startTime,
		TotalAreas: len(ordered),
	}

	j.logger.Info().
		Int("total_areas", result.TotalAreas).
		Int("concurrency", j.config.Concurrency).
		Msg("starting area registration job")

	areasChan := make(chan Area, len(ordered))
	resultsChan := make(chan areaResult, len(ordered))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.registerWorker(ctx, areasChan, resultsChan)
		}()
	}

	for _, a := range ordered {
		areasChan <- a
	}
	close(areasChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for ar := range resultsChan {
		if ar.result != nil {
			result.BuildingsFound += ar.result.Found
			result.Registered += ar.result.Registered
			result.Existing += ar.result.Existing
		}
		if ar.err != nil {
			result.Failed++
			result.Errors = append(result.Errors, AreaError{Area: ar.area.Name, Error: ar.err.Error()})
			j.logger.Warn().Err(ar.err).Str("area", ar.area.Name).Msg("area registration failed")
			continue
		}
		result.Successful++
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("buildings_found", result.BuildingsFound).
		Int("registered", result.Registered).
		Int("existing", result.Existing).
		Msg("area registration job completed")

	return result
}

func (j *RegisterJob) registerWorker(ctx context.Context, areas <-chan Area, results chan<- areaResult) {
	for area := range areas {
		if ctx.Err() != nil {
			results <- areaResult{area: area, err: ctx.Err()}
			continue
		}
		results <- j.registerArea(ctx, area)
	}
}

func (j *RegisterJob) registerArea(ctx context.Context, area Area) areaResult {
	areaCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	res, err := j.directory.RegisterArea(areaCtx, area.Center, area.Radius)
	return areaResult{area: area, result: res, err: err}
}

// Probe checks that the building directory answers for the first configured area.
func (j *RegisterJob) Probe(ctx context.Context) error {
	area := j.config.Areas[0]

	probeCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.directory.Nearby(probeCtx, area.Center, 50)
	return err
}

func (j *RegisterJob) updateMetrics(result *RunResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.AreasSucceeded += int64(result.Successful)
	j.metrics.AreasFailed += int64(result.Failed)
	j.metrics.BuildingsFound += int64(result.BuildingsFound)
	j.metrics.CodesRegistered += int64(result.Registered)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RegisterJob) GetMetrics() JobMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return JobMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		AreasSucceeded:  j.metrics.AreasSucceeded,
		AreasFailed:     j.metrics.AreasFailed,
		BuildingsFound:  j.metrics.BuildingsFound,
		CodesRegistered: j.metrics.CodesRegistered,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
	}
}
