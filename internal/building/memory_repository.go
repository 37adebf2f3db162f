package building

import (
	"context"
	"sort"
	"sync"

	"github.com/paulmach/osm"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and the CLI. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu     sync.RWMutex
	byCode map[string]*Registration
	byWay  map[osm.WayID]string // way ID -> code
}

// NewInMemoryRepository creates a new in-memory registration repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		byCode: make(map[string]*Registration),
		byWay:  make(map[osm.WayID]string),
	}
}

// GetByCode retrieves a registration by code.
func (r *InMemoryRepository) GetByCode(_ context.Context, code string) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.byCode[code]
	if !ok {
		return nil, ErrBuildingNotFound
	}
	return copyRegistration(reg), nil
}

// GetByWayID retrieves the registration for a way.
func (r *InMemoryRepository) GetByWayID(_ context.Context, id osm.WayID) (*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.byWay[id]
	if !ok {
		return nil, ErrBuildingNotFound
	}
	return copyRegistration(r.byCode[code]), nil
}

// Save stores a registration unless the code or way already exists.
func (r *InMemoryRepository) Save(_ context.Context, reg *Registration) (*Registration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byCode[reg.Code]; ok {
		return copyRegistration(existing), nil
	}
	if code, ok := r.byWay[reg.WayID]; ok {
		return copyRegistration(r.byCode[code]), nil
	}

	r.byCode[reg.Code] = copyRegistration(reg)
	r.byWay[reg.WayID] = reg.Code
	return copyRegistration(reg), nil
}

// List returns registrations newest first.
func (r *InMemoryRepository) List(_ context.Context, limit int) ([]*Registration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*Registration, 0, len(r.byCode))
	for _, reg := range r.byCode {
		items = append(items, copyRegistration(reg))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].Code < items[j].Code
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if limit <= 0 {
		limit = 50
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func copyRegistration(reg *Registration) *Registration {
	c := *reg
	return &c
}
