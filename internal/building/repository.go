package building

import (
	"context"

	"github.com/paulmach/osm"
)

// Repository defines the interface for code registrations.
type Repository interface {
	// GetByCode retrieves a registration by its normalized code.
	GetByCode(ctx context.Context, code string) (*Registration, error)

	// GetByWayID retrieves the registration for an OSM way.
	GetByWayID(ctx context.Context, id osm.WayID) (*Registration, error)

	// Save stores a registration unless the code or way is already registered, and
	// returns the stored record either way.
	Save(ctx context.Context, reg *Registration) (*Registration, error)

	// List returns registrations ordered by creation time, newest first.
	List(ctx context.Context, limit int) ([]*Registration, error)
}
