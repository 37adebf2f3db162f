// Package worker provides background job processing for the building directory.
package worker

import (
	"time"

	"github.com/digitaladdress/locator/pkg/geo"
)

// Area is a circle whose buildings get codes assigned by a register_area job.
type Area struct {
	// Name is the human-readable name of the area.
	Name string `json:"name,omitempty"`

	// Center of the area.
	Center geo.Coordinate `json:"center"`

	// Radius in meters.
	Radius float64 `json:"radius"`

	// Priority determines registration order (lower = higher priority).
	Priority int `json:"priority,omitempty"`
}

// RegisterConfig holds configuration for the area registration job.
type RegisterConfig struct {
	// Areas are registered when a job names none.
	// If empty, uses DefaultCampusAreas.
	Areas []Area

	// Concurrency is the number of areas registered at once.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each area.
	// Default: 60 seconds
	Timeout time.Duration
}

// DefaultRegisterConfig returns the default registration configuration.
func DefaultRegisterConfig() RegisterConfig {
	return RegisterConfig{
		Areas:       DefaultCampusAreas(),
		Concurrency: 3,
		Timeout:     60 * time.Second,
	}
}

// DefaultCampusAreas returns the campuses in and around Thrissur.
func DefaultCampusAreas() []Area {
	return []Area{
		{
			Name:     "Government Engineering College Thrissur",
			Center:   geo.Coordinate{Lat: 10.5546, Lon: 76.2247},
			Radius:   400,
			Priority: 1,
		},
		{
			Name:     "Kerala Agricultural University, Vellanikkara",
			Center:   geo.Coordinate{Lat: 10.5468, Lon: 76.2793},
			Radius:   800,
			Priority: 1,
		},
		{
			Name:     "St. Thomas College",
			Center:   geo.Coordinate{Lat: 10.5223, Lon: 76.2160},
			Radius:   300,
			Priority: 2,
		},
		{
			Name:     "Sree Kerala Varma College",
			Center:   geo.Coordinate{Lat: 10.5131, Lon: 76.2086},
			Radius:   300,
			Priority: 2,
		},
		{
			Name:     "Swaraj Round",
			Center:   geo.Coordinate{Lat: 10.5276, Lon: 76.2144},
			Radius:   500,
			Priority: 3,
		},
	}
}

// withDefaults fills zero fields from DefaultRegisterConfig.
func (c RegisterConfig) withDefaults() RegisterConfig {
	def := DefaultRegisterConfig()
	if len(c.Areas) == 0 {
		c.Areas = def.Areas
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
