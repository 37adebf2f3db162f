// Package location resolves free-form queries (building codes, the caller's own position,
// place names) to a coordinate and, for buildings, the building outline.
package location

import (
	"errors"

	"github.com/digitaladdress/locator/pkg/geo"
)

// Resolution errors.
var (
	ErrEmptyQuery          = errors.New("query is empty")
	ErrPositionUnavailable = errors.New("current position unavailable")
	ErrNotFound            = errors.New("location not found")
	ErrServiceUnavailable  = errors.New("location service unavailable")
)

// LabelMyLocation is the label of a location resolved from the caller's position.
const LabelMyLocation = "My Location"

// Source records which tier produced a resolution.
type Source string

const (
	SourcePosition Source = "position"
	SourceBuilding Source = "building"
	SourceGeocoder Source = "geocoder"
)

// ResolvedLocation is a query resolved to a point. BuildingOutline is set only for
// building codes and is never empty when set.
type ResolvedLocation struct {
	Coordinate      geo.Coordinate
	Label           string
	BuildingCode    string
	BuildingOutline []geo.Coordinate
	Source          Source
}

// HasOutline reports whether the location carries a building outline.
func (l *ResolvedLocation) HasOutline() bool {
	return len(l.BuildingOutline) > 0
}

// Candidate is one geocoder match.
type Candidate struct {
	Coordinate geo.Coordinate
	Label      string
}

// Error describes a failed resolution.
type Error struct {
	Query   string // Query as given by the caller
	Code    string // Machine-readable failure code
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}
