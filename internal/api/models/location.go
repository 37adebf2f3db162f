package models

import (
	"github.com/digitaladdress/locator/internal/location"
)

// ResolveRequest is the body of POST /v1/locations:resolve.
type ResolveRequest struct {
	Query string `json:"query"`
	// Position is the caller's device fix, used for "my location" queries.
	Position *Point `json:"position,omitempty"`
}

// Validate checks the position only. An empty query is reported by the resolver.
func (r *ResolveRequest) Validate() []FieldError {
	if r.Position != nil {
		return ValidatePoint("position.", *r.Position)
	}
	return nil
}

// ResolvedLocation is a resolved query in a response.
type ResolvedLocation struct {
	Point           Point   `json:"point"`
	Label           string  `json:"label"`
	Source          string  `json:"source"`
	BuildingCode    string  `json:"buildingCode,omitempty"`
	BuildingOutline []Point `json:"buildingOutline,omitempty"`
}

// ResolvedLocationFrom converts a resolver result.
func ResolvedLocationFrom(l location.ResolvedLocation) ResolvedLocation {
	return ResolvedLocation{
		Point:           PointFrom(l.Coordinate),
		Label:           l.Label,
		Source:          string(l.Source),
		BuildingCode:    l.BuildingCode,
		BuildingOutline: PointsFrom(l.BuildingOutline),
	}
}
