package models

import (
	"github.com/digitaladdress/locator/internal/directions"
	"github.com/digitaladdress/locator/internal/planner"
)

// RoutePlanRequest is the body of POST /v1/routes:plan.
type RoutePlanRequest struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	// TravelMode is "walking" or "driving" (default: walking).
	TravelMode string `json:"travelMode,omitempty"`
	// Position is the caller's device fix, used when an endpoint is "my location".
	Position *Point `json:"position,omitempty"`
}

// Validate checks the position only. Missing endpoints are reported by the planner.
func (r *RoutePlanRequest) Validate() []FieldError {
	if r.Position != nil {
		return ValidatePoint("position.", *r.Position)
	}
	return nil
}

// Instruction is one turn-by-turn direction.
type Instruction struct {
	Text            string  `json:"text"`
	Icon            string  `json:"icon"`
	Glyph           string  `json:"glyph"`
	DistanceDisplay string  `json:"distanceDisplay"`
	DistanceMeters  float64 `json:"distanceMeters"`
}

// RoutePlanResponse is a planned route.
type RoutePlanResponse struct {
	Origin          ResolvedLocation `json:"origin"`
	Destination     ResolvedLocation `json:"destination"`
	TravelMode      string           `json:"travelMode"`
	Provider        string           `json:"provider,omitempty"`
	DistanceMeters  float64          `json:"distanceMeters"`
	DurationSeconds float64          `json:"durationSeconds"`
	Summary         planner.Summary  `json:"summary"`
	Polyline        string           `json:"polyline,omitempty"`
	Geometry        []Point          `json:"geometry"`
	Instructions    []Instruction    `json:"instructions"`
}

// RoutePlanResponseFrom converts a planner result.
func RoutePlanResponseFrom(p *planner.RoutePlan) RoutePlanResponse {
	instructions := make([]Instruction, len(p.Instructions))
	for i, in := range p.Instructions {
		instructions[i] = instructionFrom(in)
	}

	geometry := PointsFrom(p.Geometry)
	if geometry == nil {
		geometry = []Point{}
	}

	return RoutePlanResponse{
		Origin:          ResolvedLocationFrom(p.Origin),
		Destination:     ResolvedLocationFrom(p.Destination),
		TravelMode:      string(p.TravelMode),
		Provider:        p.Provider,
		DistanceMeters:  p.TotalDistanceMeters,
		DurationSeconds: p.TotalDurationSeconds,
		Summary:         p.Summary,
		Polyline:        p.EncodedGeometry,
		Geometry:        geometry,
		Instructions:    instructions,
	}
}

func instructionFrom(in directions.Instruction) Instruction {
	return Instruction{
		Text:            in.Text,
		Icon:            string(in.Icon),
		Glyph:           in.Icon.Glyph(),
		DistanceDisplay: in.DistanceDisplay,
		DistanceMeters:  in.DistanceMeters,
	}
}
