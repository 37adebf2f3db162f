package models

import (
	"github.com/digitaladdress/locator/internal/building"
)

// IdentifyRequest is the body of POST /v1/buildings:identify.
type IdentifyRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Validate validates the request.
func (r *IdentifyRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Lat == nil {
		errs = append(errs, FieldError{Field: "lat", Message: "lat is required", Code: "REQUIRED"})
	}
	if r.Lon == nil {
		errs = append(errs, FieldError{Field: "lon", Message: "lon is required", Code: "REQUIRED"})
	}
	if len(errs) > 0 {
		return errs
	}
	return ValidatePoint("", Point{Lat: *r.Lat, Lon: *r.Lon})
}

// Building is a registered building in a response.
type Building struct {
	Code     string  `json:"code"`
	OSMWayID int64   `json:"osmWayId"`
	Name     string  `json:"name,omitempty"`
	Centroid Point   `json:"centroid"`
	Outline  []Point `json:"outline"`
}

// BuildingFrom converts a directory record.
func BuildingFrom(b *building.Building) Building {
	return Building{
		Code:     b.Code,
		OSMWayID: int64(b.WayID),
		Name:     b.Name,
		Centroid: PointFrom(b.Centroid),
		Outline:  PointsFrom(b.Outline),
	}
}

// NearbyBuilding is one building around a point.
type NearbyBuilding struct {
	OSMWayID       int64   `json:"osmWayId"`
	Code           string  `json:"code,omitempty"`
	Name           string  `json:"name,omitempty"`
	Centroid       Point   `json:"centroid"`
	DistanceMeters float64 `json:"distanceMeters"`
}

// NearbyResponse is the response of GET /v1/buildings/nearby.
type NearbyResponse struct {
	Center    Point            `json:"center"`
	Radius    float64          `json:"radius"`
	Buildings []NearbyBuilding `json:"buildings"`
}

// NearbyResponseFrom converts a nearby search result.
func NearbyResponseFrom(center Point, radius float64, found []building.NearbyBuilding) NearbyResponse {
	out := make([]NearbyBuilding, len(found))
	for i, b := range found {
		out[i] = NearbyBuilding{
			OSMWayID:       int64(b.WayID),
			Code:           b.Code,
			Name:           b.Name,
			Centroid:       PointFrom(b.Centroid),
			DistanceMeters: b.DistanceMeters,
		}
	}
	return NearbyResponse{Center: center, Radius: radius, Buildings: out}
}
