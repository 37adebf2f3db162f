// Package models provides request and response models for the locator API.
package models

import (
	"time"

	"github.com/digitaladdress/locator/pkg/geo"
)

// Point is a geographic coordinate in a request or response.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Coordinate converts the point to a geo.Coordinate.
func (p Point) Coordinate() geo.Coordinate {
	return geo.Coordinate{Lat: p.Lat, Lon: p.Lon}
}

// PointFrom converts a geo.Coordinate to a Point.
func PointFrom(c geo.Coordinate) Point {
	return Point{Lat: c.Lat, Lon: c.Lon}
}

// PointsFrom converts a coordinate list. A nil list stays nil.
func PointsFrom(cs []geo.Coordinate) []Point {
	if cs == nil {
		return nil
	}
	out := make([]Point, len(cs))
	for i, c := range cs {
		out[i] = PointFrom(c)
	}
	return out
}

// ValidatePoint returns field errors for an out-of-range point under prefix.
func ValidatePoint(prefix string, p Point) []FieldError {
	var errs []FieldError
	if p.Lat < -90 || p.Lat > 90 {
		errs = append(errs, FieldError{Field: prefix + "lat", Message: "must be between -90 and 90", Code: "OUT_OF_RANGE"})
	}
	if p.Lon < -180 || p.Lon > 180 {
		errs = append(errs, FieldError{Field: prefix + "lon", Message: "must be between -180 and 180", Code: "OUT_OF_RANGE"})
	}
	return errs
}

// HealthStatus represents the health status of a service.
type HealthStatus string

const (
	HealthStatusOK       HealthStatus = "OK"
	HealthStatusDegraded HealthStatus = "DEGRADED"
	HealthStatusFail     HealthStatus = "FAIL"
)

// Timestamp is a time.Time that marshals as RFC 3339.
type Timestamp time.Time

// MarshalJSON implements json.Marshaler for Timestamp.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(time.RFC3339) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler for Timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	parsed, err := time.Parse(`"`+time.RFC3339+`"`, string(data))
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

// Time returns the underlying time.Time.
func (t Timestamp) Time() time.Time {
	return time.Time(t)
}
