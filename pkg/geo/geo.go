// Package geo provides the coordinate type shared by gateways, the resolver and the planner,
// together with the few spherical helpers the service needs.
package geo

import (
	"fmt"
	"math"
)

// Coordinate is a WGS84 point in signed decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the coordinate is within valid ranges.
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", c.Lat)
	}
	if math.IsNaN(c.Lon) || c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", c.Lon)
	}
	return nil
}

const earthRadiusMeters = 6371000

// Distance returns the great-circle distance between two coordinates in meters.
func Distance(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLon := math.Sin(dLon / 2)

	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLon*sinDLon
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

// Centroid returns the vertex average of an outline.
// Building outlines are small enough that the average is a good representative point.
// A closing vertex that repeats the first one is not counted twice.
// The second return value is false for an empty outline.
func Centroid(outline []Coordinate) (Coordinate, bool) {
	if len(outline) == 0 {
		return Coordinate{}, false
	}
	if len(outline) > 1 && outline[0] == outline[len(outline)-1] {
		outline = outline[:len(outline)-1]
	}

	var lat, lon float64
	for _, p := range outline {
		lat += p.Lat
		lon += p.Lon
	}
	n := float64(len(outline))
	return Coordinate{Lat: lat / n, Lon: lon / n}, true
}
