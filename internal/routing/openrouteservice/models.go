package openrouteservice

// orsRequest represents the ORS directions API request body.
type orsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
	Geometry     bool        `json:"geometry"`
	Units        string      `json:"units"`
	Language     string      `json:"language"`
}

// orsResponse represents the ORS directions API response.
type orsResponse struct {
	Routes []orsRoute `json:"routes"`
}

// orsRoute represents a single route in the ORS response.
type orsRoute struct {
	Summary  routeSummary   `json:"summary"`
	Segments []routeSegment `json:"segments,omitempty"`
	Geometry string         `json:"geometry"` // encoded polyline, precision 5
}

// routeSummary contains summary information for a route.
type routeSummary struct {
	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds
}

// routeSegment is the part of a route between two waypoints.
type routeSegment struct {
	Distance float64     `json:"distance"`
	Duration float64     `json:"duration"`
	Steps    []routeStep `json:"steps,omitempty"`
}

// routeStep represents a single step (instruction) in a segment.
type routeStep struct {
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	Type        int     `json:"type"`
	Instruction string  `json:"instruction"`
	Name        string  `json:"name"`
}

// orsErrorResponse represents an error response from ORS.
type orsErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ORS error codes for error mapping.
const (
	orsErrorCodePointNotFound = 2010 // routable point not found near a coordinate
	orsErrorCodeNotFound      = 2009 // route not found
)

// ORS instruction types.
const (
	stepLeft            = 0
	stepRight           = 1
	stepSharpLeft       = 2
	stepSharpRight      = 3
	stepSlightLeft      = 4
	stepSlightRight     = 5
	stepStraight        = 6
	stepEnterRoundabout = 7
	stepExitRoundabout  = 8
	stepUTurn           = 9
	stepGoal            = 10
	stepDepart          = 11
	stepKeepLeft        = 12
	stepKeepRight       = 13
)

// unnamedWay is what ORS reports as the name of a way without one.
const unnamedWay = "-"
