package osrm

// OSRM response codes.
const (
	codeOK           = "Ok"
	codeNoRoute      = "NoRoute"
	codeNoSegment    = "NoSegment"
	codeInvalidQuery = "InvalidQuery"
	codeInvalidValue = "InvalidValue"
	codeTooBig       = "TooBig"
)

// routeResponse is the /route/v1 response body.
type routeResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Geometry string    `json:"geometry"`
	Distance float64   `json:"distance"`
	Duration float64   `json:"duration"`
	Legs     []osrmLeg `json:"legs"`
}

type osrmLeg struct {
	Summary  string     `json:"summary"`
	Distance float64    `json:"distance"`
	Duration float64    `json:"duration"`
	Steps    []osrmStep `json:"steps"`
}

type osrmStep struct {
	Name     string       `json:"name"`
	Mode     string       `json:"mode"`
	Distance float64      `json:"distance"`
	Duration float64      `json:"duration"`
	Maneuver osrmManeuver `json:"maneuver"`
}

type osrmManeuver struct {
	Type          string    `json:"type"`
	Modifier      string    `json:"modifier,omitempty"`
	Exit          int       `json:"exit,omitempty"`
	BearingBefore int       `json:"bearing_before"`
	BearingAfter  int       `json:"bearing_after"`
	Location      []float64 `json:"location"` // [lon, lat]
}
