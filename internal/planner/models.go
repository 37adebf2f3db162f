// Package planner plans a route between two free-form endpoint queries and turns the
// result into turn-by-turn directions.
package planner

import (
	"errors"
	"strings"

	"github.com/digitaladdress/locator/internal/directions"
	"github.com/digitaladdress/locator/internal/location"
	"github.com/digitaladdress/locator/internal/routing"
	"github.com/digitaladdress/locator/pkg/geo"
)

// Planning errors.
var (
	ErrMissingEndpoint = errors.New("origin and destination are required")
	ErrUnsupportedMode = errors.New("unsupported travel mode")
)

// TravelMode is how the traveller moves.
type TravelMode string

const (
	ModeWalking TravelMode = "walking"
	ModeDriving TravelMode = "driving"
)

var modeProfiles = map[TravelMode]routing.Profile{
	ModeWalking: routing.ProfileFoot,
	ModeDriving: routing.ProfileCar,
}

var modeLabels = map[TravelMode]string{
	ModeWalking: "Walking",
	ModeDriving: "Driving",
}

// ParseTravelMode parses a travel mode case-insensitively.
func ParseTravelMode(s string) (TravelMode, error) {
	m := NormalizeTravelMode(s)
	if _, ok := modeProfiles[m]; !ok {
		return "", ErrUnsupportedMode
	}
	return m, nil
}

// NormalizeTravelMode folds case and surrounding space without checking the mode.
func NormalizeTravelMode(s string) TravelMode {
	return TravelMode(strings.ToLower(strings.TrimSpace(s)))
}

// ProfileFor returns the routing profile for a travel mode.
func ProfileFor(m TravelMode) (routing.Profile, bool) {
	p, ok := modeProfiles[m]
	return p, ok
}

// Label returns the display label of the mode, e.g. "Walking".
func (m TravelMode) Label() string {
	if l, ok := modeLabels[m]; ok {
		return l
	}
	return string(m)
}

// Side identifies which endpoint of a request failed.
type Side string

const (
	SideOrigin      Side = "origin"
	SideDestination Side = "destination"
)

// Summary holds the display strings of a plan.
type Summary struct {
	DistanceDisplay string `json:"distanceDisplay"`
	DurationDisplay string `json:"durationDisplay"`
	ModeLabel       string `json:"modeLabel"`
}

// RoutePlan is the result of a successful request. It is built once and not modified.
type RoutePlan struct {
	Origin               location.ResolvedLocation
	Destination          location.ResolvedLocation
	Geometry             []geo.Coordinate
	EncodedGeometry      string
	TotalDistanceMeters  float64
	TotalDurationSeconds float64
	Instructions         []directions.Instruction
	TravelMode           TravelMode
	Provider             string
	Summary              Summary
}

// Error describes a failed plan.
type Error struct {
	Side    Side   // Endpoint that failed, empty for routing failures
	Code    string // Machine-readable failure code
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Side != "" {
		msg = string(e.Side) + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
