// Package routing defines the route engine contract used by the planner: profiles, routes,
// legs and maneuver steps, plus the errors a routing provider may return.
package routing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/digitaladdress/locator/pkg/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no valid route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the public endpoint throttled us.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrUnsupportedProfile indicates the provider has no such profile.
	ErrUnsupportedProfile = errors.New("unsupported routing profile")
)

// Provider defines the interface for routing engines.
type Provider interface {
	// Route computes candidate routes between two points. An empty Routes slice means the
	// engine found no route; it is not an error.
	Route(ctx context.Context, req RouteRequest) (*RouteResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
	// SupportedProfiles returns the list of route profiles this provider supports.
	SupportedProfiles() []Profile
}

// Profile is a routing engine's travel-mode identifier.
type Profile string

const (
	// ProfileCar routes over the drivable network.
	ProfileCar Profile = "car"
	// ProfileFoot routes over footways and streets for pedestrians.
	ProfileFoot Profile = "foot"
)

// Supports reports whether profile is in the provider's supported list.
func Supports(p Provider, profile Profile) bool {
	for _, supported := range p.SupportedProfiles() {
		if supported == profile {
			return true
		}
	}
	return false
}

// RouteRequest is the request for computing routes.
type RouteRequest struct {
	Origin      geo.Coordinate
	Destination geo.Coordinate
	Profile     Profile
}

// RouteResponse holds the candidate routes in engine order.
type RouteResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route is one candidate route with full-overview geometry.
type Route struct {
	Geometry        []geo.Coordinate
	EncodedGeometry string // polyline, precision 5
	DistanceMeters  float64
	DurationSeconds float64
	Legs            []Leg
}

// Leg is the part of a route between two consecutive waypoints.
type Leg struct {
	Summary         string
	DistanceMeters  float64
	DurationSeconds float64
	Steps           []Step
}

// Step is one maneuver point along a leg. Index 0 of a leg departs, the last index arrives.
type Step struct {
	Maneuver        ManeuverType
	Modifier        Modifier
	RoadName        string
	DistanceMeters  float64
	DurationSeconds float64
}

// ManeuverType tags the kind of maneuver at a step.
type ManeuverType string

// Maneuver vocabulary. Engines may emit values outside this set.
const (
	ManeuverDepart         ManeuverType = "depart"
	ManeuverArrive         ManeuverType = "arrive"
	ManeuverTurn           ManeuverType = "turn"
	ManeuverNewName        ManeuverType = "new-name"
	ManeuverMerge          ManeuverType = "merge"
	ManeuverOnRamp         ManeuverType = "on-ramp"
	ManeuverOffRamp        ManeuverType = "off-ramp"
	ManeuverFork           ManeuverType = "fork"
	ManeuverEndOfRoad      ManeuverType = "end-of-road"
	ManeuverRoundabout     ManeuverType = "roundabout"
	ManeuverRotary         ManeuverType = "rotary"
	ManeuverRoundaboutTurn ManeuverType = "roundabout-turn"
	ManeuverExitRoundabout ManeuverType = "exit-roundabout"
	ManeuverNotification   ManeuverType = "notification"
)

// Modifier qualifies a maneuver's direction.
type Modifier string

// Modifier vocabulary. Engines may emit values outside this set (e.g. "uturn").
const (
	ModifierNone        Modifier = ""
	ModifierLeft        Modifier = "left"
	ModifierRight       Modifier = "right"
	ModifierStraight    Modifier = "straight"
	ModifierSlightLeft  Modifier = "slight-left"
	ModifierSlightRight Modifier = "slight-right"
	ModifierSharpLeft   Modifier = "sharp-left"
	ModifierSharpRight  Modifier = "sharp-right"
)

// NormalizeTag converts an engine tag such as "new name" or "slight left" to the
// hyphenated vocabulary form.
func NormalizeTag(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), "-")
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
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

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
