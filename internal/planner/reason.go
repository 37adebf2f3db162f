package planner

import (
	"errors"

	"github.com/digitaladdress/locator/internal/location"
	"github.com/digitaladdress/locator/internal/routing"
)

// Reason is the failure kind reported to callers.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonEmptyQuery          Reason = "EmptyQuery"
	ReasonPositionUnavailable Reason = "PositionUnavailable"
	ReasonNotFound            Reason = "NotFound"
	ReasonServiceUnavailable  Reason = "ServiceUnavailable"
	ReasonMissingEndpoint     Reason = "MissingEndpoint"
	ReasonNoRouteFound        Reason = "NoRouteFound"
	ReasonUnsupportedMode     Reason = "UnsupportedMode"
)

// ReasonFor classifies err into one of the failure kinds. Errors that match none of them
// are reported as ReasonServiceUnavailable.
func ReasonFor(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrMissingEndpoint):
		return ReasonMissingEndpoint
	case errors.Is(err, ErrUnsupportedMode), errors.Is(err, routing.ErrUnsupportedProfile):
		return ReasonUnsupportedMode
	case errors.Is(err, location.ErrEmptyQuery):
		return ReasonEmptyQuery
	case errors.Is(err, location.ErrPositionUnavailable):
		return ReasonPositionUnavailable
	case errors.Is(err, location.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, routing.ErrNoRouteFound):
		return ReasonNoRouteFound
	default:
		return ReasonServiceUnavailable
	}
}
