package handler

import (
	"errors"
	"net/http"

	"github.com/digitaladdress/locator/internal/api/middleware"
	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/internal/api/response"
	"github.com/digitaladdress/locator/internal/building"
	"github.com/digitaladdress/locator/internal/location"
	"github.com/digitaladdress/locator/internal/planner"
)

// reasonStatus maps failure kinds to HTTP status codes.
var reasonStatus = map[planner.Reason]int{
	planner.ReasonEmptyQuery:          http.StatusBadRequest,
	planner.ReasonMissingEndpoint:     http.StatusBadRequest,
	planner.ReasonUnsupportedMode:     http.StatusBadRequest,
	planner.ReasonNotFound:            http.StatusNotFound,
	planner.ReasonNoRouteFound:        http.StatusNotFound,
	planner.ReasonPositionUnavailable: http.StatusUnprocessableEntity,
	planner.ReasonServiceUnavailable:  http.StatusServiceUnavailable,
}

// writeLocatorError writes the problem for a resolver or planner failure.
// The problem code carries the failure kind.
func writeLocatorError(w http.ResponseWriter, r *http.Request, err error) {
	reason := planner.ReasonFor(err)
	status, ok := reasonStatus[reason]
	if !ok {
		status = http.StatusServiceUnavailable
	}

	response.Error(w, r, problemFor(r, status, errorDetail(err)).WithCode(string(reason)))
}

// errorDetail returns the caller-facing message of err without provider internals.
func errorDetail(err error) string {
	var planErr *planner.Error
	if errors.As(err, &planErr) {
		if planErr.Side != "" {
			return string(planErr.Side) + ": " + planErr.Message
		}
		return planErr.Message
	}

	var locErr *location.Error
	if errors.As(err, &locErr) {
		return locErr.Message
	}

	return "the location service is temporarily unavailable"
}

// writeBuildingError writes the problem for a building directory failure.
func writeBuildingError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, building.ErrBuildingNotFound):
		response.Error(w, r, problemFor(r, http.StatusNotFound, "building code not found").WithCode("BuildingNotFound"))
	case errors.Is(err, building.ErrNoBuildingAtPoint):
		response.Error(w, r, problemFor(r, http.StatusNotFound, "no building at the given point").WithCode("NoBuildingAtPoint"))
	case errors.Is(err, building.ErrGeometryUnavailable):
		response.Error(w, r, problemFor(r, http.StatusNotFound, "building geometry is not available").WithCode("GeometryUnavailable"))
	default:
		response.Error(w, r, problemFor(r, http.StatusServiceUnavailable, "the building directory is temporarily unavailable").
			WithCode(string(planner.ReasonServiceUnavailable)))
	}
}

func problemFor(r *http.Request, status int, detail string) *models.Problem {
	traceID := middleware.GetRequestID(r.Context())
	switch status {
	case http.StatusBadRequest:
		return models.NewBadRequest(traceID, detail, nil)
	case http.StatusNotFound:
		return models.NewNotFound(traceID, detail)
	case http.StatusUnprocessableEntity:
		return models.NewUnprocessable(traceID, detail)
	default:
		return models.NewServiceUnavailable(traceID, detail)
	}
}
