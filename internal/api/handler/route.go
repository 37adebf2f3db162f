package handler

import (
	"context"
	"net/http"

	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/internal/api/response"
	"github.com/digitaladdress/locator/internal/planner"
)

// RoutePlanner plans a route between two free-form queries.
type RoutePlanner interface {
	PlanRoute(ctx context.Context, origin, destination string, mode planner.TravelMode) (*planner.RoutePlan, error)
}

// RouteHandler handles routing endpoints.
type RouteHandler struct {
	planner RoutePlanner
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(p RoutePlanner) *RouteHandler {
	return &RouteHandler{planner: p}
}

// PlanRoute handles POST /v1/routes:plan.
func (h *RouteHandler) PlanRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RoutePlanRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := input.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	mode := planner.ModeWalking
	if input.TravelMode != "" {
		mode = planner.NormalizeTravelMode(input.TravelMode)
	}

	ctx := withPosition(r.Context(), input.Position)
	plan, err := h.planner.PlanRoute(ctx, input.Origin, input.Destination, mode)
	if err != nil {
		writeLocatorError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.RoutePlanResponseFrom(plan))
}
