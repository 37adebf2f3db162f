// Package handler provides HTTP handlers for the locator API.
package handler

import (
	"context"
	"net/http"

	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/internal/api/response"
	"github.com/digitaladdress/locator/internal/location"
)

// LocationResolver resolves a single free-form query.
type LocationResolver interface {
	Resolve(ctx context.Context, query string) (*location.ResolvedLocation, error)
}

// LocationHandler handles location resolution endpoints.
type LocationHandler struct {
	resolver LocationResolver
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(resolver LocationResolver) *LocationHandler {
	return &LocationHandler{resolver: resolver}
}

// Resolve handles POST /v1/locations:resolve.
func (h *LocationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var input models.ResolveRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := input.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	ctx := withPosition(r.Context(), input.Position)
	resolved, err := h.resolver.Resolve(ctx, input.Query)
	if err != nil {
		writeLocatorError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.ResolvedLocationFrom(*resolved))
}
