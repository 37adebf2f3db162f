package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/internal/api/response"
	"github.com/digitaladdress/locator/internal/building"
	"github.com/digitaladdress/locator/pkg/geo"
)

const (
	defaultNearbyRadius = 200.0
	maxNearbyRadius     = 1000.0
)

// BuildingDirectory looks up registered buildings.
type BuildingDirectory interface {
	LookupByCode(ctx context.Context, code string) (*building.Building, error)
	LookupByCoordinate(ctx context.Context, point geo.Coordinate) (*building.Building, error)
	Nearby(ctx context.Context, center geo.Coordinate, radiusMeters float64) ([]building.NearbyBuilding, error)
}

// BuildingHandler handles building directory endpoints.
type BuildingHandler struct {
	directory BuildingDirectory
}

// NewBuildingHandler creates a new BuildingHandler.
func NewBuildingHandler(directory BuildingDirectory) *BuildingHandler {
	return &BuildingHandler{directory: directory}
}

// Identify handles POST /v1/buildings:identify - the building under a point,
// registering a code for it on first use.
func (h *BuildingHandler) Identify(w http.ResponseWriter, r *http.Request) {
	var input models.IdentifyRequest
	if !decodeJSON(w, r, &input) {
		return
	}

	if errs := input.Validate(); len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	b, err := h.directory.LookupByCoordinate(r.Context(), geo.Coordinate{Lat: *input.Lat, Lon: *input.Lon})
	if err != nil {
		writeBuildingError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.BuildingFrom(b))
}

// GetBuilding handles GET /v1/buildings/{code}.
func (h *BuildingHandler) GetBuilding(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		response.BadRequest(w, r, "building code is required", nil)
		return
	}

	b, err := h.directory.LookupByCode(r.Context(), code)
	if err != nil {
		writeBuildingError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.BuildingFrom(b))
}

// Nearby handles GET /v1/buildings/nearby?lat=&lon=&radius=.
func (h *BuildingHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var errs []models.FieldError
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "lat", Message: "lat must be a number", Code: "INVALID"})
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		errs = append(errs, models.FieldError{Field: "lon", Message: "lon must be a number", Code: "INVALID"})
	}

	radius := defaultNearbyRadius
	if raw := q.Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || radius <= 0 || radius > maxNearbyRadius {
			errs = append(errs, models.FieldError{Field: "radius", Message: "must be between 0 and 1000 meters", Code: "OUT_OF_RANGE"})
		}
	}

	center := models.Point{Lat: lat, Lon: lon}
	if len(errs) == 0 {
		errs = models.ValidatePoint("", center)
	}
	if len(errs) > 0 {
		response.BadRequest(w, r, "validation failed", errs)
		return
	}

	found, err := h.directory.Nearby(r.Context(), center.Coordinate(), radius)
	if err != nil {
		writeBuildingError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, models.NearbyResponseFrom(center, radius, found))
}
