package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/digitaladdress/locator/internal/api/middleware"
	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/internal/api/response"
	"github.com/digitaladdress/locator/internal/location"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// GetOperator retrieves the authenticated operator subject from the context.
// This is a convenience wrapper around middleware.GetOperator.
func GetOperator(ctx context.Context) string {
	return middleware.GetOperator(ctx)
}

// decodeJSON decodes the request body into v, writing a 400 problem on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.BadRequest(w, r, "request body too large", nil)
			return false
		}
		response.BadRequest(w, r, "invalid JSON body", nil)
		return false
	}
	return true
}

// withPosition attaches the caller's reported fix to the request context.
func withPosition(ctx context.Context, p *models.Point) context.Context {
	if p == nil {
		return ctx
	}
	return location.WithReportedPosition(ctx, p.Coordinate())
}
