package location

import (
	"context"

	"github.com/digitaladdress/locator/pkg/geo"
)

// Positioner reports the caller's current position.
type Positioner interface {
	CurrentPosition(ctx context.Context) (geo.Coordinate, error)
}

type positionKey struct{}

// WithReportedPosition attaches a device fix reported by the caller to ctx.
func WithReportedPosition(ctx context.Context, c geo.Coordinate) context.Context {
	return context.WithValue(ctx, positionKey{}, c)
}

// ReportedPosition returns the fix attached to ctx, if any.
func ReportedPosition(ctx context.Context) (geo.Coordinate, bool) {
	c, ok := ctx.Value(positionKey{}).(geo.Coordinate)
	return c, ok
}

// ContextPositioner serves the fix the caller attached to the request context.
type ContextPositioner struct{}

// CurrentPosition returns the reported fix or ErrPositionUnavailable when there is none
// or it is out of range.
func (ContextPositioner) CurrentPosition(ctx context.Context) (geo.Coordinate, error) {
	c, ok := ReportedPosition(ctx)
	if !ok {
		return geo.Coordinate{}, ErrPositionUnavailable
	}
	if err := c.Validate(); err != nil {
		return geo.Coordinate{}, ErrPositionUnavailable
	}
	return c, nil
}
