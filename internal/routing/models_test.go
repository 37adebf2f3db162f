package routing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/digitaladdress/locator/internal/routing"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"new name", "new-name"},
		{"end of road", "end-of-road"},
		{"slight left", "slight-left"},
		{"Sharp  Right", "sharp-right"},
		{"exit roundabout", "exit-roundabout"},
		{"depart", "depart"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, routing.NormalizeTag(tt.in))
		})
	}
}

type profileProvider struct{ profiles []routing.Profile }

func (p profileProvider) Route(context.Context, routing.RouteRequest) (*routing.RouteResponse, error) {
	return &routing.RouteResponse{}, nil
}
func (p profileProvider) Name() string                         { return "fake" }
func (p profileProvider) SupportedProfiles() []routing.Profile { return p.profiles }

func TestSupports(t *testing.T) {
	p := profileProvider{profiles: []routing.Profile{routing.ProfileFoot}}

	assert.True(t, routing.Supports(p, routing.ProfileFoot))
	assert.False(t, routing.Supports(p, routing.ProfileCar))
}

func TestError_Unwrap(t *testing.T) {
	err := &routing.Error{
		Provider: "osrm",
		Code:     "RATE_LIMIT",
		Message:  "throttled",
		Err:      routing.ErrRateLimitExceeded,
	}

	assert.True(t, errors.Is(err, routing.ErrRateLimitExceeded))
	assert.True(t, err.IsRetryable())
	assert.Equal(t, "throttled: rate limit exceeded", err.Error())

	noRoute := &routing.Error{Message: "none", Err: routing.ErrNoRouteFound}
	assert.False(t, noRoute.IsRetryable())
}
