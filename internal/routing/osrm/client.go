// Package osrm provides a client for the OSRM route service.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/provider/resilience"
	"github.com/digitaladdress/locator/internal/routing"
	"github.com/digitaladdress/locator/pkg/geo"
	"github.com/digitaladdress/locator/pkg/polyline"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "osrm"

	// DefaultBaseURL is the public OSRM demo server.
	DefaultBaseURL = "https://router.project-osrm.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// profilePaths maps routing profiles to the OSRM URL profile segment.
var profilePaths = map[routing.Profile]string{
	routing.ProfileCar:  "driving",
	routing.ProfileFoot: "foot",
}

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OSRM client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public server).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OSRM route service client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OSRM client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SupportedProfiles returns the supported routing profiles.
func (c *Client) SupportedProfiles() []routing.Profile {
	return []routing.Profile{
		routing.ProfileCar,
		routing.ProfileFoot,
	}
}

// Route requests a route with full overview geometry and per-step maneuvers.
// A NoRoute or NoSegment answer yields an empty route list.
func (c *Client) Route(ctx context.Context, req routing.RouteRequest) (*routing.RouteResponse, error) {
	if err := req.Origin.Validate(); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_ORIGIN",
			Message:  "invalid origin coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}
	if err := req.Destination.Validate(); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "INVALID_DESTINATION",
			Message:  "invalid destination coordinates",
			Err:      routing.ErrInvalidCoordinates,
		}
	}

	profilePath, ok := profilePaths[req.Profile]
	if !ok {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "UNSUPPORTED_PROFILE",
			Message:  fmt.Sprintf("profile %q is not supported", req.Profile),
			Err:      routing.ErrUnsupportedProfile,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.routeURL(profilePath, req), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("profile", string(req.Profile)).
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("requesting route from OSRM")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach routing provider",
			Err:      routing.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "routing provider rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	}
	if resp.StatusCode >= 500 {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", resp.StatusCode),
			Message:  "routing provider is temporarily unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	}

	var osrmResp routeResponse
	if err := json.Unmarshal(respBody, &osrmResp); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  "routing provider returned an unreadable response",
			Err:      routing.ErrProviderUnavailable,
		}
	}

	switch osrmResp.Code {
	case codeOK:
	case codeNoRoute, codeNoSegment:
		c.logger.Debug().
			Str("code", osrmResp.Code).
			Msg("OSRM found no route")
		return &routing.RouteResponse{
			Provider:  ProviderName,
			FetchedAt: time.Now(),
		}, nil
	default:
		return nil, c.handleErrorCode(osrmResp.Code, osrmResp.Message)
	}

	result, err := toRouteResponse(&osrmResp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("route_count", len(result.Routes)).
		Msg("received route from OSRM")

	return result, nil
}

func (c *Client) routeURL(profilePath string, req routing.RouteRequest) string {
	coords := formatCoord(req.Origin) + ";" + formatCoord(req.Destination)

	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "polyline")
	q.Set("steps", "true")
	q.Set("alternatives", "false")

	return fmt.Sprintf("%s/route/v1/%s/%s?%s", c.baseURL, profilePath, coords, q.Encode())
}

// formatCoord renders a coordinate in OSRM's lon,lat order.
func formatCoord(c geo.Coordinate) string {
	return strconv.FormatFloat(c.Lon, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lat, 'f', -1, 64)
}

// handleErrorCode maps OSRM error codes to domain errors.
func (c *Client) handleErrorCode(code, message string) error {
	c.logger.Warn().
		Str("code", code).
		Str("message", message).
		Msg("OSRM rejected route request")

	switch code {
	case codeInvalidQuery, codeInvalidValue:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  message,
			Err:      routing.ErrInvalidCoordinates,
		}
	case codeTooBig:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "TOO_BIG",
			Message:  message,
			Err:      routing.ErrNoRouteFound,
		}
	default:
		return &routing.Error{
			Provider: ProviderName,
			Code:     code,
			Message:  "routing provider returned an error",
			Err:      routing.ErrProviderUnavailable,
		}
	}
}

// toRouteResponse converts an OSRM response to the domain model.
func toRouteResponse(resp *routeResponse) (*routing.RouteResponse, error) {
	routes := make([]routing.Route, 0, len(resp.Routes))

	for i := range resp.Routes {
		osrmR := &resp.Routes[i]

		geometry, err := polyline.Decode(osrmR.Geometry)
		if err != nil {
			return nil, &routing.Error{
				Provider: ProviderName,
				Code:     "BAD_GEOMETRY",
				Message:  "route geometry could not be decoded",
				Err:      err,
			}
		}

		route := routing.Route{
			Geometry:        geometry,
			EncodedGeometry: osrmR.Geometry,
			DistanceMeters:  osrmR.Distance,
			DurationSeconds: osrmR.Duration,
			Legs:            make([]routing.Leg, 0, len(osrmR.Legs)),
		}

		for j := range osrmR.Legs {
			leg := &osrmR.Legs[j]
			steps := make([]routing.Step, 0, len(leg.Steps))
			for k := range leg.Steps {
				s := &leg.Steps[k]
				steps = append(steps, routing.Step{
					Maneuver:        routing.ManeuverType(routing.NormalizeTag(s.Maneuver.Type)),
					Modifier:        routing.Modifier(routing.NormalizeTag(s.Maneuver.Modifier)),
					RoadName:        s.Name,
					DistanceMeters:  s.Distance,
					DurationSeconds: s.Duration,
				})
			}
			route.Legs = append(route.Legs, routing.Leg{
				Summary:         leg.Summary,
				DistanceMeters:  leg.Distance,
				DurationSeconds: leg.Duration,
				Steps:           steps,
			})
		}

		routes = append(routes, route)
	}

	return &routing.RouteResponse{
		Routes:    routes,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}, nil
}
