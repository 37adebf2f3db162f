// Package openrouteservice provides a client for the OpenRouteService directions API. The
// locator uses it as a secondary route engine when OSRM is unavailable.
package openrouteservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/provider/resilience"
	"github.com/digitaladdress/locator/internal/routing"
	"github.com/digitaladdress/locator/pkg/polyline"
)

const (
	// ProviderName identifies this routing provider.
	ProviderName = "openrouteservice"

	// DefaultBaseURL is the OpenRouteService API base URL.
	DefaultBaseURL = "https://api.openrouteservice.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second
)

// profilePaths maps routing profiles to ORS profile names.
var profilePaths = map[routing.Profile]string{
	routing.ProfileCar:  "driving-car",
	routing.ProfileFoot: "foot-walking",
}

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OpenRouteService client.
type ClientConfig struct {
	// APIKey is the ORS API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to ORS API).
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

// Client is an OpenRouteService API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new OpenRouteService client.
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
		apiKey:     cfg.APIKey,
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

// Route requests a single route with encoded geometry and turn instructions.
// ORS reports an unroutable pair as an error; it is returned as an empty route list so
// callers see the same answer OSRM gives.
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

	orsReq := orsRequest{
		// ORS uses [lon, lat] order (GeoJSON)
		Coordinates: [][]float64{
			{req.Origin.Lon, req.Origin.Lat},
			{req.Destination.Lon, req.Destination.Lat},
		},
		Instructions: true,
		Geometry:     true,
		Units:        "m",
		Language:     "en",
	}

	body, err := json.Marshal(orsReq)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v2/directions/%s", c.baseURL, profilePath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("profile", string(req.Profile)).
		Float64("origin_lat", req.Origin.Lat).
		Float64("origin_lon", req.Origin.Lon).
		Float64("dest_lat", req.Destination.Lat).
		Float64("dest_lon", req.Destination.Lon).
		Msg("requesting route from ORS")

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

	if resp.StatusCode != http.StatusOK {
		rerr := c.handleErrorResponse(resp.StatusCode, respBody)
		if rerr == nil {
			return &routing.RouteResponse{Provider: ProviderName, FetchedAt: time.Now()}, nil
		}
		return nil, rerr
	}

	var orsResp orsResponse
	if err := json.Unmarshal(respBody, &orsResp); err != nil {
		return nil, &routing.Error{
			Provider: ProviderName,
			Code:     "BAD_RESPONSE",
			Message:  "routing provider returned an unreadable response",
			Err:      routing.ErrProviderUnavailable,
		}
	}

	result, err := toRouteResponse(&orsResp)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Int("route_count", len(result.Routes)).
		Msg("received route from ORS")

	return result, nil
}

// handleErrorResponse maps ORS error responses to domain errors. It returns nil when
// ORS reports that no route exists.
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var orsErr orsErrorResponse
	parsed := json.Unmarshal(body, &orsErr) == nil

	switch {
	case statusCode == http.StatusTooManyRequests:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "API rate limit exceeded, please try again later",
			Err:      routing.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &routing.Error{
			Provider: ProviderName,
			Code:     "FORBIDDEN",
			Message:  "API access denied - check API key configuration",
			Err:      routing.ErrProviderUnavailable,
		}
	case statusCode >= 500:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "routing provider is temporarily unavailable",
			Err:      routing.ErrProviderUnavailable,
		}
	case !parsed:
		return &routing.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("routing provider returned status %d", statusCode),
			Err:      routing.ErrProviderUnavailable,
		}
	}

	switch orsErr.Error.Code {
	case orsErrorCodeNotFound, orsErrorCodePointNotFound:
		c.logger.Debug().
			Int("code", orsErr.Error.Code).
			Str("message", orsErr.Error.Message).
			Msg("ORS found no route")
		return nil
	}

	c.logger.Warn().
		Int("status", statusCode).
		Int("code", orsErr.Error.Code).
		Str("message", orsErr.Error.Message).
		Msg("ORS rejected route request")

	if statusCode == http.StatusBadRequest {
		return &routing.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  orsErr.Error.Message,
			Err:      routing.ErrInvalidCoordinates,
		}
	}
	return &routing.Error{
		Provider: ProviderName,
		Code:     fmt.Sprintf("HTTP_%d", statusCode),
		Message:  orsErr.Error.Message,
		Err:      routing.ErrProviderUnavailable,
	}
}

// toRouteResponse converts an ORS response to the domain model. Each ORS segment
// becomes one leg.
func toRouteResponse(resp *orsResponse) (*routing.RouteResponse, error) {
	routes := make([]routing.Route, 0, len(resp.Routes))

	for i := range resp.Routes {
		orsR := &resp.Routes[i]

		geometry, err := polyline.Decode(orsR.Geometry)
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
			EncodedGeometry: orsR.Geometry,
			DistanceMeters:  orsR.Summary.Distance,
			DurationSeconds: orsR.Summary.Duration,
			Legs:            make([]routing.Leg, 0, len(orsR.Segments)),
		}

		for j := range orsR.Segments {
			seg := &orsR.Segments[j]
			steps := make([]routing.Step, 0, len(seg.Steps))
			for k := range seg.Steps {
				s := &seg.Steps[k]
				maneuver, modifier := maneuverFor(s.Type)
				name := s.Name
				if name == unnamedWay {
					name = ""
				}
				steps = append(steps, routing.Step{
					Maneuver:        maneuver,
					Modifier:        modifier,
					RoadName:        name,
					DistanceMeters:  s.Distance,
					DurationSeconds: s.Duration,
				})
			}
			route.Legs = append(route.Legs, routing.Leg{
				DistanceMeters:  seg.Distance,
				DurationSeconds: seg.Duration,
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

// maneuverFor translates an ORS instruction type to the maneuver vocabulary.
func maneuverFor(stepType int) (routing.ManeuverType, routing.Modifier) {
	switch stepType {
	case stepLeft:
		return routing.ManeuverTurn, routing.ModifierLeft
	case stepRight:
		return routing.ManeuverTurn, routing.ModifierRight
	case stepSharpLeft:
		return routing.ManeuverTurn, routing.ModifierSharpLeft
	case stepSharpRight:
		return routing.ManeuverTurn, routing.ModifierSharpRight
	case stepSlightLeft:
		return routing.ManeuverTurn, routing.ModifierSlightLeft
	case stepSlightRight:
		return routing.ManeuverTurn, routing.ModifierSlightRight
	case stepStraight:
		return routing.ManeuverNewName, routing.ModifierStraight
	case stepEnterRoundabout:
		return routing.ManeuverRoundabout, routing.ModifierNone
	case stepExitRoundabout:
		return routing.ManeuverExitRoundabout, routing.ModifierNone
	case stepUTurn:
		return routing.ManeuverTurn, routing.Modifier("uturn")
	case stepGoal:
		return routing.ManeuverArrive, routing.ModifierNone
	case stepDepart:
		return routing.ManeuverDepart, routing.ModifierNone
	case stepKeepLeft:
		return routing.ManeuverFork, routing.ModifierSlightLeft
	case stepKeepRight:
		return routing.ManeuverFork, routing.ModifierSlightRight
	default:
		return routing.ManeuverType(fmt.Sprintf("ors-%d", stepType)), routing.ModifierNone
	}
}
