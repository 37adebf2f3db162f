// Package overpass fetches building footprints from an Overpass API endpoint.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/osm"
	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/building"
	"github.com/digitaladdress/locator/internal/provider/resilience"
	"github.com/digitaladdress/locator/pkg/geo"
)

const (
	// ProviderName identifies this provider.
	ProviderName = "overpass"

	// DefaultBaseURL is the main public Overpass instance.
	DefaultBaseURL = "https://overpass-api.de"

	// DefaultTimeout is the default request timeout. Overpass queries are slow.
	DefaultTimeout = 20 * time.Second

	// serverTimeoutSeconds bounds query execution on the Overpass side.
	serverTimeoutSeconds = 25
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Overpass client.
type ClientConfig struct {
	// BaseURL is the instance base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 20s).
	Timeout time.Duration

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an Overpass API client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewClient creates a new Overpass client.
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
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// WayGeometry fetches the outline of a single way.
// Returns building.ErrGeometryUnavailable when the way is gone or has no geometry.
func (c *Client) WayGeometry(ctx context.Context, id osm.WayID) (*building.Footprint, error) {
	query := fmt.Sprintf("[out:json][timeout:%d];way(%d);out geom;", serverTimeoutSeconds, int64(id))

	c.logger.Debug().
		Str("feature", id.FeatureID().String()).
		Msg("requesting way geometry from Overpass")

	footprints, err := c.query(ctx, query)
	if err != nil {
		return nil, err
	}

	for i := range footprints {
		if footprints[i].WayID == id {
			return &footprints[i], nil
		}
	}
	return nil, building.ErrGeometryUnavailable
}

// BuildingsAround returns the footprints of all ways tagged building within radius
// meters of center.
func (c *Client) BuildingsAround(ctx context.Context, center geo.Coordinate, radiusMeters float64) ([]building.Footprint, error) {
	query := fmt.Sprintf(`[out:json][timeout:%d];way(around:%s,%s,%s)["building"];out geom;`,
		serverTimeoutSeconds,
		strconv.FormatFloat(radiusMeters, 'f', -1, 64),
		strconv.FormatFloat(center.Lat, 'f', -1, 64),
		strconv.FormatFloat(center.Lon, 'f', -1, 64),
	)

	c.logger.Debug().
		Float64("lat", center.Lat).
		Float64("lon", center.Lon).
		Float64("radius_m", radiusMeters).
		Msg("requesting buildings from Overpass")

	return c.query(ctx, query)
}

func (c *Client) query(ctx context.Context, query string) ([]building.Footprint, error) {
	form := url.Values{}
	form.Set("data", query)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/interpreter", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", building.ErrDirectoryUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", building.ErrDirectoryUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Msg("Overpass returned non-OK status")
		return nil, fmt.Errorf("%w: overpass returned status %d", building.ErrDirectoryUnavailable, resp.StatusCode)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", building.ErrDirectoryUnavailable, err)
	}

	// Overpass reports query timeouts and memory exhaustion as a remark on a 200.
	if strings.Contains(parsed.Remark, "runtime error") {
		return nil, fmt.Errorf("%w: %s", building.ErrDirectoryUnavailable, parsed.Remark)
	}

	footprints := make([]building.Footprint, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		if el.Type != "way" || len(el.Geometry) == 0 {
			continue
		}
		outline := make([]geo.Coordinate, 0, len(el.Geometry))
		for _, p := range el.Geometry {
			outline = append(outline, geo.Coordinate{Lat: p.Lat, Lon: p.Lon})
		}
		footprints = append(footprints, building.Footprint{
			WayID:   osm.WayID(el.ID),
			Name:    el.Tags["name"],
			Outline: outline,
		})
	}

	return footprints, nil
}

// response is the subset of Overpass JSON output the client reads.
type response struct {
	Remark   string    `json:"remark,omitempty"`
	Elements []element `json:"elements"`
}

type element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags,omitempty"`
	Geometry []point           `json:"geometry,omitempty"`
}

type point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
