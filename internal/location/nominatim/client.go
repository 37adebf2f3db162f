// Package nominatim provides a geocoder backed by the Nominatim search API.
package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/location"
	"github.com/digitaladdress/locator/internal/provider/resilience"
	"github.com/digitaladdress/locator/pkg/geo"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public OpenStreetMap Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultLimit is the number of candidates requested.
	DefaultLimit = 1
)

// Gateway errors.
var (
	ErrUnavailable = errors.New("geocoder unavailable")
	ErrRateLimited = errors.New("geocoder rate limit exceeded")
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the instance base URL (optional).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Limit is the number of candidates requested (optional, defaults to 1).
	Limit int

	// CountryCodes restricts results, e.g. "in" (optional).
	CountryCodes string

	// UserAgent identifies the application as the usage policy requires
	// (optional, defaults to resilience.DefaultUserAgent).
	UserAgent string

	// Email identifies heavy users to the Nominatim operators (optional).
	Email string

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Nominatim search client.
type Client struct {
	baseURL      string
	httpClient   HTTPDoer
	limit        int
	countryCodes string
	email        string
	userAgent    string
	logger       zerolog.Logger
}

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = resilience.DefaultUserAgent
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.Registry = cfg.Registry
		clientCfg.Logger = cfg.Logger
		clientCfg.UserAgent = userAgent
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   httpClient,
		limit:        limit,
		countryCodes: cfg.CountryCodes,
		email:        cfg.Email,
		userAgent:    userAgent,
		logger:       cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Search looks up text, qualified with localityBias when given, and returns candidates in
// the order Nominatim ranked them. No match yields an empty slice.
func (c *Client) Search(ctx context.Context, text, localityBias string) ([]location.Candidate, error) {
	q := strings.TrimSpace(text)
	if localityBias != "" {
		q += ", " + localityBias
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(c.limit))
	if c.countryCodes != "" {
		params.Set("countrycodes", c.countryCodes)
	}
	if c.email != "" {
		params.Set("email", c.email)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug().
		Str("q", q).
		Int("limit", c.limit).
		Msg("searching Nominatim")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}

	candidates := make([]location.Candidate, 0, len(places))
	for _, p := range places {
		coord, err := p.coordinate()
		if err != nil {
			c.logger.Warn().Err(err).Int64("place_id", p.PlaceID).Msg("skipping Nominatim result with bad coordinates")
			continue
		}
		candidates = append(candidates, location.Candidate{
			Coordinate: coord,
			Label:      p.DisplayName,
		})
	}

	c.logger.Debug().
		Int("candidates", len(candidates)).
		Msg("received Nominatim results")

	return candidates, nil
}

// place mirrors the parts of a Nominatim search result the client reads.
// Nominatim encodes coordinates as strings.
type place struct {
	PlaceID     int64  `json:"place_id"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class,omitempty"`
	Type        string `json:"type,omitempty"`
}

func (p place) coordinate() (geo.Coordinate, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parsing lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parsing lon %q: %w", p.Lon, err)
	}
	c := geo.Coordinate{Lat: lat, Lon: lon}
	return c, c.Validate()
}
