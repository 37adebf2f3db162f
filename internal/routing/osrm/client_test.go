package osrm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/routing"
	"github.com/digitaladdress/locator/pkg/geo"
)

// mockHTTPClient wraps http.Client to implement HTTPDoer interface.
type mockHTTPClient struct {
	client *http.Client
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.client.Do(req)
}

type failingHTTPClient struct{}

func (failingHTTPClient) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

var (
	campusGate = geo.Coordinate{Lat: 10.59, Lon: 76.21}
	libraryDAL = geo.Coordinate{Lat: 10.60, Lon: 76.22}
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(ClientConfig{
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})
}

func TestClient_Route_Success(t *testing.T) {
	respBody, err := os.ReadFile("testdata/route_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		expectedPath := "/route/v1/foot/76.21,10.59;76.22,10.6"
		if r.URL.Path != expectedPath {
			t.Errorf("expected path %s, got %s", expectedPath, r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("overview") != "full" {
			t.Errorf("expected overview=full, got %q", q.Get("overview"))
		}
		if q.Get("steps") != "true" {
			t.Errorf("expected steps=true, got %q", q.Get("steps"))
		}
		if q.Get("geometries") != "polyline" {
			t.Errorf("expected geometries=polyline, got %q", q.Get("geometries"))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(respBody)
	}))
	defer server.Close()

	client := newTestClient(server)

	resp, err := client.Route(context.Background(), routing.RouteRequest{
		Origin:      campusGate,
		Destination: libraryDAL,
		Profile:     routing.ProfileFoot,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Provider != ProviderName {
		t.Errorf("expected provider %s, got %s", ProviderName, resp.Provider)
	}
	if len(resp.Routes) != 1 {
		t.Fatalf("expected 1 route, got %d", len(resp.Routes))
	}

	route := resp.Routes[0]
	if route.DistanceMeters != 1563.2 {
		t.Errorf("expected distance 1563.2, got %v", route.DistanceMeters)
	}
	if route.DurationSeconds != 1125.6 {
		t.Errorf("expected duration 1125.6, got %v", route.DurationSeconds)
	}
	if len(route.Geometry) != 4 {
		t.Fatalf("expected 4 geometry points, got %d", len(route.Geometry))
	}
	first, last := route.Geometry[0], route.Geometry[3]
	if math.Abs(first.Lat-10.59) > 1e-9 || math.Abs(first.Lon-76.21) > 1e-9 {
		t.Errorf("unexpected first point %+v", first)
	}
	if math.Abs(last.Lat-10.6) > 1e-9 || math.Abs(last.Lon-76.22) > 1e-9 {
		t.Errorf("unexpected last point %+v", last)
	}

	if len(route.Legs) != 1 {
		t.Fatalf("expected 1 leg, got %d", len(route.Legs))
	}
	steps := route.Legs[0].Steps
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(steps))
	}
	if steps[0].Maneuver != routing.ManeuverDepart || steps[0].RoadName != "Swaraj Round" {
		t.Errorf("unexpected depart step %+v", steps[0])
	}
	if steps[1].Maneuver != routing.ManeuverTurn || steps[1].Modifier != routing.ModifierSlightLeft {
		t.Errorf("expected normalized turn slight-left, got %+v", steps[1])
	}
	if steps[2].Maneuver != routing.ManeuverNewName {
		t.Errorf("expected new-name maneuver, got %q", steps[2].Maneuver)
	}
	if steps[3].Maneuver != routing.ManeuverArrive {
		t.Errorf("expected arrive maneuver, got %q", steps[3].Maneuver)
	}
}

func TestClient_Route_CarProfilePath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"code":"Ok","routes":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server)

	resp, err := client.Route(context.Background(), routing.RouteRequest{
		Origin:      campusGate,
		Destination: libraryDAL,
		Profile:     routing.ProfileCar,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/route/v1/driving/76.21,10.59;76.22,10.6" {
		t.Errorf("unexpected path %s", gotPath)
	}
	if len(resp.Routes) != 0 {
		t.Errorf("expected no routes, got %d", len(resp.Routes))
	}
}

func TestClient_Route_NoRouteIsEmpty(t *testing.T) {
	respBody, err := os.ReadFile("testdata/no_route_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write(respBody)
	}))
	defer server.Close()

	client := newTestClient(server)

	resp, err := client.Route(context.Background(), routing.RouteRequest{
		Origin:      campusGate,
		Destination: libraryDAL,
		Profile:     routing.ProfileFoot,
	})
	if err != nil {
		t.Fatalf("expected empty result, got error: %v", err)
	}
	if len(resp.Routes) != 0 {
		t.Errorf("expected 0 routes, got %d", len(resp.Routes))
	}
}

func TestClient_Route_ErrorMapping(t *testing.T) {
	errorBody, err := os.ReadFile("testdata/error_response.json")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	tests := []struct {
		name    string
		status  int
		body    []byte
		wantErr error
	}{
		{"invalid query", http.StatusBadRequest, errorBody, routing.ErrInvalidCoordinates},
		{"rate limited", http.StatusTooManyRequests, []byte(`{"message":"slow down"}`), routing.ErrRateLimitExceeded},
		{"server error", http.StatusBadGateway, []byte(`<html>bad gateway</html>`), routing.ErrProviderUnavailable},
		{"garbage body", http.StatusOK, []byte(`not json`), routing.ErrProviderUnavailable},
		{"too big", http.StatusBadRequest, []byte(`{"code":"TooBig","message":"too many coordinates"}`), routing.ErrNoRouteFound},
		{"unknown code", http.StatusBadRequest, []byte(`{"code":"Whatever"}`), routing.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write(tt.body)
			}))
			defer server.Close()

			client := newTestClient(server)

			_, err := client.Route(context.Background(), routing.RouteRequest{
				Origin:      campusGate,
				Destination: libraryDAL,
				Profile:     routing.ProfileFoot,
			})
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var routingErr *routing.Error
			if !errors.As(err, &routingErr) {
				t.Fatalf("expected routing.Error, got %T", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, routingErr.Err)
			}
		})
	}
}

func TestClient_Route_TransportFailure(t *testing.T) {
	client := NewClient(ClientConfig{
		HTTPClient: failingHTTPClient{},
		Logger:     zerolog.Nop(),
	})

	_, err := client.Route(context.Background(), routing.RouteRequest{
		Origin:      campusGate,
		Destination: libraryDAL,
		Profile:     routing.ProfileFoot,
	})
	if !errors.Is(err, routing.ErrProviderUnavailable) {
		t.Errorf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_Route_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		req     routing.RouteRequest
		wantErr error
	}{
		{
			name: "latitude out of range",
			req: routing.RouteRequest{
				Origin:      geo.Coordinate{Lat: 91, Lon: 76.2},
				Destination: libraryDAL,
				Profile:     routing.ProfileFoot,
			},
			wantErr: routing.ErrInvalidCoordinates,
		},
		{
			name: "longitude out of range",
			req: routing.RouteRequest{
				Origin:      campusGate,
				Destination: geo.Coordinate{Lat: 10.6, Lon: -181},
				Profile:     routing.ProfileFoot,
			},
			wantErr: routing.ErrInvalidCoordinates,
		},
		{
			name: "unsupported profile",
			req: routing.RouteRequest{
				Origin:      campusGate,
				Destination: libraryDAL,
				Profile:     routing.Profile("cycling"),
			},
			wantErr: routing.ErrUnsupportedProfile,
		},
	}

	client := NewClient(ClientConfig{
		HTTPClient: failingHTTPClient{},
		Logger:     zerolog.Nop(),
	})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Route(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestClient_Metadata(t *testing.T) {
	client := NewClient(ClientConfig{Logger: zerolog.Nop()})

	if client.Name() != ProviderName {
		t.Errorf("expected name %s, got %s", ProviderName, client.Name())
	}
	if !routing.Supports(client, routing.ProfileFoot) || !routing.Supports(client, routing.ProfileCar) {
		t.Error("expected car and foot profiles to be supported")
	}
}

func TestFormatCoord(t *testing.T) {
	got := formatCoord(geo.Coordinate{Lat: 10.5907, Lon: 76.2086})
	if got != "76.2086,10.5907" {
		t.Errorf("expected lon,lat order, got %s", got)
	}
}
