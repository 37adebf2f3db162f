package openrouteservice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/digitaladdress/locator/internal/routing"
	"github.com/digitaladdress/locator/pkg/geo"
	"github.com/digitaladdress/locator/pkg/polyline"
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
	libraryDAL = geo.Coordinate{Lat: 10.6, Lon: 76.22}
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(ClientConfig{
		APIKey:     "mock123",
		BaseURL:    server.URL,
		HTTPClient: &mockHTTPClient{client: server.Client()},
		Logger:     zerolog.Nop(),
	})
}

func routeFixture() string {
	geometry := polyline.Encode([]geo.Coordinate{campusGate, {Lat: 10.595, Lon: 76.21}, libraryDAL})
	return `{"routes":[{"summary":{"distance":1520.4,"duration":1094.7},"geometry":"` + geometry + `",
	"segments":[{"distance":1520.4,"duration":1094.7,"steps":[
		{"distance":600,"duration":430,"type":11,"instruction":"Head north","name":"-"},
		{"distance":920.4,"duration":664.7,"type":1,"instruction":"Turn right onto Museum Road","name":"Museum Road"},
		{"distance":0,"duration":0,"type":10,"instruction":"Arrive","name":"-"}
	]}]}]}`
}

func TestClient_Route_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "mock123" {
			t.Errorf("expected Authorization header 'mock123', got '%s'", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/v2/directions/foot-walking" {
			t.Errorf("expected path /v2/directions/foot-walking, got %s", r.URL.Path)
		}

		var body orsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request body: %v", err)
			return
		}
		if len(body.Coordinates) != 2 || body.Coordinates[0][0] != 76.21 || body.Coordinates[0][1] != 10.59 {
			t.Errorf("expected lon,lat coordinates, got %v", body.Coordinates)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(routeFixture()))
	}))
	defer server.Close()

	resp, err := newTestClient(server).Route(context.Background(), routing.RouteRequest{
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
	if route.DistanceMeters != 1520.4 {
		t.Errorf("expected distance 1520.4, got %f", route.DistanceMeters)
	}
	if len(route.Geometry) != 3 {
		t.Errorf("expected 3 geometry points, got %d", len(route.Geometry))
	}
	if len(route.Legs) != 1 || len(route.Legs[0].Steps) != 3 {
		t.Fatalf("expected 1 leg with 3 steps, got %+v", route.Legs)
	}

	steps := route.Legs[0].Steps
	if steps[0].Maneuver != routing.ManeuverDepart || steps[0].RoadName != "" {
		t.Errorf("unexpected depart step: %+v", steps[0])
	}
	if steps[1].Maneuver != routing.ManeuverTurn || steps[1].Modifier != routing.ModifierRight {
		t.Errorf("unexpected turn step: %+v", steps[1])
	}
	if steps[1].RoadName != "Museum Road" {
		t.Errorf("expected road name Museum Road, got %q", steps[1].RoadName)
	}
	if steps[2].Maneuver != routing.ManeuverArrive {
		t.Errorf("expected arrive, got %s", steps[2].Maneuver)
	}
}

func TestClient_Route_DrivingProfilePath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(routeFixture()))
	}))
	defer server.Close()

	_, err := newTestClient(server).Route(context.Background(), routing.RouteRequest{
		Origin:      campusGate,
		Destination: libraryDAL,
		Profile:     routing.ProfileCar,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v2/directions/driving-car" {
		t.Errorf("expected driving-car path, got %s", gotPath)
	}
}

func TestClient_Route_NoRouteFound(t *testing.T) {
	for _, code := range []int{orsErrorCodeNotFound, orsErrorCodePointNotFound} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"code": code, "message": "Could not find routable point"},
			})
		}))

		resp, err := newTestClient(server).Route(context.Background(), routing.RouteRequest{
			Origin:      campusGate,
			Destination: libraryDAL,
			Profile:     routing.ProfileFoot,
		})
		server.Close()

		if err != nil {
			t.Fatalf("code %d: unexpected error: %v", code, err)
		}
		if len(resp.Routes) != 0 {
			t.Errorf("code %d: expected no routes, got %d", code, len(resp.Routes))
		}
	}
}

func TestClient_Route_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"code":403,"message":"Rate limit exceeded"}}`, routing.ErrRateLimitExceeded},
		{"bad key", http.StatusForbidden, `{"error":"Access to this API has been disallowed"}`, routing.ErrProviderUnavailable},
		{"server error", http.StatusBadGateway, `upstream down`, routing.ErrProviderUnavailable},
		{"bad parameter", http.StatusBadRequest, `{"error":{"code":2003,"message":"Parameter 'coordinates' has incorrect value"}}`, routing.ErrInvalidCoordinates},
		{"unparseable", http.StatusTeapot, `<html>`, routing.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server).Route(context.Background(), routing.RouteRequest{
				Origin:      campusGate,
				Destination: libraryDAL,
				Profile:     routing.ProfileFoot,
			})

			var routingErr *routing.Error
			if !errors.As(err, &routingErr) {
				t.Fatalf("expected routing.Error, got %T (%v)", err, err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, routingErr.Err)
			}
		})
	}
}

func TestClient_Route_InvalidInput(t *testing.T) {
	client := NewClient(ClientConfig{
		APIKey:     "mock123",
		HTTPClient: failingHTTPClient{},
		Logger:     zerolog.Nop(),
	})

	_, err := client.Route(context.Background(), routing.RouteRequest{
		Origin:      geo.Coordinate{Lat: 91, Lon: 76.2},
		Destination: libraryDAL,
		Profile:     routing.ProfileFoot,
	})
	if !errors.Is(err, routing.ErrInvalidCoordinates) {
		t.Errorf("expected ErrInvalidCoordinates, got %v", err)
	}

	_, err = client.Route(context.Background(), routing.RouteRequest{
		Origin:      campusGate,
		Destination: libraryDAL,
		Profile:     routing.Profile("bike"),
	})
	if !errors.Is(err, routing.ErrUnsupportedProfile) {
		t.Errorf("expected ErrUnsupportedProfile, got %v", err)
	}
}

func TestClient_Route_Unreachable(t *testing.T) {
	client := NewClient(ClientConfig{
		APIKey:     "mock123",
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

	var routingErr *routing.Error
	if errors.As(err, &routingErr) && !routingErr.IsRetryable() {
		t.Error("expected unreachable provider error to be retryable")
	}
}

func TestManeuverFor(t *testing.T) {
	tests := []struct {
		stepType     int
		wantManeuver routing.ManeuverType
		wantModifier routing.Modifier
	}{
		{stepLeft, routing.ManeuverTurn, routing.ModifierLeft},
		{stepSlightRight, routing.ManeuverTurn, routing.ModifierSlightRight},
		{stepStraight, routing.ManeuverNewName, routing.ModifierStraight},
		{stepEnterRoundabout, routing.ManeuverRoundabout, routing.ModifierNone},
		{stepKeepLeft, routing.ManeuverFork, routing.ModifierSlightLeft},
		{stepUTurn, routing.ManeuverTurn, routing.Modifier("uturn")},
		{42, routing.ManeuverType("ors-42"), routing.ModifierNone},
	}

	for _, tt := range tests {
		maneuver, modifier := maneuverFor(tt.stepType)
		if maneuver != tt.wantManeuver || modifier != tt.wantModifier {
			t.Errorf("maneuverFor(%d) = %s/%s, want %s/%s", tt.stepType, maneuver, modifier, tt.wantManeuver, tt.wantModifier)
		}
	}
}
