package resilience_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitaladdress/locator/internal/provider/resilience"
)

func TestRegistry_RegisterOnNewClient(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("nominatim")
	cfg.Registry = registry

	client := resilience.NewClient(cfg)

	assert.Equal(t, 1, registry.ProviderCount())
	assert.Equal(t, "nominatim", client.Name())

	health := registry.GetHealth("nominatim")
	require.NotNil(t, health)
	assert.Equal(t, gobreaker.StateClosed, health.CircuitState)
	assert.True(t, health.IsHealthy())
	assert.Equal(t, resilience.StatusHealthy, health.Status())
	assert.Nil(t, health.LastSuccessAt)
	assert.Nil(t, health.LastFailureAt)
}

func TestRegistry_RecordFailure(t *testing.T) {
	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("overpass")
	cfg.Registry = registry
	_ = resilience.NewClient(cfg)

	registry.RecordFailure("overpass", assert.AnError)

	health := registry.GetHealth("overpass")
	require.NotNil(t, health)
	require.NotNil(t, health.LastFailureAt)
	assert.WithinDuration(t, time.Now(), *health.LastFailureAt, time.Second)
	assert.Equal(t, assert.AnError.Error(), health.LastError)
}

func TestRegistry_UnknownNames(t *testing.T) {
	registry := resilience.NewRegistry()

	registry.RecordSuccess("missing")
	registry.RecordFailure("missing", assert.AnError)

	assert.Nil(t, registry.GetHealth("missing"))
	assert.Empty(t, registry.GetAllHealth())
}

func TestRegistry_GetAllHealthSorted(t *testing.T) {
	registry := resilience.NewRegistry()
	for _, name := range []string{"osrm", "nominatim", "overpass"} {
		cfg := resilience.DefaultClientConfig(name)
		cfg.Registry = registry
		_ = resilience.NewClient(cfg)
	}

	health := registry.GetAllHealth()
	require.Len(t, health, 3)
	assert.Equal(t, "nominatim", health[0].Name)
	assert.Equal(t, "osrm", health[1].Name)
	assert.Equal(t, "overpass", health[2].Name)
}

func TestRegistry_ClientRecordsOutcomes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	registry := resilience.NewRegistry()
	cfg := resilience.DefaultClientConfig("osrm")
	cfg.MaxRetries = 0
	cfg.Registry = registry
	client := resilience.NewClient(cfg)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/ok", http.NoBody)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	req, err = http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL+"/fail", http.NoBody)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	health := registry.GetHealth("osrm")
	require.NotNil(t, health)
	assert.NotNil(t, health.LastSuccessAt)
	assert.NotNil(t, health.LastFailureAt)
	assert.Contains(t, health.LastError, "Bad Gateway")
}

func TestProviderHealth_Status(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  string
	}{
		{gobreaker.StateClosed, resilience.StatusHealthy},
		{gobreaker.StateHalfOpen, resilience.StatusDegraded},
		{gobreaker.StateOpen, resilience.StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			h := &resilience.ProviderHealth{CircuitState: tt.state}
			assert.Equal(t, tt.want, h.Status())
		})
	}
}
