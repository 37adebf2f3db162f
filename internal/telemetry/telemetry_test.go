package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/digitaladdress/locator/internal/telemetry"
)

func TestInit_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		OTLPEndpoint:   "localhost:4317",
		Enabled:        false,
	})

	require.NoError(t, err)
	assert.NotNil(t, provider)
	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)

	// Noop provider should have nil TracerProvider and MeterProvider
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)

	// Shutdown should not error
	err = provider.Shutdown(ctx)
	assert.NoError(t, err)
}

func TestInit_DisabledInstallsPropagator(t *testing.T) {
	_, err := telemetry.Init(context.Background(), telemetry.Config{ServiceName: "locator-test"})
	require.NoError(t, err)

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}

func TestProvider_Shutdown_NilProviders(t *testing.T) {
	provider := &telemetry.Provider{}
	err := provider.Shutdown(context.Background())
	assert.NoError(t, err)
}

func TestTracer_ReturnsGlobalTracer(t *testing.T) {
	tracer := telemetry.Tracer("test-tracer")
	assert.NotNil(t, tracer)
}

func TestMeter_ReturnsGlobalMeter(t *testing.T) {
	meter := telemetry.Meter("test-meter")
	assert.NotNil(t, meter)
}

func TestGatewayMetrics(t *testing.T) {
	m, err := telemetry.NewGatewayMetrics()
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.RecordRequest("osrm", "route", 120*time.Millisecond, nil)
		m.RecordRequest("nominatim", "search", time.Second, errors.New("timeout"))
		m.RecordCacheHit("building_outline")
		m.RecordCacheMiss("building_outline")
	})
}

func TestGatewayMetrics_Nil(t *testing.T) {
	var m *telemetry.GatewayMetrics

	assert.NotPanics(t, func() {
		m.RecordRequest("osrm", "route", time.Second, nil)
		m.RecordCacheHit("building_outline")
		m.RecordCacheMiss("building_outline")
	})
}
