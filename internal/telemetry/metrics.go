package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const gatewayMeterName = "github.com/digitaladdress/locator/gateway"

// GatewayMetrics records calls made to external gateways and the outline cache.
// A nil *GatewayMetrics records nothing.
type GatewayMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
	cacheHit        metric.Int64Counter
	cacheMiss       metric.Int64Counter
}

// NewGatewayMetrics creates the gateway instruments on the global meter provider.
func NewGatewayMetrics() (*GatewayMetrics, error) {
	meter := otel.Meter(gatewayMeterName)

	requestDuration, err := meter.Float64Histogram(
		"gateway.request.duration",
		metric.WithDescription("Duration of gateway calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	requestTotal, err := meter.Int64Counter(
		"gateway.request.total",
		metric.WithDescription("Total number of gateway calls"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHit, err := meter.Int64Counter(
		"gateway.cache.hit",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMiss, err := meter.Int64Counter(
		"gateway.cache.miss",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, err
	}

	return &GatewayMetrics{
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHit:        cacheHit,
		cacheMiss:       cacheMiss,
	}, nil
}

// RecordRequest records one gateway call.
func (m *GatewayMetrics) RecordRequest(gateway, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("gateway.name", gateway),
		attribute.String("gateway.operation", operation),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Recorded on a background context so a cancelled request still counts.
	ctx := context.Background()
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheHit records a cache hit.
func (m *GatewayMetrics) RecordCacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHit.Add(context.Background(), 1, metric.WithAttributes(attribute.String("cache.name", cache)))
}

// RecordCacheMiss records a cache miss.
func (m *GatewayMetrics) RecordCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMiss.Add(context.Background(), 1, metric.WithAttributes(attribute.String("cache.name", cache)))
}
