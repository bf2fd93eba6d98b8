package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/wirekit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds metric instruments for resolution engine observability.
type Metrics struct {
	resolutionTotal      metric.Int64Counter
	constructionDuration metric.Float64Histogram
	cacheHitTotal        metric.Int64Counter
	cacheMissTotal       metric.Int64Counter
	singleflightWait     metric.Float64Histogram
	cleanupTotal         metric.Int64Counter
	errorTotal           metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	resolutionTotal, err := meter.Int64Counter("resolution.total",
		metric.WithDescription("Total number of root resolutions"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resolution.total counter: %w", err)
	}

	constructionDuration, err := meter.Float64Histogram("construction.duration",
		metric.WithDescription("Duration of value construction in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating construction.duration histogram: %w", err)
	}

	cacheHitTotal, err := meter.Int64Counter("cache.hit.total",
		metric.WithDescription("Scope cache hits by scope"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cache.hit.total counter: %w", err)
	}

	cacheMissTotal, err := meter.Int64Counter("cache.miss.total",
		metric.WithDescription("Scope cache misses by scope"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cache.miss.total counter: %w", err)
	}

	singleflightWait, err := meter.Float64Histogram("singleflight.wait",
		metric.WithDescription("Time spent waiting on an in-flight construction in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating singleflight.wait histogram: %w", err)
	}

	cleanupTotal, err := meter.Int64Counter("cleanup.total",
		metric.WithDescription("Cleanup hook executions by scope and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating cleanup.total counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and key"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		resolutionTotal:      resolutionTotal,
		constructionDuration: constructionDuration,
		cacheHitTotal:        cacheHitTotal,
		cacheMissTotal:       cacheMissTotal,
		singleflightWait:     singleflightWait,
		cleanupTotal:         cleanupTotal,
		errorTotal:           errorTotal,
	}, nil
}

// RecordResolution records a completed root resolution.
func (m *Metrics) RecordResolution(ctx context.Context, root, status string, duration time.Duration) {
	m.resolutionTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("root", root),
		attribute.String("status", status),
	))
	m.constructionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("key", root),
		attribute.String("phase", "resolve"),
	))
}

// RecordConstruction records one factory invocation.
func (m *Metrics) RecordConstruction(ctx context.Context, key, scope, status string, duration time.Duration) {
	m.constructionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("key", key),
		attribute.String("scope", scope),
		attribute.String("status", status),
	))
}

// RecordCacheHit records a scope cache hit.
func (m *Metrics) RecordCacheHit(ctx context.Context, scope string) {
	m.cacheHitTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

// RecordCacheMiss records a scope cache miss.
func (m *Metrics) RecordCacheMiss(ctx context.Context, scope string) {
	m.cacheMissTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("scope", scope)))
}

// RecordSingleflightWait records how long a caller waited on a construction
// already in flight for the same key.
func (m *Metrics) RecordSingleflightWait(ctx context.Context, key string, duration time.Duration) {
	m.singleflightWait.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("key", key),
	))
}

// RecordCleanup records a scope exit's cleanup outcome.
func (m *Metrics) RecordCleanup(ctx context.Context, scope, status string) {
	m.cleanupTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("status", status),
	))
}

// RecordError records an error by type and key.
func (m *Metrics) RecordError(ctx context.Context, errType, key string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("key", key),
	))
}
