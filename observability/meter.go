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

	"github.com/kbukum/nativesvc/logger"
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

// Metric names.
const (
	MetricBridgeRequests   = "nativesvc.bridge.requests"
	MetricBridgeDuration   = "nativesvc.bridge.duration"
	MetricBridgeBodyBytes  = "nativesvc.bridge.body.bytes"
	MetricBackgroundErrors = "nativesvc.background.errors"
)

// BridgeMetrics holds the instruments recorded by blocking HTTP bridges.
type BridgeMetrics struct {
	requests         metric.Int64Counter
	duration         metric.Float64Histogram
	bodyBytes        metric.Int64Counter
	backgroundErrors metric.Int64Counter
}

// NewBridgeMetrics creates metric instruments on the given meter.
func NewBridgeMetrics(meter metric.Meter) (*BridgeMetrics, error) {
	requests, err := meter.Int64Counter(MetricBridgeRequests,
		metric.WithDescription("Requests submitted through the bridge"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricBridgeRequests, err)
	}

	duration, err := meter.Float64Histogram(MetricBridgeDuration,
		metric.WithDescription("Time from submit until response headers arrive"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricBridgeDuration, err)
	}

	bodyBytes, err := meter.Int64Counter(MetricBridgeBodyBytes,
		metric.WithDescription("Response body bytes delivered to callers"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricBridgeBodyBytes, err)
	}

	backgroundErrors, err := meter.Int64Counter(MetricBackgroundErrors,
		metric.WithDescription("Failed background tasks such as keep-alive drains"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricBackgroundErrors, err)
	}

	return &BridgeMetrics{
		requests:         requests,
		duration:         duration,
		bodyBytes:        bodyBytes,
		backgroundErrors: backgroundErrors,
	}, nil
}

// RecordSubmit records one submitted request and how long the caller waited.
func (m *BridgeMetrics) RecordSubmit(ctx context.Context, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("status", status),
	))
	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
	))
}

// RecordBodyBytes counts response body bytes handed to the caller.
func (m *BridgeMetrics) RecordBodyBytes(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bodyBytes.Add(ctx, int64(n))
}

// RecordBackgroundError counts a failed background task.
func (m *BridgeMetrics) RecordBackgroundError(ctx context.Context, task string) {
	if m == nil {
		return
	}
	m.backgroundErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("task", task),
	))
}
