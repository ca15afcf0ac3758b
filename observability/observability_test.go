package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
	if !cfg.Insecure {
		t.Error("expected Insecure to be true")
	}
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("test-service")

	if cfg.ServiceName != "test-service" {
		t.Errorf("expected ServiceName 'test-service', got %s", cfg.ServiceName)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected Interval 15s, got %v", cfg.Interval)
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected default endpoint, got %q", cfg.Endpoint)
	}
	if cfg.Interval != 15*time.Second {
		t.Errorf("expected 15s interval, got %v", cfg.Interval)
	}

	tc := cfg.TracerConfig("svc", "v1")
	if tc.ServiceName != "svc" || tc.ServiceVersion != "v1" || tc.Environment != "development" {
		t.Errorf("unexpected tracer config: %+v", tc)
	}
	mc := cfg.MeterConfig("svc", "v1")
	if mc.Interval != cfg.Interval || mc.Endpoint != cfg.Endpoint {
		t.Errorf("unexpected meter config: %+v", mc)
	}

	bad := Config{SampleRate: 1.5}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for sample rate above 1")
	}
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{}, "svc", "v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestNewBridgeMetrics(t *testing.T) {
	metrics, err := NewBridgeMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordSubmit(ctx, "GET", "200", 10*time.Millisecond)
	metrics.RecordBodyBytes(ctx, 128)
	metrics.RecordBackgroundError(ctx, "body-drain")
}

func TestBridgeMetricsNilSafe(t *testing.T) {
	var metrics *BridgeMetrics
	ctx := context.Background()
	metrics.RecordSubmit(ctx, "GET", "200", time.Millisecond)
	metrics.RecordBodyBytes(ctx, 1)
	metrics.RecordBackgroundError(ctx, "body-drain")
}

func TestBridgeMetricsRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewBridgeMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()
	metrics.RecordBackgroundError(ctx, "body-drain")
	metrics.RecordBackgroundError(ctx, "body-drain")
	metrics.RecordBodyBytes(ctx, 0)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	var found bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case MetricBackgroundErrors:
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) != 1 {
					t.Fatalf("unexpected data for %s: %#v", m.Name, m.Data)
				}
				if sum.DataPoints[0].Value != 2 {
					t.Errorf("expected 2 background errors, got %d", sum.DataPoints[0].Value)
				}
				found = true
			case MetricBridgeBodyBytes:
				t.Errorf("zero byte reads should not be recorded")
			}
		}
	}
	if !found {
		t.Errorf("metric %s not collected", MetricBackgroundErrors)
	}
}

func TestNewOperationContext(t *testing.T) {
	oc := NewOperationContext("bridge", "GET", "http://example/get", "req-1", nil)

	if oc.Component != "bridge" {
		t.Errorf("expected Component 'bridge', got %s", oc.Component)
	}
	if oc.Method != "GET" {
		t.Errorf("expected Method 'GET', got %s", oc.Method)
	}
	if oc.RequestID != "req-1" {
		t.Errorf("expected RequestID 'req-1', got %s", oc.RequestID)
	}
	if oc.StartTime.IsZero() {
		t.Error("expected StartTime to be set")
	}
	if oc.Metrics != nil {
		t.Error("expected nil metrics")
	}
}

func TestOperationContextFromContext(t *testing.T) {
	oc := NewOperationContext("bridge", "GET", "http://example/get", "req-1", nil)
	ctx := WithOperationContext(context.Background(), oc)

	if got := OperationContextFromContext(ctx); got != oc {
		t.Error("expected to retrieve the same OperationContext")
	}
	if got := OperationContextFromContext(context.Background()); got != nil {
		t.Error("expected nil when not set")
	}
}

func TestOperationContext_Duration(t *testing.T) {
	oc := NewOperationContext("bridge", "GET", "", "", nil)
	time.Sleep(5 * time.Millisecond)
	if oc.Duration() < 5*time.Millisecond {
		t.Errorf("expected duration >= 5ms, got %v", oc.Duration())
	}
}

func TestOperationContextSpan(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		err        error
		wantStatus codes.Code
	}{
		{"success", 200, nil, codes.Unset},
		{"failure", 0, errors.New("connection refused"), codes.Error},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := useRecorder(t)
			metrics, _ := NewBridgeMetrics(noop.NewMeterProvider().Meter("test"))

			oc := NewOperationContext("bridge", "POST", "http://example/post", "req-7", metrics)
			ctx, span := oc.StartSpanForOperation(context.Background(), SpanBridgeSubmit)
			if OperationContextFromContext(ctx) != oc {
				t.Error("expected span context to carry the operation")
			}
			oc.EndOperation(ctx, span, tc.statusCode, tc.err)

			spans := recorder.Ended()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			s := spans[0]
			if s.Name() != SpanBridgeSubmit {
				t.Errorf("expected span %q, got %q", SpanBridgeSubmit, s.Name())
			}
			if s.Status().Code != tc.wantStatus {
				t.Errorf("expected status %v, got %v", tc.wantStatus, s.Status().Code)
			}
			if v, ok := attrValue(s.Attributes(), AttrHTTPMethod); !ok || v.AsString() != "POST" {
				t.Errorf("expected method attribute, got %v", v)
			}
			if v, ok := attrValue(s.Attributes(), AttrRequestID); !ok || v.AsString() != "req-7" {
				t.Errorf("expected request id attribute, got %v", v)
			}
			v, ok := attrValue(s.Attributes(), AttrHTTPStatusCode)
			if tc.err == nil && (!ok || v.AsInt64() != int64(tc.statusCode)) {
				t.Errorf("expected status code attribute %d, got %v", tc.statusCode, v)
			}
			if tc.err != nil && ok {
				t.Error("failed submit should not carry a status code")
			}
		})
	}
}

func TestSetSpanAttribute(t *testing.T) {
	recorder := useRecorder(t)

	ctx, span := StartSpan(context.Background(), "test-attrs")
	SetSpanAttribute(ctx, "string-key", "value")
	SetSpanAttribute(ctx, "int-key", 42)
	SetSpanAttribute(ctx, "int64-key", int64(100))
	SetSpanAttribute(ctx, "bool-key", true)
	SetSpanAttribute(ctx, "unsupported-key", struct{}{})
	span.End()

	attrs := recorder.Ended()[0].Attributes()
	if v, ok := attrValue(attrs, "string-key"); !ok || v.AsString() != "value" {
		t.Errorf("expected string attribute, got %v", v)
	}
	if v, ok := attrValue(attrs, "int-key"); !ok || v.AsInt64() != 42 {
		t.Errorf("expected int attribute, got %v", v)
	}
	if _, ok := attrValue(attrs, "unsupported-key"); ok {
		t.Error("unsupported attribute types should be ignored")
	}
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	SetSpanAttribute(context.Background(), "key", "value")
}

func TestSetSpanError(t *testing.T) {
	recorder := useRecorder(t)

	ctx, span := StartSpan(context.Background(), "test-error")
	SetSpanError(ctx, fmt.Errorf("test error"))
	span.End()

	if got := recorder.Ended()[0].Status().Code; got != codes.Error {
		t.Errorf("expected error status, got %v", got)
	}
	SetSpanError(context.Background(), fmt.Errorf("no span error"))
}

func TestServiceHealth_AddComponent(t *testing.T) {
	sh := NewServiceHealth("nativesvc", "1.0.0")
	if sh.Status != HealthStatusUp {
		t.Fatalf("expected 'up', got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "bridge", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected 'degraded', got %s", sh.Status)
	}
	if sh.HTTPStatus() != 200 {
		t.Errorf("expected 200 while degraded, got %d", sh.HTTPStatus())
	}
	sh.AddComponent(Health{Name: "executor", Status: HealthStatusDown})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected 'down', got %s", sh.Status)
	}
	if sh.HTTPStatus() != 503 {
		t.Errorf("expected 503 while down, got %d", sh.HTTPStatus())
	}
	sh.AddComponent(Health{Name: "echo", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected 'down' not overridden by 'degraded', got %s", sh.Status)
	}
	if len(sh.Components) != 3 {
		t.Errorf("expected 3 components, got %d", len(sh.Components))
	}
}

func TestInitTracer(t *testing.T) {
	prev := otel.GetTracerProvider()
	defer otel.SetTracerProvider(prev)

	tests := []struct {
		name       string
		sampleRate float64
	}{
		{"always sample", 1.0},
		{"never sample", 0.0},
		{"ratio based", 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultTracerConfig("test")
			cfg.SampleRate = tc.sampleRate
			tp, err := InitTracer(context.Background(), cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			_ = tp.Shutdown(ctx)
		})
	}
}

func TestInitMeter(t *testing.T) {
	prev := otel.GetMeterProvider()
	defer otel.SetMeterProvider(prev)

	cfg := DefaultMeterConfig("test")
	mp, err := InitMeter(context.Background(), &cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = mp.Shutdown(ctx)
}
