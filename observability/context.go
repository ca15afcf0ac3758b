package observability

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OperationContext tracks one request cycle from submit until the
// response head arrives.
type OperationContext struct {
	Component string
	Method    string
	URL       string
	RequestID string
	StartTime time.Time
	Metrics   *BridgeMetrics
}

// NewOperationContext creates a new operation context.
// If metrics is nil, metric recording is silently skipped.
func NewOperationContext(component, method, url, requestID string, metrics *BridgeMetrics) *OperationContext {
	return &OperationContext{
		Component: component,
		Method:    method,
		URL:       url,
		RequestID: requestID,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

// operationContextKey is the context key for OperationContext.
type operationContextKey struct{}

// WithOperationContext stores an OperationContext in the context.
func WithOperationContext(ctx context.Context, oc *OperationContext) context.Context {
	return context.WithValue(ctx, operationContextKey{}, oc)
}

// OperationContextFromContext retrieves the OperationContext from context, or nil.
func OperationContextFromContext(ctx context.Context) *OperationContext {
	if oc, ok := ctx.Value(operationContextKey{}).(*OperationContext); ok {
		return oc
	}
	return nil
}

// StartSpanForOperation starts a client span for the operation.
func (oc *OperationContext) StartSpanForOperation(ctx context.Context, spanName string) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String(AttrComponent, oc.Component),
		attribute.String(AttrHTTPMethod, oc.Method),
		attribute.String(AttrURLFull, oc.URL),
		attribute.String(AttrRequestID, oc.RequestID),
	)
	return WithOperationContext(ctx, oc), span
}

// EndOperation ends the span and records submit metrics. statusCode is
// zero when no response arrived.
func (oc *OperationContext) EndOperation(ctx context.Context, span trace.Span, statusCode int, err error) {
	duration := time.Since(oc.StartTime)

	status := "error"
	if err != nil {
		SetSpanError(ctx, err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	} else {
		status = strconv.Itoa(statusCode)
		span.SetAttributes(attribute.Int(AttrHTTPStatusCode, statusCode))
	}

	span.SetAttributes(attribute.Int64(AttrDurationMs, duration.Milliseconds()))
	span.End()

	oc.Metrics.RecordSubmit(ctx, oc.Method, status, duration)
}

// Duration returns the elapsed time since operation start.
func (oc *OperationContext) Duration() time.Duration {
	return time.Since(oc.StartTime)
}
