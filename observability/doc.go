// Package observability provides OpenTelemetry tracing and metrics for
// bridge request cycles and the echo server.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("nativesvc"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("nativesvc"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewBridgeMetrics(observability.Meter("nativesvc"))
//
// Each submit is traced as an OperationContext:
//
//	oc := observability.NewOperationContext("bridge", "GET", url, requestID, metrics)
//	ctx, span := oc.StartSpanForOperation(ctx, observability.SpanBridgeSubmit)
//	oc.EndOperation(ctx, span, 200, nil)
//
// Health checks:
//
//	health := observability.NewServiceHealth("nativesvc", version.GetVersion())
//	health.AddComponent(checker.CheckHealth(ctx))
package observability
