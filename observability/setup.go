package observability

import (
	"context"
	"errors"
)

// Setup initializes the tracer and meter providers when cfg is enabled and
// returns a function that flushes and shuts both down. With cfg disabled
// the global no-op providers stay in place and shutdown does nothing.
func Setup(ctx context.Context, cfg Config, serviceName, serviceVersion string) (func(context.Context) error, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	tp, err := InitTracer(ctx, cfg.TracerConfig(serviceName, serviceVersion))
	if err != nil {
		return nil, err
	}
	mcfg := cfg.MeterConfig(serviceName, serviceVersion)
	mp, err := InitMeter(ctx, &mcfg)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
