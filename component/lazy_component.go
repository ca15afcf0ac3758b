package component

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/nativesvc/logger"
)

// BaseLazyComponent runs an initializer on first Initialize and remembers
// the outcome. A failed initialization is retried on the next call.
// Embedding types supply the optional health check and closer.
type BaseLazyComponent struct {
	name string
	init func(ctx context.Context) error

	check func(ctx context.Context) error
	close func() error

	mu    sync.Mutex
	ready bool
	err   error
}

// NewBaseLazyComponent creates a lazy component named name.
func NewBaseLazyComponent(name string, initializer func(context.Context) error) *BaseLazyComponent {
	return &BaseLazyComponent{name: name, init: initializer}
}

// Name returns the component name.
func (b *BaseLazyComponent) Name() string {
	return b.name
}

// Initialize runs the initializer unless a previous call succeeded. It
// holds the lock for the whole call, so concurrent callers wait for the
// first one.
func (b *BaseLazyComponent) Initialize(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready {
		return nil
	}
	if b.init == nil {
		return fmt.Errorf("no initializer for component: %s", b.name)
	}
	if err := b.init(ctx); err != nil {
		b.err = err
		return fmt.Errorf("failed to initialize %s: %w", b.name, err)
	}
	b.ready, b.err = true, nil

	logger.Debug("Component initialized", logger.Fields(logger.FieldComponent, b.name))
	return nil
}

// IsInitialized reports whether the last Initialize succeeded and Close
// has not been called since.
func (b *BaseLazyComponent) IsInitialized() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ready
}

// HealthCheck fails before initialization, otherwise defers to the
// custom check if one is set.
func (b *BaseLazyComponent) HealthCheck(ctx context.Context) error {
	if !b.IsInitialized() {
		return fmt.Errorf("component %s not initialized", b.name)
	}
	if b.check == nil {
		return nil
	}
	return b.check(ctx)
}

// Err returns the error of the last failed initialization.
func (b *BaseLazyComponent) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Close runs the closer if the component is initialized.
func (b *BaseLazyComponent) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasReady := b.ready
	b.ready = false
	if !wasReady || b.close == nil {
		return nil
	}
	return b.close()
}

// WithHealthCheck sets the check HealthCheck runs once initialized.
func (b *BaseLazyComponent) WithHealthCheck(fn func(context.Context) error) *BaseLazyComponent {
	b.check = fn
	return b
}

// WithCloser sets the function Close runs.
func (b *BaseLazyComponent) WithCloser(fn func() error) *BaseLazyComponent {
	b.close = fn
	return b
}
