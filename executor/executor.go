package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/kbukum/nativesvc/logger"
)

// ErrClosed is returned for work handed to an executor after Close.
var ErrClosed = errors.New("executor: closed")

// Executor runs tasks on goroutines under a concurrency limit and lets
// synchronous code wait on their results.
type Executor struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
	sem    *semaphore.Weighted
	log    *logger.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	running atomic.Int64
	failed  atomic.Int64
}

// Option customizes an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for task failures.
func WithLogger(l *logger.Logger) Option {
	return func(e *Executor) { e.log = l }
}

// New creates and starts an executor.
func New(cfg Config, opts ...Option) (*Executor, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Executor{
		config: cfg,
		ctx:    ctx,
		cancel: cancel,
		sem:    semaphore.NewWeighted(int64(cfg.MaxTasks)),
		log:    logger.WithComponent("executor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithFields(logger.Fields("executor", cfg.Name))
	return e, nil
}

// Context returns the executor's root context. It is cancelled by Close.
func (e *Executor) Context() context.Context {
	return e.ctx
}

// Name returns the configured executor name.
func (e *Executor) Name() string {
	return e.config.Name
}

// Running returns the number of tasks currently holding a slot.
func (e *Executor) Running() int64 {
	return e.running.Load()
}

// Failed returns how many spawned tasks have failed so far.
func (e *Executor) Failed() int64 {
	return e.failed.Load()
}

// IsClosed reports whether Close has been called.
func (e *Executor) IsClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}

// launch starts fn on a new goroutine that holds one slot while it runs.
func (e *Executor) launch(fn func(ctx context.Context) error) (<-chan error, error) {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return nil, ErrClosed
	}
	e.wg.Add(1)
	e.mu.RUnlock()

	result := make(chan error, 1)
	go func() {
		defer e.wg.Done()
		if err := e.sem.Acquire(e.ctx, 1); err != nil {
			result <- ErrClosed
			return
		}
		e.running.Add(1)
		defer func() {
			e.running.Add(-1)
			e.sem.Release(1)
		}()
		result <- e.run(fn)
	}()
	return result, nil
}

// run invokes fn, turning a panic into an error.
func (e *Executor) run(fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor: task panicked: %v", r)
		}
	}()
	return fn(e.ctx)
}

// Submit runs fn on the executor and returns a future for its result.
func Submit[T any](e *Executor, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	var val T
	result, err := e.launch(func(ctx context.Context) error {
		var taskErr error
		val, taskErr = fn(ctx)
		return taskErr
	})
	if err != nil {
		var zero T
		f.complete(zero, err)
		return f
	}
	go func() {
		err := <-result
		if err != nil {
			var zero T
			f.complete(zero, err)
			return
		}
		f.complete(val, nil)
	}()
	return f
}

// Spawn runs a named background task. Its error, if any, goes to
// Config.OnTaskError or the log; it is never returned to the caller.
func (e *Executor) Spawn(name string, fn func(ctx context.Context) error) error {
	result, err := e.launch(fn)
	if err != nil {
		return err
	}
	go func() {
		if err := <-result; err != nil {
			e.reportTaskError(name, err)
		}
	}()
	return nil
}

// Go runs a named background task on its own goroutine without taking a
// slot. It is for tasks that feed or empty a stream other tasks wait on,
// such as a body pump, and must not be starved by the task limit. Close
// still cancels and waits for it, and failures are reported as for Spawn.
func (e *Executor) Go(name string, fn func(ctx context.Context) error) error {
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		return ErrClosed
	}
	e.wg.Add(1)
	e.mu.RUnlock()

	go func() {
		defer e.wg.Done()
		if err := e.run(fn); err != nil {
			e.reportTaskError(name, err)
		}
	}()
	return nil
}

func (e *Executor) reportTaskError(name string, err error) {
	e.failed.Add(1)
	if e.config.OnTaskError != nil {
		e.config.OnTaskError(name, err)
		return
	}
	e.log.Error("Background task failed", logger.Fields(
		logger.FieldTask, name,
		logger.FieldError, err.Error(),
	))
}

// BlockOn parks the calling goroutine until f resolves. It returns early
// with ctx's error if ctx ends, or ErrClosed if the executor shuts down first.
func BlockOn[T any](ctx context.Context, e *Executor, f *Future[T]) (T, error) {
	select {
	case <-f.Done():
		return f.val, f.err
	default:
	}

	var zero T
	select {
	case <-f.Done():
		return f.val, f.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-e.ctx.Done():
		select {
		case <-f.Done():
			return f.val, f.err
		default:
			return zero, ErrClosed
		}
	}
}

// Close stops accepting work, cancels running tasks and waits for them to
// return. The wait is bounded by ctx, or by ShutdownTimeout if ctx has no
// deadline. Calling Close more than once is safe.
func (e *Executor) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.cancel()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.ShutdownTimeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.log.Debug("Executor closed")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("executor: %s: waiting for tasks: %w", e.config.Name, ctx.Err())
	}
}
