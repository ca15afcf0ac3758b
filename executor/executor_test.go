package executor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/nativesvc/logger"
)

func newTestExecutor(t *testing.T, cfg Config) *Executor {
	t.Helper()
	e, err := New(cfg, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Name != "executor" {
		t.Errorf("expected name 'executor', got %q", cfg.Name)
	}
	if cfg.MaxTasks != defaultMaxTasks {
		t.Errorf("expected %d max tasks, got %d", defaultMaxTasks, cfg.MaxTasks)
	}
	if cfg.ShutdownTimeout != defaultShutdownTimeout {
		t.Errorf("expected %s shutdown timeout, got %s", defaultShutdownTimeout, cfg.ShutdownTimeout)
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"negative max tasks", Config{MaxTasks: -1}, "max_tasks"},
		{"negative shutdown timeout", Config{ShutdownTimeout: -time.Second}, "shutdown_timeout"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %q", tc.wantErr, err.Error())
			}
		})
	}
}

func TestSubmitAndBlockOn(t *testing.T) {
	e := newTestExecutor(t, Config{Name: "test"})

	fut := Submit(e, func(_ context.Context) (int, error) {
		return 42, nil
	})
	v, err := BlockOn(context.Background(), e, fut)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestSubmitPropagatesError(t *testing.T) {
	e := newTestExecutor(t, Config{})
	boom := errors.New("boom")

	fut := Submit(e, func(_ context.Context) (string, error) {
		return "ignored", boom
	})
	v, err := BlockOn(context.Background(), e, fut)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if v != "" {
		t.Errorf("expected zero value on error, got %q", v)
	}
}

func TestSubmitRecoversPanic(t *testing.T) {
	e := newTestExecutor(t, Config{})

	fut := Submit(e, func(_ context.Context) (int, error) {
		panic("kaboom")
	})
	_, err := BlockOn(context.Background(), e, fut)
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("expected panic error, got %v", err)
	}
}

func TestFuturePoll(t *testing.T) {
	e := newTestExecutor(t, Config{})
	release := make(chan struct{})

	fut := Submit(e, func(_ context.Context) (int, error) {
		<-release
		return 7, nil
	})

	if _, ready, _ := fut.Poll(); ready {
		t.Fatal("expected future to be pending")
	}
	close(release)

	v, err := fut.Await(context.Background())
	if err != nil || v != 7 {
		t.Fatalf("expected 7, got %d (%v)", v, err)
	}
	v, ready, err := fut.Poll()
	if !ready || err != nil || v != 7 {
		t.Errorf("expected ready 7, got %d ready=%v err=%v", v, ready, err)
	}
}

func TestReady(t *testing.T) {
	fut := Ready("done", nil)
	v, ready, err := fut.Poll()
	if !ready || err != nil || v != "done" {
		t.Errorf("expected resolved future, got %q ready=%v err=%v", v, ready, err)
	}
}

func TestBlockOnContextCancelled(t *testing.T) {
	e := newTestExecutor(t, Config{})

	fut := Submit(e, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := BlockOn(ctx, e, fut)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestMaxTasksLimitsConcurrency(t *testing.T) {
	e := newTestExecutor(t, Config{MaxTasks: 2})

	var active, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		fut := Submit(e, func(_ context.Context) (int, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			active.Add(-1)
			return 0, nil
		})
		go func() {
			defer wg.Done()
			_, _ = fut.Await(context.Background())
		}()
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent tasks, got %d", peak.Load())
	}
}

func TestSpawnReportsFailure(t *testing.T) {
	var mu sync.Mutex
	var gotTask string
	var gotErr error
	reported := make(chan struct{})

	e := newTestExecutor(t, Config{
		OnTaskError: func(task string, err error) {
			mu.Lock()
			gotTask, gotErr = task, err
			mu.Unlock()
			close(reported)
		},
	})

	if err := e.Spawn("drain", func(_ context.Context) error {
		return errors.New("connection reset")
	}); err != nil {
		t.Fatalf("unexpected spawn error: %v", err)
	}

	select {
	case <-reported:
	case <-time.After(time.Second):
		t.Fatal("task failure was not reported")
	}

	mu.Lock()
	defer mu.Unlock()
	if gotTask != "drain" {
		t.Errorf("expected task 'drain', got %q", gotTask)
	}
	if gotErr == nil || gotErr.Error() != "connection reset" {
		t.Errorf("unexpected error: %v", gotErr)
	}
	if e.Failed() != 1 {
		t.Errorf("expected 1 failed task, got %d", e.Failed())
	}
}

func TestCloseCancelsTasksAndRejectsWork(t *testing.T) {
	e, err := New(Config{}, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	started := make(chan struct{})
	fut := Submit(e, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	<-started

	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if !e.IsClosed() {
		t.Error("expected executor to report closed")
	}

	if _, err := fut.Await(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected running task to be cancelled, got %v", err)
	}

	late := Submit(e, func(_ context.Context) (int, error) { return 1, nil })
	if _, err := late.Await(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed for late submit, got %v", err)
	}
	if err := e.Spawn("late", func(context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed for late spawn, got %v", err)
	}
	if err := e.Close(context.Background()); err != nil {
		t.Errorf("expected second close to be a no-op, got %v", err)
	}
}

func TestCloseTimesOutOnStuckTask(t *testing.T) {
	e, err := New(Config{}, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	release := make(chan struct{})
	defer close(release)
	started := make(chan struct{})
	_ = Submit(e, func(_ context.Context) (int, error) {
		close(started)
		<-release
		return 0, nil
	})
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := e.Close(ctx); err == nil {
		t.Fatal("expected close to time out")
	}
}

func TestGoRunsOutsideTaskLimit(t *testing.T) {
	var mu sync.Mutex
	var gotTask string
	reported := make(chan struct{})
	e := newTestExecutor(t, Config{
		MaxTasks: 1,
		OnTaskError: func(task string, _ error) {
			mu.Lock()
			gotTask = task
			mu.Unlock()
			close(reported)
		},
	})

	// Hold the only slot until the unbounded task has run.
	ran := make(chan struct{})
	fut := Submit(e, func(ctx context.Context) (int, error) {
		select {
		case <-ran:
			return 1, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})

	if err := e.Go("pump", func(_ context.Context) error {
		close(ran)
		return errors.New("stream reset")
	}); err != nil {
		t.Fatalf("unexpected go error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if v, err := BlockOn(ctx, e, fut); err != nil || v != 1 {
		t.Fatalf("expected slot holder to finish, got %d (%v)", v, err)
	}

	select {
	case <-reported:
	case <-time.After(time.Second):
		t.Fatal("failure of unbounded task was not reported")
	}
	mu.Lock()
	defer mu.Unlock()
	if gotTask != "pump" {
		t.Errorf("expected task 'pump', got %q", gotTask)
	}
	if e.Failed() != 1 {
		t.Errorf("expected 1 failed task, got %d", e.Failed())
	}
}

func TestGoAfterClose(t *testing.T) {
	e, err := New(Config{}, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = e.Close(context.Background())
	if err := e.Go("late", func(context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
