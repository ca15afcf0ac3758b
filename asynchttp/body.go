package asynchttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/kbukum/nativesvc/executor"
)

// ErrBodyClosed is returned when reading frames from a closed body.
var ErrBodyClosed = errors.New("asynchttp: body closed")

// Body is a response body delivered as a stream of frames. A pump task on
// the executor reads the underlying stream ahead of the consumer, up to
// Config.FrameBuffer frames. The pump and Drain run outside the executor's
// task limit, so a full limit never stalls a body.
type Body struct {
	exec   *executor.Executor
	raw    io.ReadCloser
	frames chan []byte
	cancel context.CancelFunc

	// err is the terminal state, set before frames is closed.
	err error

	closeOnce sync.Once
	closed    chan struct{}
}

func newBody(exec *executor.Executor, raw io.ReadCloser, frameSize, frameBuffer int, cancel context.CancelFunc) *Body {
	b := &Body{
		exec:   exec,
		raw:    raw,
		frames: make(chan []byte, frameBuffer),
		cancel: cancel,
		closed: make(chan struct{}),
	}
	if err := exec.Go("body-pump", func(ctx context.Context) error {
		b.pump(ctx, frameSize)
		return nil
	}); err != nil {
		b.err = err
		close(b.frames)
	}
	return b
}

// pump copies the raw stream into frames until EOF, a read error, Close,
// or executor shutdown. Read errors are handed to the consumer, not the
// executor.
func (b *Body) pump(ctx context.Context, frameSize int) {
	defer close(b.frames)
	for {
		buf := make([]byte, frameSize)
		n, err := b.raw.Read(buf)
		if n > 0 {
			select {
			case b.frames <- buf[:n]:
			case <-b.closed:
				b.err = ErrBodyClosed
				return
			case <-ctx.Done():
				b.err = executor.ErrClosed
				return
			}
		}
		if err != nil {
			select {
			case <-b.closed:
				b.err = ErrBodyClosed
			default:
				b.err = err
			}
			return
		}
	}
}

// terminal returns the error a consumer sees once frames are exhausted.
func (b *Body) terminal() error {
	if b.err == nil {
		return io.EOF
	}
	return b.err
}

// Next blocks until the next frame is available. It returns io.EOF at the
// end of the body.
func (b *Body) Next(ctx context.Context) ([]byte, error) {
	select {
	case frame, ok := <-b.frames:
		if !ok {
			return nil, b.terminal()
		}
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryNext returns a frame if one is ready without blocking. ready is false
// when the pump has not produced the next frame yet.
func (b *Body) TryNext() (frame []byte, ready bool, err error) {
	select {
	case frame, ok := <-b.frames:
		if !ok {
			return nil, true, b.terminal()
		}
		return frame, true, nil
	default:
		return nil, false, nil
	}
}

// Collect gathers the remaining frames into one buffer on the executor.
func (b *Body) Collect() *executor.Future[[]byte] {
	return executor.Submit(b.exec, func(ctx context.Context) ([]byte, error) {
		var buf bytes.Buffer
		for {
			frame, err := b.Next(ctx)
			if errors.Is(err, io.EOF) {
				return buf.Bytes(), nil
			}
			if err != nil {
				return nil, err
			}
			buf.Write(frame)
		}
	})
}

// Drain discards up to limit unread bytes in a background task so the
// underlying connection can be reused, then closes the body. A body with
// more than limit bytes left is closed early and the task fails.
func (b *Body) Drain(limit int64) error {
	return b.exec.Go("body-drain", func(ctx context.Context) error {
		defer func() { _ = b.Close() }()
		var discarded int64
		for {
			frame, err := b.Next(ctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("drain body: %w", err)
			}
			discarded += int64(len(frame))
			if discarded > limit {
				return fmt.Errorf("drain body: more than %d unread bytes", limit)
			}
		}
	})
}

// Close stops the pump and releases the underlying stream.
func (b *Body) Close() error {
	var err error
	b.closeOnce.Do(func() {
		close(b.closed)
		err = b.raw.Close()
		if b.cancel != nil {
			b.cancel()
		}
	})
	return err
}
