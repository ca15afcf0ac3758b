package connection

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/kbukum/nativesvc/asynchttp"
	"github.com/kbukum/nativesvc/executor"
	"github.com/kbukum/nativesvc/observability"
)

// BodyReader is the read cursor over a response body. It implements
// io.Reader: a read copies what fits into p and keeps the rest for the
// next call. After the last byte every read returns 0, io.EOF.
type BodyReader struct {
	body    *asynchttp.Body
	exec    *executor.Executor
	mode    BodyMode
	metrics *observability.BridgeMetrics

	cursor []byte
	// done is set once the underlying body has nothing more to give.
	done bool
	err  error
}

func newBodyReader(body *asynchttp.Body, exec *executor.Executor, mode BodyMode, metrics *observability.BridgeMetrics) *BodyReader {
	return &BodyReader{
		body:    body,
		exec:    exec,
		mode:    mode,
		metrics: metrics,
	}
}

// Read implements io.Reader.
func (r *BodyReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(r.cursor) == 0 {
		if r.done {
			if r.err != nil {
				return 0, r.err
			}
			return 0, io.EOF
		}
		r.fill()
	}

	n := copy(p, r.cursor)
	r.cursor = r.cursor[n:]
	r.metrics.RecordBodyBytes(context.Background(), n)
	return n, nil
}

// fill pulls more of the body into the cursor on the calling goroutine.
// Buffered mode takes every remaining frame at once.
func (r *BodyReader) fill() {
	ctx := r.exec.Context()

	if r.mode == BodyModeStreamed {
		frame, err := r.body.Next(ctx)
		switch {
		case errors.Is(err, io.EOF):
			r.done = true
		case err != nil:
			r.fail(err)
		default:
			r.cursor = frame
		}
		return
	}

	var buf bytes.Buffer
	for {
		frame, err := r.body.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			r.fail(err)
			return
		}
		buf.Write(frame)
	}
	r.done = true
	r.cursor = buf.Bytes()
}

func (r *BodyReader) fail(err error) {
	r.done = true
	if errors.Is(err, context.Canceled) {
		err = executor.ErrClosed
	}
	r.err = NewIOError(err)
}

// Buffered returns how many bytes are held in the cursor.
func (r *BodyReader) Buffered() int {
	return len(r.cursor)
}

// release gives up the body. With reuse the client drains unread bytes
// in the background when the connection is kept alive.
func (r *BodyReader) release(client *asynchttp.Client, reuse bool) {
	if !r.done || len(r.cursor) > 0 {
		r.done = true
		r.err = NewIOError(asynchttp.ErrBodyClosed)
	}
	r.cursor = nil
	if reuse {
		client.Release(r.body)
		return
	}
	_ = r.body.Close()
}
