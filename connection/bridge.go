package connection

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"golang.org/x/net/http/httpguts"

	"github.com/kbukum/nativesvc/asynchttp"
	"github.com/kbukum/nativesvc/executor"
	"github.com/kbukum/nativesvc/logger"
	"github.com/kbukum/nativesvc/observability"
)

// slot is the request/response state of a bridge. Exactly one of
// idleSlot, *requestSlot and *responseSlot is held at a time.
type slot interface {
	slotName() string
}

type idleSlot struct{}

type requestSlot struct {
	id     string
	method string
	url    *url.URL
	header http.Header
	body   []byte

	writeBuf bytes.Buffer
	// unflushed is set by Write and cleared by Flush. Submit flushes
	// only when it is set, so an explicit Flush before submit sticks.
	unflushed bool
}

type responseSlot struct {
	id   string
	head *ResponseHead
	body *BodyReader
}

func (idleSlot) slotName() string      { return "idle" }
func (*requestSlot) slotName() string  { return "request_pending" }
func (*responseSlot) slotName() string { return "response_ready" }

// HTTPConnection implements Connection on top of an asynchttp.Client. It
// owns an executor for its whole lifetime and blocks the calling
// goroutine on it whenever a result is needed.
type HTTPConnection struct {
	config  Config
	exec    *executor.Executor
	client  *asynchttp.Client
	log     *logger.Logger
	metrics *observability.BridgeMetrics

	state slot
}

var _ Connection = (*HTTPConnection)(nil)

// Option customizes an HTTPConnection.
type Option func(*options)

type options struct {
	log          *logger.Logger
	metrics      *observability.BridgeMetrics
	roundTripper http.RoundTripper
}

// WithLogger sets the logger used by the bridge, its executor and client.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records bridge metrics on m.
func WithMetrics(m *observability.BridgeMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithRoundTripper replaces the transport built from Config.Client.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) { o.roundTripper = rt }
}

// New creates a bridge with its own executor and client. Construction
// failures are RuntimeCreation errors.
func New(cfg Config, opts ...Option) (*HTTPConnection, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, NewRuntimeCreationError(err)
	}

	o := options{log: logger.WithComponent("connection")}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.WithFields(logger.Fields("bridge", cfg.Name))

	c := &HTTPConnection{
		config:  cfg,
		log:     log,
		metrics: o.metrics,
		state:   idleSlot{},
	}

	execCfg := cfg.Executor
	userHook := execCfg.OnTaskError
	execCfg.OnTaskError = func(task string, err error) {
		c.backgroundFailed(task, err)
		if userHook != nil {
			userHook(task, err)
		}
	}
	exec, err := executor.New(execCfg, executor.WithLogger(log))
	if err != nil {
		return nil, NewRuntimeCreationError(err)
	}

	clientOpts := []asynchttp.Option{asynchttp.WithLogger(log)}
	if o.roundTripper != nil {
		clientOpts = append(clientOpts, asynchttp.WithRoundTripper(o.roundTripper))
	}
	client, err := asynchttp.New(cfg.Client, exec, clientOpts...)
	if err != nil {
		_ = exec.Close(context.Background())
		return nil, NewRuntimeCreationError(err)
	}

	c.exec = exec
	c.client = client
	return c, nil
}

func (c *HTTPConnection) backgroundFailed(task string, err error) {
	c.metrics.RecordBackgroundError(context.Background(), task)
	c.log.Warn("Background task failed", logger.Fields(
		logger.FieldTask, task,
		logger.FieldError, err.Error(),
	))
}

// Config returns the effective configuration.
func (c *HTTPConnection) Config() Config {
	return c.config
}

// RawConnection returns the async client the bridge drives.
func (c *HTTPConnection) RawConnection() *asynchttp.Client {
	return c.client
}

// InitiateRequest starts a new request cycle. The method, URI and headers
// are validated first; on error the bridge is left exactly as it was.
// On success any previous response is released and the request is held
// with an empty body.
func (c *HTTPConnection) InitiateRequest(method Method, uri string, headers []HeaderPair) error {
	name, ok := method.httpMethod()
	if !ok {
		return NewUnsupportedMethodError(method)
	}

	u, err := parseURI(uri)
	if err != nil {
		return err
	}

	for _, h := range headers {
		if !httpguts.ValidHeaderFieldName(h.Name) {
			return NewInvalidHeaderNameError(h.Name)
		}
		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return NewInvalidHeaderValueError(h.Name)
		}
	}

	header := make(http.Header, len(c.config.Headers)+len(headers))
	for name, value := range c.config.Headers {
		header.Set(name, value)
	}
	overridden := make(map[string]bool, len(headers))
	for _, h := range headers {
		key := http.CanonicalHeaderKey(h.Name)
		if !overridden[key] {
			header.Del(key)
			overridden[key] = true
		}
		header.Add(key, h.Value)
	}

	c.releaseResponse(true)

	req := &requestSlot{
		id:     uuid.NewString(),
		method: name,
		url:    u,
		header: header,
	}
	c.state = req

	c.log.Debug("Request initiated", logger.Fields(
		logger.FieldRequestID, req.id,
		logger.FieldMethod, name,
		logger.FieldURI, u.Redacted(),
	))
	return nil
}

func parseURI(uri string) (*url.URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, NewHTTPError(fmt.Sprintf("invalid uri %q", uri), err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, NewHTTPError(fmt.Sprintf("uri %q must be absolute http or https", uri), nil)
	}
	if u.Host == "" {
		return nil, NewHTTPError(fmt.Sprintf("uri %q has no host", uri), nil)
	}
	return u, nil
}

// IsRequestInitiated reports whether a request is pending submission.
func (c *HTTPConnection) IsRequestInitiated() bool {
	_, ok := c.state.(*requestSlot)
	return ok
}

// Write appends p to the write buffer of the pending request. Buffered
// bytes become the request body on the next Flush or on submit.
func (c *HTTPConnection) Write(p []byte) (int, error) {
	req, ok := c.state.(*requestSlot)
	if !ok {
		return 0, ErrNoRequest
	}
	req.writeBuf.Write(p)
	req.unflushed = true
	return len(p), nil
}

// Flush makes the bytes written since the last flush the request body,
// replacing any earlier body. Flushing with nothing written leaves an
// empty body.
func (c *HTTPConnection) Flush() error {
	req, ok := c.state.(*requestSlot)
	if !ok {
		return ErrNoRequest
	}
	flush(req)
	return nil
}

func flush(req *requestSlot) {
	req.body = bytes.Clone(req.writeBuf.Bytes())
	req.writeBuf.Reset()
	req.unflushed = false
}

// InitiateResponse submits the pending request and blocks until the
// response head arrives.
func (c *HTTPConnection) InitiateResponse() error {
	return c.InitiateResponseContext(context.Background())
}

// InitiateResponseContext is InitiateResponse with a context that can
// cancel the wait. Cancelling it abandons the request. The request is
// consumed whether or not the submit succeeds.
func (c *HTTPConnection) InitiateResponseContext(ctx context.Context) error {
	req, ok := c.state.(*requestSlot)
	if !ok {
		return ErrNoRequest
	}
	if req.unflushed {
		flush(req)
	}
	c.state = idleSlot{}

	oc := observability.NewOperationContext(c.config.Name, req.method, req.url.Redacted(), req.id, c.metrics)
	ctx, span := oc.StartSpanForOperation(ctx, observability.SpanBridgeSubmit)

	fut := c.client.Request(ctx, &asynchttp.Request{
		Method: req.method,
		URL:    req.url,
		Header: req.header,
		Body:   req.body,
	})
	resp, err := executor.BlockOn(ctx, c.exec, fut)
	if err != nil {
		oc.EndOperation(ctx, span, 0, err)
		c.log.Debug("Submit failed", logger.Fields(
			logger.FieldRequestID, req.id,
			logger.FieldMethod, req.method,
			logger.FieldError, err.Error(),
		))
		return NewClientError(err)
	}
	oc.EndOperation(ctx, span, resp.StatusCode, nil)

	c.state = &responseSlot{
		id:   req.id,
		head: newResponseHead(resp.StatusCode, resp.Proto, resp.Header),
		body: newBodyReader(resp.Body, c.exec, c.config.BodyMode, c.metrics),
	}

	c.log.Debug("Response initiated", logger.MergeWithDuration(logger.Fields(
		logger.FieldRequestID, req.id,
		logger.FieldMethod, req.method,
		logger.FieldStatus, resp.StatusCode,
	), oc.Duration()))
	return nil
}

// IsResponseInitiated reports whether a response is available.
func (c *HTTPConnection) IsResponseInitiated() bool {
	_, ok := c.state.(*responseSlot)
	return ok
}

func (c *HTTPConnection) response() (*responseSlot, error) {
	resp, ok := c.state.(*responseSlot)
	if !ok {
		return nil, ErrNoResponse
	}
	return resp, nil
}

// Status returns the status code of the current response.
func (c *HTTPConnection) Status() (int, error) {
	resp, err := c.response()
	if err != nil {
		return 0, err
	}
	return resp.head.Status(), nil
}

// StatusMessage returns the reason phrase of the current response. It is
// absent when there is no response.
func (c *HTTPConnection) StatusMessage() (string, bool) {
	resp, err := c.response()
	if err != nil {
		return "", false
	}
	return resp.head.StatusMessage()
}

// Header returns the first value of the named response header. It is
// absent when there is no response.
func (c *HTTPConnection) Header(name string) (string, bool) {
	resp, err := c.response()
	if err != nil {
		return "", false
	}
	return resp.head.Header(name)
}

// Read reads from the body of the current response.
func (c *HTTPConnection) Read(p []byte) (int, error) {
	resp, err := c.response()
	if err != nil {
		return 0, err
	}
	return resp.body.Read(p)
}

// Split returns the head and body reader of the current response. Both
// stay valid until the next InitiateRequest or Close.
func (c *HTTPConnection) Split() (*ResponseHead, *BodyReader, error) {
	resp, err := c.response()
	if err != nil {
		return nil, nil, err
	}
	return resp.head, resp.body, nil
}

// State names the current state: idle, request_pending or response_ready.
func (c *HTTPConnection) State() string {
	return c.state.slotName()
}

// releaseResponse drops the current response. With reuse the client may
// drain the body to keep the connection; otherwise it is closed.
func (c *HTTPConnection) releaseResponse(reuse bool) {
	resp, ok := c.state.(*responseSlot)
	if !ok {
		return
	}
	resp.body.release(c.client, reuse)
	c.state = idleSlot{}
	c.log.Debug("Response released", logger.Fields(logger.FieldRequestID, resp.id))
}

// Close releases any current response, closes idle transport connections
// and stops the executor.
func (c *HTTPConnection) Close() error {
	return c.CloseContext(context.Background())
}

// CloseContext is Close bounded by ctx.
func (c *HTTPConnection) CloseContext(ctx context.Context) error {
	c.releaseResponse(false)
	c.state = idleSlot{}
	c.client.CloseIdleConnections()
	return c.exec.Close(ctx)
}

// IsClosed reports whether Close has been called.
func (c *HTTPConnection) IsClosed() bool {
	return c.exec.IsClosed()
}
