package asynchttp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"

	"github.com/kbukum/nativesvc/executor"
	"github.com/kbukum/nativesvc/logger"
)

// Request is an outbound request. The body is sent as a single buffer.
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// Response is a received status line and header block. The body streams
// in afterwards through Body.
type Response struct {
	StatusCode    int
	Proto         string
	Header        http.Header
	ContentLength int64
	Body          *Body
}

// Client sends requests on an executor and hands back futures.
type Client struct {
	httpClient *http.Client
	exec       *executor.Executor
	config     Config
	log        *logger.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithRoundTripper replaces the transport built from Config.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

// New creates a client whose requests run on exec.
func New(cfg Config, exec *executor.Executor, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport, err := buildTransport(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{Transport: transport},
		exec:       exec,
		config:     cfg,
		log:        logger.WithComponent("asynchttp"),
	}
	if !cfg.FollowRedirects {
		c.httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// buildTransport assembles the round tripper described by cfg.
func buildTransport(cfg Config) (http.RoundTripper, error) {
	dialer := &net.Dialer{Timeout: cfg.DialTimeout}

	if cfg.H2C {
		return &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialer.DialContext(ctx, network, addr)
			},
		}, nil
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		DisableKeepAlives:     !cfg.KeepAlive,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	// A custom DialContext keeps net/http from enabling h2 on its own, so
	// HTTP/2 is only negotiated when asked for.
	if cfg.HTTP2 {
		if _, err := http2.ConfigureTransports(transport); err != nil {
			return nil, fmt.Errorf("asynchttp: configure http2: %w", err)
		}
	}
	return transport, nil
}

// Config returns the client's effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// Executor returns the executor requests run on.
func (c *Client) Executor() *executor.Executor {
	return c.exec
}

// Request sends req on the executor. The future resolves once the status
// line and headers have arrived. ctx only governs that wait; the body
// stays readable after ctx ends.
func (c *Client) Request(ctx context.Context, req *Request) *executor.Future[*Response] {
	return executor.Submit(c.exec, func(taskCtx context.Context) (*Response, error) {
		return c.roundTrip(ctx, taskCtx, req)
	})
}

func (c *Client) roundTrip(callerCtx, taskCtx context.Context, req *Request) (*Response, error) {
	reqCtx, cancel := context.WithCancel(taskCtx)
	stop := context.AfterFunc(callerCtx, cancel)

	httpReq, err := http.NewRequestWithContext(reqCtx, req.Method, req.URL.String(), bytes.NewReader(req.Body))
	if err != nil {
		stop()
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}
	for name, values := range req.Header {
		httpReq.Header[name] = append([]string(nil), values...)
	}
	if host := req.Header.Get("Host"); host != "" {
		httpReq.Host = host
	}

	resp, err := c.httpClient.Do(httpReq)
	if !stop() {
		// callerCtx ended while the request was in flight
		if err == nil {
			_ = resp.Body.Close()
		}
		cancel()
		return nil, callerCtx.Err()
	}
	if err != nil {
		cancel()
		return nil, err
	}

	c.log.Debug("Response received", logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldURI, req.URL.Redacted(),
		logger.FieldStatus, resp.StatusCode,
	))

	return &Response{
		StatusCode:    resp.StatusCode,
		Proto:         resp.Proto,
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
		Body:          newBody(c.exec, resp.Body, c.config.FrameSize, c.config.FrameBuffer, cancel),
	}, nil
}

// Release gives up a response body. With keep-alive the remainder is
// drained in the background so the connection can be reused; otherwise
// the body is closed immediately.
func (c *Client) Release(body *Body) {
	if body == nil {
		return
	}
	if c.config.KeepAlive && c.config.MaxDrain > 0 {
		if err := body.Drain(c.config.MaxDrain); err == nil {
			return
		}
	}
	_ = body.Close()
}

// CloseIdleConnections closes transport connections not in use.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}
