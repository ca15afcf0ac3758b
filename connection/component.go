package connection

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/nativesvc/component"
)

// Component manages an HTTPConnection inside a component.Registry. The
// bridge is built on Start and closed on Stop.
type Component struct {
	*component.BaseLazyComponent

	config Config
	opts   []Option

	mu   sync.RWMutex
	conn *HTTPConnection
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a bridge component from cfg.
func NewComponent(cfg Config, opts ...Option) *Component {
	cfg.ApplyDefaults()
	c := &Component{config: cfg, opts: opts}
	c.BaseLazyComponent = component.NewBaseLazyComponent(cfg.Name, c.init).
		WithHealthCheck(c.check).
		WithCloser(c.close)
	return c
}

func (c *Component) init(_ context.Context) error {
	conn, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

func (c *Component) check(_ context.Context) error {
	conn := c.Connection()
	if conn == nil || conn.IsClosed() {
		return fmt.Errorf("bridge %s is closed", c.config.Name)
	}
	return nil
}

func (c *Component) close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Start builds the bridge.
func (c *Component) Start(ctx context.Context) error {
	return c.Initialize(ctx)
}

// Stop closes the bridge.
func (c *Component) Stop(_ context.Context) error {
	return c.Close()
}

// Health reports unhealthy before Start or after Stop, and degraded once
// background tasks have failed.
func (c *Component) Health(ctx context.Context) component.Health {
	if err := c.HealthCheck(ctx); err != nil {
		return component.Unhealthy(c.Name(), err.Error())
	}
	conn := c.Connection()
	if conn == nil {
		return component.Unhealthy(c.Name(), "not started")
	}
	if failed := conn.exec.Failed(); failed > 0 {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusDegraded,
			Message: fmt.Sprintf("%d background tasks failed", failed),
		}
	}
	return component.Healthy(c.Name())
}

// Describe returns summary information for the startup display.
func (c *Component) Describe() component.Description {
	cc := c.config.Client
	return component.Description{
		Name: "HTTP Bridge",
		Type: "http-bridge",
		Details: fmt.Sprintf("body=%s keep_alive=%t http2=%t h2c=%t",
			c.config.BodyMode, cc.KeepAlive, cc.HTTP2, cc.H2C),
	}
}

// Connection returns the running bridge, or nil before Start.
func (c *Component) Connection() *HTTPConnection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}
