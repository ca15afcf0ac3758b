package server

import (
	"context"
	"fmt"

	"github.com/kbukum/nativesvc/component"
)

const componentName = "echo-server"

var (
	_ component.Component     = (*Component)(nil)
	_ component.Describable   = (*Component)(nil)
	_ component.RouteProvider = (*Component)(nil)
)

// Component wraps Server for the component registry.
type Component struct {
	server *Server
}

// NewComponent returns a registry component backed by s.
func NewComponent(s *Server) *Component {
	return &Component{server: s}
}

// Name returns the component name used for registration.
func (sc *Component) Name() string { return componentName }

// Start binds the listener and begins serving.
func (sc *Component) Start(ctx context.Context) error {
	return sc.server.Start(ctx)
}

// Stop gracefully shuts down the server.
func (sc *Component) Stop(ctx context.Context) error {
	return sc.server.Stop(ctx)
}

// Health reports healthy while the listener is bound.
func (sc *Component) Health(_ context.Context) component.Health {
	if sc.server.Running() {
		return component.Healthy(componentName)
	}
	return component.Unhealthy(componentName, "echo server not listening")
}

// Describe returns the startup summary line for the server.
func (sc *Component) Describe() component.Description {
	cfg := sc.server.config
	return component.Description{
		Name:    "Echo Server",
		Type:    "server",
		Details: fmt.Sprintf("%s h2c max_body=%s", sc.server.Addr(), cfg.MaxBodySize),
	}
}

// Routes returns the registered routes, echo routes first.
func (sc *Component) Routes() []component.Route {
	return sc.server.Routes()
}
