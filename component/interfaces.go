package component

import "context"

// HealthStatus is a component's self-reported state.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Serving reports whether a component in this state still takes work.
// Degraded counts as serving.
func (s HealthStatus) Serving() bool {
	return s == StatusHealthy || s == StatusDegraded
}

// Health is one entry of the /health component list.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Healthy returns a healthy entry for name.
func Healthy(name string) Health {
	return Health{Name: name, Status: StatusHealthy}
}

// Unhealthy returns an unhealthy entry for name with the reason.
func Unhealthy(name, reason string) Health {
	return Health{Name: name, Status: StatusUnhealthy, Message: reason}
}

// Lifecycle is what the Registry drives. Start may return once the
// component is ready; background work keeps running until Stop.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Component is a named Lifecycle that can report its health: the HTTP
// bridge and the echo server.
type Component interface {
	Lifecycle
	// Name keys the component in the Registry and must be unique there.
	Name() string
	Health(ctx context.Context) Health
}

// Description is one line of the startup summary.
type Description struct {
	// Name defaults to the component's Name().
	Name string
	// Type is a short kind such as "http-bridge" or "server".
	Type string
	// Details is free text, e.g. "body=streamed keep_alive=true".
	Details string
}

// Describable components appear in Registry.Describe.
type Describable interface {
	Describe() Description
}

// Route is one served method and path.
type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider components contribute to Registry.Routes.
type RouteProvider interface {
	Routes() []Route
}
