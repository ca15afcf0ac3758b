package connection

import (
	"fmt"

	"golang.org/x/net/http/httpguts"

	"github.com/kbukum/nativesvc/asynchttp"
	"github.com/kbukum/nativesvc/executor"
)

// BodyMode selects how response bodies reach Read.
type BodyMode string

const (
	// BodyModeBuffered collects the whole body on the first Read.
	BodyModeBuffered BodyMode = "buffered"
	// BodyModeStreamed hands out one frame at a time as it arrives.
	BodyModeStreamed BodyMode = "streamed"
)

// Config configures an HTTPConnection.
type Config struct {
	// Name identifies the bridge in logs and as a component.
	Name string `yaml:"name" mapstructure:"name"`

	// BodyMode is buffered or streamed. Defaults to buffered.
	BodyMode BodyMode `yaml:"body_mode" mapstructure:"body_mode" validate:"omitempty,oneof=buffered streamed"`

	// Headers are sent with every request unless the request sets the
	// same header itself.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Executor configures the bridge-owned runtime.
	Executor executor.Config `yaml:"executor" mapstructure:"executor"`

	// Client configures the async HTTP client.
	Client asynchttp.Config `yaml:"client" mapstructure:"client"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "http-bridge"
	}
	if c.BodyMode == "" {
		c.BodyMode = BodyModeBuffered
	}
	if c.Executor.Name == "" {
		c.Executor.Name = c.Name
	}
	c.Executor.ApplyDefaults()
	c.Client.ApplyDefaults()
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	switch c.BodyMode {
	case BodyModeBuffered, BodyModeStreamed:
	default:
		return fmt.Errorf("connection: invalid body_mode %q", c.BodyMode)
	}
	for name, value := range c.Headers {
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("connection: invalid default header name %q", name)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return fmt.Errorf("connection: invalid value for default header %q", name)
		}
	}
	if err := c.Executor.Validate(); err != nil {
		return err
	}
	return c.Client.Validate()
}
