package server

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/kbukum/nativesvc/server/middleware"
	"github.com/kbukum/nativesvc/validation"
)

// Config configures the echo server. Timeouts decode from duration
// strings such as "15s".
type Config struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`

	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`

	// MaxBodySize caps request bodies, e.g. "10MB".
	MaxBodySize string `yaml:"max_body_size" mapstructure:"max_body_size"`
	// MaxStreamN caps n for /bytes/{n} and /stream-bytes/{n}.
	MaxStreamN int `yaml:"max_stream_n" mapstructure:"max_stream_n" validate:"gte=0"`

	CORS middleware.CORSConfig `yaml:"cors" mapstructure:"cors"`
}

const (
	defaultPort       = 8080
	defaultMaxStreamN = 100 << 20
)

// ApplyDefaults fills unset fields. The write timeout is generous so
// slow /drip and /stream-bytes responses finish.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = time.Minute
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = time.Minute
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "10MB"
	}
	if c.MaxStreamN == 0 {
		c.MaxStreamN = defaultMaxStreamN
	}
	c.CORS.ApplyDefaults()
}

// Validate checks field rules and that MaxBodySize parses.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if c.MaxBodySize != "" && middleware.ParseSize(c.MaxBodySize, -1) < 0 {
		return fmt.Errorf("max_body_size: cannot parse %q", c.MaxBodySize)
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
