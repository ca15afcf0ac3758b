package asynchttp

import (
	"fmt"
	"time"
)

const (
	defaultFrameSize   = 16 * 1024
	defaultFrameBuffer = 4
	defaultMaxDrain    = 256 * 1024
	defaultDialTimeout = 30 * time.Second
)

// Config configures the async HTTP client.
type Config struct {
	// KeepAlive reuses transport connections across requests. When false
	// every request dials a fresh connection.
	KeepAlive bool `yaml:"keep_alive" mapstructure:"keep_alive"`

	// HTTP2 enables HTTP/2 over TLS via ALPN.
	HTTP2 bool `yaml:"http2" mapstructure:"http2"`

	// H2C speaks cleartext HTTP/2 with prior knowledge. Only http:// URIs
	// can be used in this mode.
	H2C bool `yaml:"h2c" mapstructure:"h2c"`

	// FollowRedirects lets the transport follow 3xx responses. Off by
	// default so callers see the redirect itself.
	FollowRedirects bool `yaml:"follow_redirects" mapstructure:"follow_redirects"`

	// DialTimeout bounds TCP connection establishment. Defaults to 30s.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// FrameSize is the largest chunk a body frame carries. Defaults to 16KiB.
	FrameSize int `yaml:"frame_size" mapstructure:"frame_size"`

	// FrameBuffer is how many frames the body pump may read ahead. Defaults to 4.
	FrameBuffer int `yaml:"frame_buffer" mapstructure:"frame_buffer"`

	// MaxDrain caps how many unread body bytes are discarded in the
	// background to return a keep-alive connection to the pool. Larger
	// remainders close the connection instead. Defaults to 256KiB.
	MaxDrain int64 `yaml:"max_drain" mapstructure:"max_drain"`

	// TLS configures certificate verification and client certificates.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	if c.FrameSize <= 0 {
		c.FrameSize = defaultFrameSize
	}
	if c.FrameBuffer <= 0 {
		c.FrameBuffer = defaultFrameBuffer
	}
	if c.MaxDrain == 0 {
		c.MaxDrain = defaultMaxDrain
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.FrameSize <= 0 {
		return fmt.Errorf("asynchttp: frame_size must be positive")
	}
	if c.FrameBuffer <= 0 {
		return fmt.Errorf("asynchttp: frame_buffer must be positive")
	}
	if c.MaxDrain < 0 {
		return fmt.Errorf("asynchttp: max_drain must be non-negative")
	}
	if c.H2C && c.TLS.IsEnabled() {
		return fmt.Errorf("asynchttp: h2c cannot be combined with tls settings")
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}
