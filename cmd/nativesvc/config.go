package main

import (
	"fmt"

	"github.com/kbukum/nativesvc/config"
	"github.com/kbukum/nativesvc/connection"
	"github.com/kbukum/nativesvc/observability"
	"github.com/kbukum/nativesvc/server"
	"github.com/kbukum/nativesvc/validation"
	"github.com/kbukum/nativesvc/version"
)

const serviceName = "nativesvc"

// Config is the full nativesvc configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Connection    connection.Config    `yaml:"connection" mapstructure:"connection"`
	Server        server.Config        `yaml:"server" mapstructure:"server"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills every section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Connection.Headers == nil {
		c.Connection.Headers = map[string]string{}
	}
	if _, ok := c.Connection.Headers["User-Agent"]; !ok {
		c.Connection.Headers["User-Agent"] = version.UserAgent()
	}
	c.Connection.ApplyDefaults()
	c.Server.ApplyDefaults()
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Connection.Validate(); err != nil {
		return fmt.Errorf("config.connection: %w", err)
	}
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("config.server: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("config.observability: %w", err)
	}
	return nil
}

// loadConfig reads the configuration, from path when given.
func loadConfig(path string) (*Config, error) {
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	return config.Load[Config](serviceName, opts...)
}
