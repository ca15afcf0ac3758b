package executor

import (
	"fmt"
	"time"
)

const (
	defaultMaxTasks        = 64
	defaultShutdownTimeout = 5 * time.Second
)

// Config configures an Executor.
type Config struct {
	// Name identifies the executor in logs.
	Name string `yaml:"name" mapstructure:"name"`

	// MaxTasks bounds how many tasks run at once. Defaults to 64.
	MaxTasks int `yaml:"max_tasks" mapstructure:"max_tasks"`

	// ShutdownTimeout bounds how long Close waits for running tasks
	// when the caller's context has no deadline. Defaults to 5s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`

	// OnTaskError receives failures of spawned background tasks.
	// Nil logs them at error level.
	OnTaskError func(task string, err error) `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "executor"
	}
	if c.MaxTasks == 0 {
		c.MaxTasks = defaultMaxTasks
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxTasks < 0 {
		return fmt.Errorf("executor: max_tasks must be positive (got: %d)", c.MaxTasks)
	}
	if c.ShutdownTimeout < 0 {
		return fmt.Errorf("executor: shutdown_timeout must be non-negative (got: %s)", c.ShutdownTimeout)
	}
	return nil
}
