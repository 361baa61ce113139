package redis

import (
	"fmt"
	"time"
)

// Config Redis connection settings.
type Config struct {
	// Addr host:port
	Addr string `mapstructure:"addr"`

	// Password (optional)
	Password string `mapstructure:"password"`

	// DB database number (0-15)
	DB int `mapstructure:"db"`

	// PoolSize connection pool size (default 10)
	PoolSize int `mapstructure:"pool_size"`

	// MinIdleConns minimum idle connections (default 5)
	MinIdleConns int `mapstructure:"min_idle_conns"`

	// MaxRetries maximum retries (default 3)
	MaxRetries int `mapstructure:"max_retries"`

	// DialTimeout connection timeout (default 5s)
	DialTimeout time.Duration `mapstructure:"dial_timeout"`

	// ReadTimeout read timeout (default 3s)
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout write timeout (default 3s)
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.PoolSize <= 0 {
		c.PoolSize = 10
	}
	if c.MinIdleConns <= 0 {
		c.MinIdleConns = 5
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 3 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 3 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}
	if c.DB < 0 || c.DB > 15 {
		return fmt.Errorf("db must be between 0 and 15, got: %d", c.DB)
	}
	return nil
}
