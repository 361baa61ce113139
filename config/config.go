// Package config loads the application configuration from a YAML file with
// environment-variable overrides (prefix QUOTAFLOW, dots become underscores).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/quotaflow/quotaflow/admission"
	"github.com/quotaflow/quotaflow/logger"
	"github.com/quotaflow/quotaflow/redis"
	"github.com/quotaflow/quotaflow/telemetry"
)

// AppConfig is the top-level application configuration.
type AppConfig struct {
	App       AppInfo              `mapstructure:"app"`
	Logger    logger.ManagerConfig `mapstructure:"logger"`
	Redis     redis.Config         `mapstructure:"redis"`
	Admission admission.Config     `mapstructure:"admission"`
	Telemetry telemetry.Config     `mapstructure:"telemetry"`
}

// AppInfo identifies the application.
type AppInfo struct {
	Name string `mapstructure:"name"`
	Addr string `mapstructure:"addr"`
}

// Load reads the configuration file, applies environment overrides and
// unmarshals into the typed configuration. A missing file is not an error;
// defaults and environment variables still apply.
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	v.SetEnvPrefix("QUOTAFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("access config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills zero-valued fields across all sections.
func (c *AppConfig) ApplyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "quotaflow"
	}
	if c.App.Addr == "" {
		c.App.Addr = ":8080"
	}
	c.Logger.ApplyDefaults()
	c.Admission.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}
