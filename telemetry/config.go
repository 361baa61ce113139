package telemetry

import (
	"fmt"
	"time"
)

// Config OpenTelemetry metrics export configuration.
type Config struct {
	// Enabled whether metrics export is active
	Enabled bool `mapstructure:"enabled"`

	// ServiceName reported in the resource attributes
	ServiceName string `mapstructure:"service_name"`

	// ServiceVersion reported in the resource attributes
	ServiceVersion string `mapstructure:"service_version"`

	// Exporter settings
	Exporter ExporterConfig `mapstructure:"exporter"`

	// ExportInterval periodic reader interval (default 60s)
	ExportInterval time.Duration `mapstructure:"export_interval"`

	// ExportTimeout per-export timeout (default 30s)
	ExportTimeout time.Duration `mapstructure:"export_timeout"`

	// ResourceAttrs extra resource attributes
	ResourceAttrs map[string]string `mapstructure:"resource_attrs"`
}

// ExporterConfig selects and configures the metrics exporter.
type ExporterConfig struct {
	// Type exporter type: otlp, stdout
	Type string `mapstructure:"type"`

	// Endpoint OTLP gRPC endpoint (host:port)
	Endpoint string `mapstructure:"endpoint"`

	// Insecure disables TLS for the OTLP connection
	Insecure bool `mapstructure:"insecure"`

	// Headers extra OTLP headers, typically for authentication
	Headers map[string]string `mapstructure:"headers"`

	// Timeout OTLP export timeout (default 10s)
	Timeout time.Duration `mapstructure:"timeout"`
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "quotaflow"
	}
	if c.Exporter.Type == "" {
		c.Exporter.Type = "stdout"
	}
	if c.Exporter.Timeout <= 0 {
		c.Exporter.Timeout = 10 * time.Second
	}
	if c.ExportInterval <= 0 {
		c.ExportInterval = 60 * time.Second
	}
	if c.ExportTimeout <= 0 {
		c.ExportTimeout = 30 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	c.ApplyDefaults()

	switch c.Exporter.Type {
	case "otlp":
		if c.Exporter.Endpoint == "" {
			return fmt.Errorf("exporter endpoint is required for otlp")
		}
	case "stdout":
	default:
		return fmt.Errorf("unsupported exporter type: %s", c.Exporter.Type)
	}

	return nil
}
