// Package telemetry owns the OpenTelemetry meter provider used to export
// admission metrics.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Manager owns the meter provider lifecycle. A disabled manager is a no-op
// so callers never branch on telemetry being configured.
type Manager struct {
	meterProvider *sdkmetric.MeterProvider
	enabled       bool
}

// NewManager creates the meter provider and installs it as the global
// provider. Returns a no-op manager when telemetry is disabled.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	if !cfg.Enabled {
		return &Manager{}, nil
	}

	exporter, err := newExporter(ctx, cfg.Exporter)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create telemetry resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(
				exporter,
				sdkmetric.WithInterval(cfg.ExportInterval),
				sdkmetric.WithTimeout(cfg.ExportTimeout),
			),
		),
	)
	otel.SetMeterProvider(mp)

	return &Manager{
		meterProvider: mp,
		enabled:       true,
	}, nil
}

func newExporter(ctx context.Context, cfg ExporterConfig) (sdkmetric.Exporter, error) {
	switch cfg.Type {
	case "otlp":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithTimeout(cfg.Timeout),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		if len(cfg.Headers) > 0 {
			opts = append(opts, otlpmetricgrpc.WithHeaders(cfg.Headers))
		}

		exporter, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create otlp metrics exporter: %w", err)
		}
		return exporter, nil

	case "stdout":
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("create stdout metrics exporter: %w", err)
		}
		return exporter, nil

	default:
		return nil, fmt.Errorf("unsupported exporter type: %s", cfg.Type)
	}
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	}
	for key, value := range cfg.ResourceAttrs {
		attrs = append(attrs, attribute.String(key, os.ExpandEnv(value)))
	}

	return resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
}

// Meter returns a named meter from the installed provider.
func (m *Manager) Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// IsEnabled reports whether metrics export is active.
func (m *Manager) IsEnabled() bool {
	return m.enabled
}

// Shutdown flushes pending exports and stops the provider.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.meterProvider == nil {
		return nil
	}
	return m.meterProvider.Shutdown(ctx)
}
