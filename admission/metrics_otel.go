package admission

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OTelMetrics exposes guard metrics through OpenTelemetry instruments.
type OTelMetrics struct {
	config     OTelMetricsConfig
	meter      metric.Meter
	registered bool
	mu         sync.RWMutex

	requestsTotal  metric.Int64Counter
	admittedTotal  metric.Int64Counter
	blockedTotal   metric.Int64Counter
	throttledTotal metric.Int64Counter
	degradedTotal  metric.Int64Counter
	slowdownMs     metric.Float64Histogram
}

// OTelMetricsConfig holds configuration for admission metrics.
type OTelMetricsConfig struct {
	Enabled        bool
	RecordSlowdown bool
}

// NewOTelMetrics creates an OTel metrics provider for the guard.
func NewOTelMetrics(cfg OTelMetricsConfig) *OTelMetrics {
	return &OTelMetrics{config: cfg}
}

// MetricsName returns the metrics group name.
func (m *OTelMetrics) MetricsName() string {
	return "admission"
}

// IsMetricsEnabled returns whether metrics collection is enabled.
func (m *OTelMetrics) IsMetricsEnabled() bool {
	return m.config.Enabled
}

// RegisterMetrics registers all admission instruments with the Meter.
func (m *OTelMetrics) RegisterMetrics(meter metric.Meter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	m.meter = meter
	var err error

	m.requestsTotal, err = meter.Int64Counter(
		"admission_requests_total",
		metric.WithDescription("Total number of admission decisions"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	m.admittedTotal, err = meter.Int64Counter(
		"admission_admitted_total",
		metric.WithDescription("Total number of admitted requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	m.blockedTotal, err = meter.Int64Counter(
		"admission_blocked_total",
		metric.WithDescription("Total number of blocked requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	m.throttledTotal, err = meter.Int64Counter(
		"admission_throttled_total",
		metric.WithDescription("Total number of artificially delayed requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	m.degradedTotal, err = meter.Int64Counter(
		"admission_store_degraded_total",
		metric.WithDescription("Total number of fail-open decisions due to store errors"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	if m.config.RecordSlowdown {
		m.slowdownMs, err = meter.Float64Histogram(
			"admission_slowdown_ms",
			metric.WithDescription("Applied progressive slowdown"),
			metric.WithUnit("ms"),
		)
		if err != nil {
			return err
		}
	}

	m.registered = true
	return nil
}

// RecordAdmitted records an admitted request.
func (m *OTelMetrics) RecordAdmitted(ctx context.Context, endpoint string) {
	if !m.IsRegistered() {
		return
	}

	attrs := metric.WithAttributes(attribute.String("endpoint", endpoint))
	m.requestsTotal.Add(ctx, 1, attrs)
	m.admittedTotal.Add(ctx, 1, attrs)
}

// RecordBlocked records a blocked request.
func (m *OTelMetrics) RecordBlocked(ctx context.Context, endpoint, reason string) {
	if !m.IsRegistered() {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("reason", reason),
	)
	m.requestsTotal.Add(ctx, 1, attrs)
	m.blockedTotal.Add(ctx, 1, attrs)
}

// RecordThrottled records an applied slowdown in milliseconds.
func (m *OTelMetrics) RecordThrottled(ctx context.Context, endpoint string, delayMs float64) {
	if !m.IsRegistered() {
		return
	}

	attrs := metric.WithAttributes(attribute.String("endpoint", endpoint))
	m.throttledTotal.Add(ctx, 1, attrs)
	if m.slowdownMs != nil {
		m.slowdownMs.Record(ctx, delayMs, attrs)
	}
}

// RecordDegraded records a fail-open decision.
func (m *OTelMetrics) RecordDegraded(ctx context.Context, endpoint string) {
	if !m.IsRegistered() {
		return
	}

	m.degradedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// IsRegistered returns whether instruments have been registered.
func (m *OTelMetrics) IsRegistered() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.registered
}
