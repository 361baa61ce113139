package admission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMetricsCollector(t *testing.T) {
	collector := NewMetricsCollector()

	for i := 0; i < 8; i++ {
		collector.RecordAdmitted()
	}
	collector.RecordBlocked("minute limit exceeded")
	collector.RecordBlocked("bytes-minute limit exceeded")
	collector.RecordThrottled(100 * time.Millisecond)
	collector.RecordThrottled(200 * time.Millisecond)
	collector.RecordDegraded()

	snapshot := collector.GetSnapshot()
	assert.EqualValues(t, 8, snapshot.Admitted)
	assert.EqualValues(t, 2, snapshot.Blocked)
	assert.EqualValues(t, 2, snapshot.Throttled)
	assert.EqualValues(t, 1, snapshot.Degraded)
	assert.EqualValues(t, 10, snapshot.TotalRequests)
	assert.InDelta(t, 0.2, snapshot.BlockRate, 0.001)
	assert.Equal(t, 300*time.Millisecond, snapshot.TotalDelay)
}

func TestMetricsCollector_Reset(t *testing.T) {
	collector := NewMetricsCollector()
	collector.RecordAdmitted()
	collector.RecordBlocked("minute limit exceeded")

	before := collector.GetSnapshot().LastResetAt
	time.Sleep(time.Millisecond)
	collector.Reset()

	snapshot := collector.GetSnapshot()
	assert.Zero(t, snapshot.Admitted)
	assert.Zero(t, snapshot.Blocked)
	assert.Zero(t, snapshot.TotalRequests)
	assert.True(t, snapshot.LastResetAt.After(before))
}

func TestMetricsCollector_Concurrent(t *testing.T) {
	collector := NewMetricsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.RecordAdmitted()
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 2000, collector.GetSnapshot().Admitted)
}

func TestOTelMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m := NewOTelMetrics(OTelMetricsConfig{Enabled: true, RecordSlowdown: true})
	assert.False(t, m.IsRegistered())
	require.NoError(t, m.RegisterMetrics(provider.Meter("test")))
	assert.True(t, m.IsRegistered())

	ctx := context.Background()
	m.RecordAdmitted(ctx, "/upload")
	m.RecordAdmitted(ctx, "/upload")
	m.RecordBlocked(ctx, "/upload", "minute limit exceeded")
	m.RecordThrottled(ctx, "/upload", 150)
	m.RecordDegraded(ctx, "/upload")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	sums := make(map[string]int64)
	for _, metrics := range rm.ScopeMetrics[0].Metrics {
		if sum, ok := metrics.Data.(metricdata.Sum[int64]); ok {
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			sums[metrics.Name] = total
		}
	}

	assert.EqualValues(t, 3, sums["admission_requests_total"])
	assert.EqualValues(t, 2, sums["admission_admitted_total"])
	assert.EqualValues(t, 1, sums["admission_blocked_total"])
	assert.EqualValues(t, 1, sums["admission_throttled_total"])
	assert.EqualValues(t, 1, sums["admission_store_degraded_total"])
}

func TestOTelMetrics_UnregisteredIsNoop(t *testing.T) {
	m := NewOTelMetrics(OTelMetricsConfig{Enabled: true})
	ctx := context.Background()

	// must not panic on nil instruments
	m.RecordAdmitted(ctx, "/upload")
	m.RecordBlocked(ctx, "/upload", "minute limit exceeded")
	m.RecordThrottled(ctx, "/upload", 10)
	m.RecordDegraded(ctx, "/upload")
}
