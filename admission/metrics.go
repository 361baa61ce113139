package admission

import (
	"sync"
	"sync/atomic"
	"time"
)

// MetricsSnapshot point-in-time view of the guard counters.
type MetricsSnapshot struct {
	Admitted      int64
	Blocked       int64
	Throttled     int64
	Degraded      int64
	TotalRequests int64
	BlockRate     float64
	TotalDelay    time.Duration
	LastResetAt   time.Time
}

// MetricsCollector collects guard metrics.
type MetricsCollector interface {
	RecordAdmitted()
	RecordBlocked(reason string)
	RecordThrottled(delay time.Duration)
	RecordDegraded()
	GetSnapshot() *MetricsSnapshot
	Reset()
}

type metricsCollector struct {
	admitted    int64
	blocked     int64
	throttled   int64
	degraded    int64
	delayNanos  int64
	lastResetAt time.Time
	mu          sync.RWMutex
}

// NewMetricsCollector creates an in-process metrics collector.
func NewMetricsCollector() MetricsCollector {
	return &metricsCollector{
		lastResetAt: time.Now(),
	}
}

func (m *metricsCollector) RecordAdmitted() {
	atomic.AddInt64(&m.admitted, 1)
}

func (m *metricsCollector) RecordBlocked(reason string) {
	atomic.AddInt64(&m.blocked, 1)
}

func (m *metricsCollector) RecordThrottled(delay time.Duration) {
	atomic.AddInt64(&m.throttled, 1)
	atomic.AddInt64(&m.delayNanos, int64(delay))
}

func (m *metricsCollector) RecordDegraded() {
	atomic.AddInt64(&m.degraded, 1)
}

func (m *metricsCollector) GetSnapshot() *MetricsSnapshot {
	admitted := atomic.LoadInt64(&m.admitted)
	blocked := atomic.LoadInt64(&m.blocked)
	throttled := atomic.LoadInt64(&m.throttled)
	degraded := atomic.LoadInt64(&m.degraded)
	delay := atomic.LoadInt64(&m.delayNanos)

	total := admitted + blocked
	var blockRate float64
	if total > 0 {
		blockRate = float64(blocked) / float64(total)
	}

	m.mu.RLock()
	lastResetAt := m.lastResetAt
	m.mu.RUnlock()

	return &MetricsSnapshot{
		Admitted:      admitted,
		Blocked:       blocked,
		Throttled:     throttled,
		Degraded:      degraded,
		TotalRequests: total,
		BlockRate:     blockRate,
		TotalDelay:    time.Duration(delay),
		LastResetAt:   lastResetAt,
	}
}

func (m *metricsCollector) Reset() {
	atomic.StoreInt64(&m.admitted, 0)
	atomic.StoreInt64(&m.blocked, 0)
	atomic.StoreInt64(&m.throttled, 0)
	atomic.StoreInt64(&m.degraded, 0)
	atomic.StoreInt64(&m.delayNanos, 0)

	m.mu.Lock()
	m.lastResetAt = time.Now()
	m.mu.Unlock()
}
