package admission

import (
	"context"
	"time"
)

// Throttle computes the progressive slowdown applied between the warning
// zone and hard rejection.
type Throttle struct {
	threshold float64
	baseDelay time.Duration
}

// NewThrottle creates a throttle. threshold defaults to 0.9 and baseDelay
// to 1s when zero.
func NewThrottle(threshold float64, baseDelay time.Duration) *Throttle {
	if threshold <= 0 {
		threshold = 0.9
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Throttle{
		threshold: threshold,
		baseDelay: baseDelay,
	}
}

// Delay returns the artificial delay for the given post-increment counts.
// usage is the maximum count/limit ratio over configured dimensions; below
// the threshold the delay is zero, above it the delay grows linearly up to
// baseDelay at full budget.
func (t *Throttle) Delay(counts map[Dimension]int64, policy EndpointPolicy) time.Duration {
	var usage float64
	for _, dim := range policy.Dimensions() {
		limit := policy.Limit(dim)
		if limit <= 0 {
			continue
		}
		ratio := float64(counts[dim]) / float64(limit)
		if ratio > usage {
			usage = ratio
		}
	}

	if usage < t.threshold {
		return 0
	}

	delay := time.Duration(float64(t.baseDelay) * (usage - t.threshold) / (1 - t.threshold))
	if delay < 0 {
		delay = 0
	}
	if delay > t.baseDelay {
		delay = t.baseDelay
	}
	return delay
}

// Sleep suspends only the calling request for d. It returns early with the
// context error when the request is cancelled mid-delay, releasing the
// timer instead of leaking it.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
