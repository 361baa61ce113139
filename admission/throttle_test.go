package admission

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottle_DelayCurve(t *testing.T) {
	th := NewThrottle(0.9, time.Second)
	policy := EndpointPolicy{RequestsPerMinute: 100}

	tests := []struct {
		name  string
		count int64
		want  time.Duration
	}{
		{"idle", 10, 0},
		{"just below threshold", 89, 0},
		{"at threshold", 90, 0},
		{"halfway through the band", 95, 500 * time.Millisecond},
		{"at the limit", 100, time.Second},
		{"past the limit clamps", 150, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := th.Delay(map[Dimension]int64{DimRequestsMinute: tt.count}, policy)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestThrottle_WorstDimensionDrivesDelay(t *testing.T) {
	th := NewThrottle(0.9, time.Second)
	policy := EndpointPolicy{RequestsPerMinute: 100, BytesPerMinute: 1000}

	counts := map[Dimension]int64{
		DimRequestsMinute: 10,  // 10% used
		DimBytesMinute:    950, // 95% used
	}
	assert.Equal(t, 500*time.Millisecond, th.Delay(counts, policy))
}

func TestThrottle_Defaults(t *testing.T) {
	th := NewThrottle(0, 0)
	policy := EndpointPolicy{RequestsPerMinute: 10}

	assert.Equal(t, time.Duration(0), th.Delay(map[Dimension]int64{DimRequestsMinute: 8}, policy))
	assert.Equal(t, time.Second, th.Delay(map[Dimension]int64{DimRequestsMinute: 10}, policy))
}

func TestThrottle_EmptyPolicyNoDelay(t *testing.T) {
	th := NewThrottle(0.9, time.Second)
	assert.Equal(t, time.Duration(0), th.Delay(map[Dimension]int64{DimRequestsMinute: 1 << 30}, EndpointPolicy{}))
}

func TestSleep(t *testing.T) {
	t.Run("zero delay returns immediately", func(t *testing.T) {
		start := time.Now()
		require.NoError(t, Sleep(context.Background(), 0))
		assert.Less(t, time.Since(start), 10*time.Millisecond)
	})

	t.Run("waits the full delay", func(t *testing.T) {
		start := time.Now()
		require.NoError(t, Sleep(context.Background(), 30*time.Millisecond))
		assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	})

	t.Run("cancellation cuts the delay short", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := Sleep(ctx, time.Second)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})
}
