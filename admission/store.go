package admission

import (
	"context"
	"time"
)

// CounterStore is the atomic get / increment-with-expiry primitive backing
// the fixed-window counters (Strategy Pattern).
//
// IncrBy must be a single atomic operation: concurrent increments on the
// same key are linearizable and no update is lost. The TTL is applied only
// when the increment creates the key; it is never refreshed on an existing
// key, which gives fixed-window semantics.
type CounterStore interface {
	// Get returns the current counter value, 0 when absent or expired.
	Get(ctx context.Context, key string) (int64, error)

	// IncrBy atomically adds amount and returns the new total. A key
	// created by the increment expires at now + ttl.
	IncrBy(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error)

	// Del removes counters (used by Reset and tests).
	Del(ctx context.Context, keys ...string) error

	// Close releases store resources.
	Close() error
}

// StoreType storage type
type StoreType string

const (
	// StoreTypeMemory in-process storage
	StoreTypeMemory StoreType = "memory"

	// StoreTypeRedis shared Redis storage
	StoreTypeRedis StoreType = "redis"
)
