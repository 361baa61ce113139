package admission

import (
	"context"
	"sync"
	"time"
)

// memoryStore in-process counter storage. A single mutex guards the map so
// every increment is one critical section; a periodic sweep reclaims expired
// entries instead of one timer per key, keeping memory proportional to the
// distinct keys seen in the last day.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryCounter
	stop    chan struct{}
	closed  bool
}

type memoryCounter struct {
	value    int64
	expireAt time.Time
}

// NewMemoryStore creates an in-process counter store with a 1-minute sweep.
func NewMemoryStore() CounterStore {
	return newMemoryStore(time.Minute)
}

func newMemoryStore(sweepInterval time.Duration) *memoryStore {
	store := &memoryStore{
		entries: make(map[string]*memoryCounter),
		stop:    make(chan struct{}),
	}

	go store.sweepLoop(sweepInterval)

	return store
}

// Get returns the current value, 0 when absent or expired.
func (s *memoryStore) Get(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	entry, exists := s.entries[key]
	if !exists || time.Now().After(entry.expireAt) {
		return 0, nil
	}

	return entry.value, nil
}

// IncrBy atomically adds amount. Creates the key with the given TTL; an
// existing key keeps its original expiry.
func (s *memoryStore) IncrBy(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	now := time.Now()
	entry, exists := s.entries[key]
	if !exists || now.After(entry.expireAt) {
		entry = &memoryCounter{
			value:    amount,
			expireAt: now.Add(ttl),
		}
		s.entries[key] = entry
		return entry.value, nil
	}

	entry.value += amount
	return entry.value, nil
}

// Del removes counters.
func (s *memoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	for _, key := range keys {
		delete(s.entries, key)
	}

	return nil
}

// Close stops the sweep goroutine and drops all counters.
func (s *memoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	s.entries = nil
	close(s.stop)

	return nil
}

// sweepLoop periodically removes expired counters.
func (s *memoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	now := time.Now()
	for key, entry := range s.entries {
		if now.After(entry.expireAt) {
			delete(s.entries, key)
		}
	}
}
