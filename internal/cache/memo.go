package cache

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Stats reports memo usage.
type Stats struct {
	Entries  int   `json:"entries"`
	Hits     int64 `json:"hits"`
	Computes int64 `json:"computes"`
}

// Memo is a process-lifetime cache that runs the compute function at most
// once per key, even when callers race on the same key. Entries never expire.
type Memo[V any] struct {
	mu       sync.RWMutex
	entries  map[string]V
	group    singleflight.Group
	calls    atomic.Int64
	computes atomic.Int64
}

// NewMemo creates an empty memo.
func NewMemo[V any]() *Memo[V] {
	return &Memo[V]{entries: make(map[string]V)}
}

// Get returns the stored value for key, if any.
func (m *Memo[V]) Get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok
}

// GetOrCompute returns the stored value for key, computing and storing it
// first when absent. Concurrent callers for the same key share one compute.
func (m *Memo[V]) GetOrCompute(key string, compute func() V) V {
	m.calls.Add(1)
	if v, ok := m.Get(key); ok {
		return v
	}

	res, _, _ := m.group.Do(key, func() (any, error) {
		// A flight for this key may have finished between Get and Do.
		if v, ok := m.Get(key); ok {
			return v, nil
		}
		v := compute()
		m.computes.Add(1)
		m.mu.Lock()
		m.entries[key] = v
		m.mu.Unlock()
		return v, nil
	})
	return res.(V)
}

// Len returns the number of stored entries.
func (m *Memo[V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats returns a snapshot of usage counters.
func (m *Memo[V]) Stats() Stats {
	computes := m.computes.Load()
	return Stats{
		Entries:  m.Len(),
		Hits:     m.calls.Load() - computes,
		Computes: computes,
	}
}
