package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	count   int64
	expires time.Time
}

// MemoryStore keeps counters in process memory. It is used when no shared
// store is configured, so limits are per instance.
type MemoryStore struct {
	mu       sync.Mutex
	entries  map[string]*memoryEntry
	now      func() time.Time
	lastScan time.Time
}

// NewMemoryStore constructs an empty store. A nil clock uses time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{entries: make(map[string]*memoryEntry), now: now}
}

// Incr increments key, starting a new counter when the previous one expired.
func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	entry, ok := s.entries[key]
	if !ok || !now.Before(entry.expires) {
		entry = &memoryEntry{expires: now.Add(ttl)}
		s.entries[key] = entry
	}
	entry.count++
	return entry.count, nil
}

// sweep drops expired counters at most once a minute.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastScan) < time.Minute {
		return
	}
	s.lastScan = now
	for key, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, key)
		}
	}
}

// Len reports the number of live counters.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
