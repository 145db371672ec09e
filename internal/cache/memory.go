package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	count     int64
	expiresAt time.Time
}

// MemoryStore is an in-process Store implementation. It backs the session
// cache and rate limiter when no external cache is configured.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// NewMemoryStoreWithClock creates a store with an injected clock for tests.
func NewMemoryStoreWithClock(clock func() time.Time) *MemoryStore {
	store := NewMemoryStore()
	if clock != nil {
		store.now = clock
	}
	return store
}

// IncrementWithTTL increments the counter stored at key, starting a new window
// when the previous one has elapsed. It returns the updated count and the time
// remaining in the current window.
func (s *MemoryStore) IncrementWithTTL(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		window = time.Second
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.entries[key]
	if !ok || !entry.expiresAt.After(now) {
		entry = &memoryEntry{expiresAt: now.Add(window)}
		s.entries[key] = entry
	}

	entry.count++
	return entry.count, entry.expiresAt.Sub(now), nil
}

// Set stores a value under key for the provided TTL.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Second
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(value))
	copy(buf, value)
	s.entries[key] = &memoryEntry{value: buf, expiresAt: s.now().Add(ttl)}
	return nil
}

// Get returns the value stored at key, reporting whether it was present and unexpired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.After(s.now()) {
		delete(s.entries, key)
		return nil, false, nil
	}

	buf := make([]byte, len(entry.value))
	copy(buf, entry.value)
	return buf, true, nil
}

// Delete removes the provided keys.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

// Sweep drops every expired entry. Called periodically by the maintenance cleaner.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if !entry.expiresAt.After(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}
