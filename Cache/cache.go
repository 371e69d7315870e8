package Cache

import (
	"strings"
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Store is a TTL cache for read projections. It is created once and
// injected into the lifecycle components rather than living as package
// state, so tests can pin Now and drive expiry deterministically.
type Store struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry

	// Now is the clock used for expiry checks. Overridable in tests.
	Now func() time.Time
}

func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		entries: make(map[string]entry),
		Now:     time.Now,
	}
}

// Get returns the cached value for key if it has not expired.
func (s *Store) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

func (s *Store) Set(key string, value interface{}) {
	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: s.Now().Add(s.ttl)}
	s.mu.Unlock()
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// DeletePrefix drops every key under prefix. Mutating operations use
// this to invalidate a whole (site, day) before they return.
func (s *Store) DeletePrefix(prefix string) {
	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

// Purge removes expired entries and reports how many were dropped.
func (s *Store) Purge() int {
	now := s.Now()
	removed := 0
	s.mu.Lock()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	s.mu.Unlock()
	return removed
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
