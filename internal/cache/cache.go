// Package cache provides an in-memory keyed cache with a freshness window.
// Concurrent loads of the same missing key are coalesced into one call.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the freshness window used when none is configured.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is a TTL cache safe for concurrent use. A Store with a TTL <= 0 is
// disabled: it stores nothing and every Do calls through.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Enabled bool  `json:"enabled"`
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// New creates a store whose entries stay fresh for ttl.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Enabled reports whether the store keeps anything.
func (s *Store) Enabled() bool {
	return s != nil && s.ttl > 0
}

// Get returns the fresh value stored under key.
func (s *Store) Get(key string) (any, bool) {
	if !s.Enabled() {
		return nil, false
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for one TTL.
func (s *Store) Set(key string, value any) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	s.entries[key] = entry{value: value, expiresAt: s.now().Add(s.ttl)}
	s.mu.Unlock()
}

// Delete removes key.
func (s *Store) Delete(key string) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Do returns the fresh value under key, or calls load and stores its result.
// Errors are returned but never stored. Concurrent callers for the same key
// share one load; a caller whose ctx ends stops waiting without cancelling
// the load for the others.
func (s *Store) Do(ctx context.Context, key string, load func(context.Context) (any, error)) (any, error) {
	if !s.Enabled() {
		return load(ctx)
	}

	if v, ok := s.Get(key); ok {
		s.hits.Add(1)
		return v, nil
	}
	s.misses.Add(1)

	ch := s.group.DoChan(key, func() (any, error) {
		v, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.Set(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Purge drops expired entries and returns how many were removed.
func (s *Store) Purge() int {
	if !s.Enabled() {
		return 0
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Janitor purges expired entries every interval until ctx is done.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	if !s.Enabled() || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Purge()
		}
	}
}

// Stats reports the number of stored entries and the hit and miss counters.
func (s *Store) Stats() Stats {
	if !s.Enabled() {
		return Stats{}
	}
	s.mu.RLock()
	n := len(s.entries)
	s.mu.RUnlock()

	return Stats{
		Enabled: true,
		Entries: n,
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}
}
