// Package cache provides the short-lived store for computed suggestions
// and serialized scoring-model artifacts. Correctness never depends on it:
// callers treat every failure as a miss.
package cache

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store is the cache contract. Get never fails on a miss; only
// transport-level errors are surfaced, and callers treat them like misses.
type Store interface {
	// Put stores value under key for ttl. Best-effort.
	Put(ctx context.Context, key string, value any, ttl time.Duration) error

	// Get returns the value and whether it was present.
	Get(ctx context.Context, key string) (any, bool, error)

	// Delete drops a key if present.
	Delete(ctx context.Context, key string) error

	// Close releases the store's resources.
	Close() error
}

// SuggestionKey builds the cache key for an employee's suggestions.
func SuggestionKey(employeeID string) string {
	return fmt.Sprintf("suggestions:%s", employeeID)
}

// ModelKey builds the cache key for a serialized scoring-model artifact.
// Artifacts are opaque blobs: stored and retrieved, never interpreted.
func ModelKey(name string) string {
	return fmt.Sprintf("model:%s", name)
}

// MemoryStore implements Store over an in-process TTL cache.
type MemoryStore struct {
	c               *gocache.Cache
	defaultTTL      time.Duration
	cleanupInterval time.Duration
}

// NewMemoryStore creates a MemoryStore with configuration options.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		defaultTTL:      time.Hour,
		cleanupInterval: 10 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.c = gocache.New(s.defaultTTL, s.cleanupInterval)
	return s
}

// Put stores value under key for ttl. A non-positive ttl falls back to the
// store's default.
func (s *MemoryStore) Put(ctx context.Context, key string, value any, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCache, err)
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	s.c.Set(key, value, ttl)
	return nil
}

// Get returns the cached value for key, if present and unexpired.
func (s *MemoryStore) Get(ctx context.Context, key string) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrCache, err)
	}
	v, found := s.c.Get(key)
	return v, found, nil
}

// Delete drops a key if present.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCache, err)
	}
	s.c.Delete(key)
	return nil
}

// Close implements Store. The underlying cache stops its janitor when
// garbage collected; nothing to release explicitly.
func (s *MemoryStore) Close() error {
	s.c.Flush()
	return nil
}
