package cache

import "time"

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithDefaultTTL sets the TTL applied when Put receives a non-positive ttl.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// WithCleanupInterval sets how often expired entries are purged.
func WithCleanupInterval(interval time.Duration) Option {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.cleanupInterval = interval
		}
	}
}
