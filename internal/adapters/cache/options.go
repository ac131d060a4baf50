package cache

import "time"

// MemoryOption configures a Memory cache.
type MemoryOption func(*Memory)

// WithMaxEntries bounds the memory cache. Zero or negative means unbounded.
func WithMaxEntries(n int) MemoryOption {
	return func(m *Memory) {
		m.maxEntries = n
	}
}

// RedisOption configures a Redis cache.
type RedisOption func(*Redis)

// WithTTL sets the expiry of cached scores. Zero keeps entries until invalidated.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl >= 0 {
			r.ttl = ttl
		}
	}
}

// WithKeyPrefix replaces the default "sitescore" key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}
