// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file and environment variables.
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"runtime"
	"time"
)

// Cache backends understood by the service.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory recalculation queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recalculation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the set of site IDs tracked as pending recalculation.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MetricsRepoURL is the base URL of the metrics repository. Empty
	// disables site lookups; POST /score keeps working.
	MetricsRepoURL string `koanf:"metrics_repo_url"`

	// MetricsRepoTimeoutMS bounds a single metrics repository call.
	MetricsRepoTimeoutMS int `koanf:"metrics_repo_timeout_ms"`

	// CacheBackend selects the score cache: memory or redis.
	CacheBackend string `koanf:"cache_backend"`

	// CacheSize bounds the in-memory score cache.
	CacheSize int `koanf:"cache_size"`

	// CacheTTLSeconds sets the redis entry TTL. Zero keeps entries until invalidated.
	CacheTTLSeconds int `koanf:"cache_ttl_seconds"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// SnapshotDBPath is the SQLite file holding the last score per site.
	// Empty disables persistence.
	SnapshotDBPath string `koanf:"snapshot_db_path"`

	// CategoryWeights overrides the default category weight table. The
	// weights must sum to 100; the scoring engine rejects anything else.
	CategoryWeights map[string]int `koanf:"category_weights"`

	// CustomRules adds recommendation rules expressed in CEL.
	CustomRules []CustomRule `koanf:"custom_rules"`
}

// CustomRule is a configured recommendation rule.
type CustomRule struct {
	Name string `koanf:"name"`
	Tier string `koanf:"tier"`
	Text string `koanf:"text"`
	When string `koanf:"when"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU() * 2,
		DedupeSize:           100_000,
		MaxLeaderboardLimit:  100,
		MetricsRepoTimeoutMS: 2_000,
		CacheBackend:         CacheBackendMemory,
		CacheSize:            10_000,
		CacheTTLSeconds:      3_600,
		RedisAddr:            "localhost:6379",
	}
	return c
}

// MetricsRepoTimeout returns the metrics repository timeout as a duration.
func (c *Config) MetricsRepoTimeout() time.Duration {
	return time.Duration(c.MetricsRepoTimeoutMS) * time.Millisecond
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
