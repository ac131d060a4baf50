package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/sitescore/internal/domain/model"
	"github.com/okian/sitescore/pkg/metrics"
)

// RedisOptions holds connection settings.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// kv is the subset of redis commands the cache needs. The go-redis client
// satisfies it through redisKV; tests substitute an in-process map.
type kv interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// SetIndexed stores value under key and adds key to the setKey index.
	SetIndexed(ctx context.Context, key, value, setKey string, ttl time.Duration) error
	Members(ctx context.Context, setKey string) ([]string, error)
	Del(ctx context.Context, keys ...string) error
	Close() error
}

// Redis caches scores as JSON under "{prefix}:score:{site}:{version}" and
// indexes every version of a site in the set "{prefix}:site:{site}".
type Redis struct {
	store  kv
	prefix string
	ttl    time.Duration
}

// NewRedis opens a go-redis client for opts.
func NewRedis(opts RedisOptions, ropts ...RedisOption) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return newRedisWith(redisKV{client: client}, ropts...)
}

func newRedisWith(store kv, opts ...RedisOption) *Redis {
	r := &Redis{
		store:  store,
		prefix: "sitescore",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name implements Cache.
func (r *Redis) Name() string { return "redis" }

func (r *Redis) scoreKey(key Key) string {
	return fmt.Sprintf("%s:score:%s:%s", r.prefix, key.SiteID, key.MetricsVersion)
}

func (r *Redis) siteKey(siteID string) string {
	return fmt.Sprintf("%s:site:%s", r.prefix, siteID)
}

// Get implements Cache.
func (r *Redis) Get(ctx context.Context, key Key) (model.CompositeScore, bool, error) {
	raw, ok, err := r.store.Get(ctx, r.scoreKey(key))
	if err != nil {
		metrics.RecordErrorByComponent("cache", "redis_get")
		return model.CompositeScore{}, false, fmt.Errorf("%w: get %s: %v", ErrBackend, key.SiteID, err)
	}
	if !ok {
		metrics.RecordCacheMiss(r.Name())
		return model.CompositeScore{}, false, nil
	}
	var score model.CompositeScore
	if err := json.Unmarshal([]byte(raw), &score); err != nil {
		return model.CompositeScore{}, false, fmt.Errorf("%w: %s: %v", ErrDecode, key.SiteID, err)
	}
	metrics.RecordCacheHit(r.Name())
	return score, true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key Key, score model.CompositeScore) error {
	ba, err := json.Marshal(score)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrBackend, key.SiteID, err)
	}
	if err := r.store.SetIndexed(ctx, r.scoreKey(key), string(ba), r.siteKey(key.SiteID), r.ttl); err != nil {
		metrics.RecordErrorByComponent("cache", "redis_set")
		return fmt.Errorf("%w: set %s: %v", ErrBackend, key.SiteID, err)
	}
	return nil
}

// Invalidate implements Cache.
func (r *Redis) Invalidate(ctx context.Context, siteID string) error {
	setKey := r.siteKey(siteID)
	keys, err := r.store.Members(ctx, setKey)
	if err != nil {
		metrics.RecordErrorByComponent("cache", "redis_invalidate")
		return fmt.Errorf("%w: members %s: %v", ErrBackend, siteID, err)
	}
	if err := r.store.Del(ctx, append(keys, setKey)...); err != nil {
		metrics.RecordErrorByComponent("cache", "redis_invalidate")
		return fmt.Errorf("%w: delete %s: %v", ErrBackend, siteID, err)
	}
	metrics.RecordCacheInvalidation(r.Name())
	return nil
}

// Close implements Cache.
func (r *Redis) Close() error {
	return r.store.Close()
}

// redisKV adapts *redis.Client to kv.
type redisKV struct {
	client *redis.Client
}

func (c redisKV) Get(ctx context.Context, key string) (string, bool, error) {
	s, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s, true, nil
}

func (c redisKV) SetIndexed(ctx context.Context, key, value, setKey string, ttl time.Duration) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, value, ttl)
		pipe.SAdd(ctx, setKey, key)
		if ttl > 0 {
			pipe.Expire(ctx, setKey, ttl)
		}
		return nil
	})
	return err
}

func (c redisKV) Members(ctx context.Context, setKey string) ([]string, error) {
	return c.client.SMembers(ctx, setKey).Result()
}

func (c redisKV) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c redisKV) Close() error {
	return c.client.Close()
}
