package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Service backed by Redis. All keys live under a configurable
// namespace prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(opts ...RedisOption) (*RedisCache, error) {
	cfg := &RedisConfig{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		PoolTimeout:  30 * time.Second,
		MinIdleConns: 5,
		Prefix:       "macropipe",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		PoolTimeout:  cfg.PoolTimeout,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCache{client: client, prefix: cfg.Prefix}, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	var data []byte
	if s, ok := value.(string); ok {
		data = []byte(s)
	} else {
		encoded, err := json.Marshal(value)
		if err != nil {
			return err
		}
		data = encoded
	}
	return r.client.Set(ctx, r.namespaced(key), data, expiration).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, r.namespaced(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}

	if strPtr, ok := dest.(*string); ok {
		*strPtr = string(data)
		return nil
	}
	return json.Unmarshal(data, dest)
}

// Delete uses UNLINK so reclamation happens off the command path.
func (r *RedisCache) Delete(ctx context.Context, keys ...string) error {
	return r.client.Unlink(ctx, r.namespacedAll(keys)...).Err()
}

func (r *RedisCache) Exists(ctx context.Context, keys ...string) (bool, error) {
	n, err := r.client.Exists(ctx, r.namespacedAll(keys)...).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Client exposes the underlying connection for callers that need raw
// commands.
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) namespaced(key string) string {
	return r.prefix + ":" + key
}

func (r *RedisCache) namespacedAll(keys []string) []string {
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = r.namespaced(key)
	}
	return out
}
