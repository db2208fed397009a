package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"mantra-sdk/internal/errors"
)

// RedisConfig describes the Redis connection.
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// Redis is a cache backed by a Redis server. Keys are namespaced with
// the configured prefix so several deployments can share one instance.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	if cfg.Address == "" {
		return nil, errors.New(errors.CodeConfig, "redis address is required")
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "mantra:cache:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.CodeConfig, err, "connect to redis")
	}
	return &Redis{client: client, prefix: prefix}, nil
}

// Get implements Cache. A redis.Nil reply is a miss, not an error.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(errors.CodeUnknown, err, "redis get")
	}
	return value, true, nil
}

// Set implements Cache.
func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, normalizeTTL(ttl)).Err(); err != nil {
		return errors.Wrap(errors.CodeUnknown, err, "redis set")
	}
	return nil
}

// Delete implements Cache.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return errors.Wrap(errors.CodeUnknown, err, "redis delete")
	}
	return nil
}

// Close implements Cache.
func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}
