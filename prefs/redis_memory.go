package prefs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/olprint/storefront/core"
)

// RedisMemory implements core.Memory on Redis for durable preferences.
// The in-process core.MemoryStore covers tests and single-run demos; this
// keeps preferences across restarts.
type RedisMemory struct {
	client *redis.Client
	prefix string
	logger core.Logger
}

// NewRedisMemory connects to Redis and verifies the connection
func NewRedisMemory(redisURL string, logger core.Logger) (*RedisMemory, error) {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis URL: %v", core.ErrInvalidConfiguration, err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: redis ping: %v", core.ErrConnectionFailed, err)
	}

	logger.Info("Redis preference store connected", map[string]interface{}{
		"operation": "prefs_redis_connect",
	})

	return &RedisMemory{
		client: client,
		prefix: "olprint:prefs:",
		logger: logger,
	}, nil
}

func (r *RedisMemory) key(k string) string {
	return r.prefix + k
}

// Get retrieves a value; a missing key returns an empty string, not an error
func (r *RedisMemory) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value with an optional TTL (zero means no expiry)
func (r *RedisMemory) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key; deleting a missing key is not an error
func (r *RedisMemory) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a key is present
func (r *RedisMemory) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

// Close releases the Redis connection
func (r *RedisMemory) Close() error {
	return r.client.Close()
}
