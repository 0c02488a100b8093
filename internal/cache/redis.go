package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"perdiem/internal/core"
)

// RedisCache is a Redis-backed RolloverCache with per-entry TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis at the given address (a redis:// URL or a
// bare host:port) and verifies the connection.
func NewRedisCache(redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(fmt.Sprintf("redis://%s", redisURL))
	if err != nil {
		// Fallback to simple connection
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, userID string, day core.LocalDay) (int64, bool, error) {
	val, err := c.client.Get(ctx, key(userID, day)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get: %w", err)
	}
	cents, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		// A corrupt entry behaves as a miss.
		return 0, false, nil
	}
	return cents, true, nil
}

func (c *RedisCache) Set(ctx context.Context, userID string, day core.LocalDay, cents int64) error {
	if err := c.client.Set(ctx, key(userID, day), strconv.FormatInt(cents, 10), c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
