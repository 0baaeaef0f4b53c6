package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"schoolportal/backend/config"
)

// Client wraps the Redis connection. It currently backs the timetable
// projection cache; callers must tolerate a nil Client (degraded mode).
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient connects to Redis and pings it.
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	logger.Info("redis connected", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── projection cache ──

const cachePrefix = "timetable:"

// GetCache reads a cached projection payload. A miss returns ("", nil).
func (c *Client) GetCache(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, cachePrefix+key).Result()
	if err == goredis.Nil {
		return "", nil
	}
	return val, err
}

// SetCache stores a projection payload with a TTL.
func (c *Client) SetCache(ctx context.Context, key, payload string, ttl time.Duration) error {
	return c.rdb.Set(ctx, cachePrefix+key, payload, ttl).Err()
}

// Invalidate drops cached projections.
func (c *Client) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = cachePrefix + k
	}
	return c.rdb.Del(ctx, full...).Err()
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
