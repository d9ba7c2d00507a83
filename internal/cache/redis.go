package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"TradeRobot/internal/model"
)

// RedisOptions configures a RedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisCache stores history windows in Redis with native expiry.
type RedisCache struct {
	client *redis.Client
	prefix string
	policy Policy
	now    func() time.Time
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(opts RedisOptions, policy Policy) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{client: client, prefix: opts.Prefix, policy: policy, now: time.Now}, nil
}

func (c *RedisCache) wrapKey(key Key) string {
	if c.prefix == "" {
		return key.String()
	}
	return c.prefix + ":" + key.String()
}

func (c *RedisCache) Get(ctx context.Context, key Key) ([]model.Bar, bool, error) {
	data, err := c.client.Get(ctx, c.wrapKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	bars, err := decodeBars(data)
	if err != nil {
		return nil, false, err
	}
	return bars, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key Key, bars []model.Bar) error {
	data, err := encodeBars(bars)
	if err != nil {
		return fmt.Errorf("encode bars: %w", err)
	}
	return c.client.Set(ctx, c.wrapKey(key), data, c.policy.TTLFor(key, c.now())).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, key Key) error {
	return c.client.Unlink(ctx, c.wrapKey(key)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
