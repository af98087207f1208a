// Package cache keeps rendered read models (deal pages, the deal list, the dashboard) in Redis
// and drops them when the underlying entities change.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	KeyDealList  = "deals:list"
	KeyDashboard = "dashboard"
)

func KeyDeal(id uuid.UUID) string { return "deal:" + id.String() }

func KeyPortal(id uuid.UUID) string { return "portal:" + id.String() }

// DealViews lists every view that depends on a deal.
func DealViews(id uuid.UUID) []string {
	return []string{KeyDeal(id), KeyPortal(id), KeyDealList, KeyDashboard}
}

var ErrMiss = errors.New("cache miss")

// Views reads, writes and invalidates cached views.
type Views interface {
	Get(ctx context.Context, key string, dst interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	Invalidate(ctx context.Context, keys ...string) error
}

type RedisViews struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisViews(redisURL string, ttl time.Duration) (*RedisViews, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisViewsWithClient(client, ttl), nil
}

func NewRedisViewsWithClient(client *redis.Client, ttl time.Duration) *RedisViews {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisViews{client: client, prefix: "views:", ttl: ttl}
}

func (v *RedisViews) key(name string) string { return v.prefix + name }

func (v *RedisViews) Get(ctx context.Context, key string, dst interface{}) error {
	raw, err := v.client.Get(ctx, v.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (v *RedisViews) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return v.client.Set(ctx, v.key(key), raw, v.ttl).Err()
}

func (v *RedisViews) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = v.key(k)
	}
	return v.client.Del(ctx, prefixed...).Err()
}

func (v *RedisViews) Ping(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}

func (v *RedisViews) Close() error {
	return v.client.Close()
}

// Noop is used when no Redis is configured; every read misses.
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) error { return ErrMiss }

func (Noop) Set(context.Context, string, interface{}) error { return nil }

func (Noop) Invalidate(context.Context, ...string) error { return nil }
