package redisdb

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

func NewClient(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// IdemCache remembers idempotency keys so replayed requests return the
// original transaction instead of creating a second one. The unique
// column on transactions stays as the durable guard; this is the fast path.
type IdemCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewIdemCache(rdb *redis.Client) *IdemCache {
	return &IdemCache{rdb: rdb, ttl: 24 * time.Hour}
}

func (c *IdemCache) Lookup(ctx context.Context, key string) (string, bool) {
	if c == nil || c.rdb == nil || key == "" {
		return "", false
	}
	v, err := c.rdb.Get(ctx, "idem:"+key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (c *IdemCache) Store(ctx context.Context, key, txID string) {
	if c == nil || c.rdb == nil || key == "" {
		return
	}
	c.rdb.Set(ctx, "idem:"+key, txID, c.ttl)
}
