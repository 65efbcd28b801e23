package budget

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "divider:name:"

// DividerCache memoizes divider name -> id lookups in redis. A nil
// *DividerCache, or one without a client, caches nothing.
type DividerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDividerCache wraps client. A nil client yields a no-op cache.
func NewDividerCache(client *redis.Client, ttl time.Duration) *DividerCache {
	return &DividerCache{client: client, ttl: ttl}
}

// ConnectRedis parses redisURL and checks the server answers.
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		opt = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (c *DividerCache) enabled() bool {
	return c != nil && c.client != nil
}

// Get returns the cached id for name.
func (c *DividerCache) Get(ctx context.Context, name string) (int64, bool) {
	if !c.enabled() {
		return 0, false
	}
	cached, err := c.client.Get(ctx, cacheKeyPrefix+name).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("divider cache read failed", "name", name, "error", err)
		}
		return 0, false
	}
	id, err := strconv.ParseInt(cached, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Set stores the id for name.
func (c *DividerCache) Set(ctx context.Context, name string, id int64) {
	if !c.enabled() {
		return
	}
	if err := c.client.SetEx(ctx, cacheKeyPrefix+name, strconv.FormatInt(id, 10), c.ttl).Err(); err != nil {
		slog.Warn("divider cache write failed", "name", name, "error", err)
	}
}

// Forget drops the entry for name.
func (c *DividerCache) Forget(ctx context.Context, name string) {
	if !c.enabled() {
		return
	}
	c.client.Del(ctx, cacheKeyPrefix+name)
}
