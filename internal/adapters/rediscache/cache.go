// Package rediscache backs the response cache and the rate limiter with a
// shared Redis store, so the service stays horizontally scalable with no
// in-process coordination.
package rediscache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// NewRedisClient parses a Redis URL and returns a connected client.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opt), nil
}

// Cache is a TTL response cache. Misses and store outages look identical to
// callers: a miss. A failed Set is logged and swallowed so the freshly
// fetched value still reaches the client.
type Cache struct {
	rdb    *redis.Client
	logger *logrus.Entry
}

func NewCache(rdb *redis.Client, logger *logrus.Entry) *Cache {
	return &Cache{rdb: rdb, logger: logger}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", key).Warn("response cache read failed")
		}
		return nil, false
	}
	return val, true
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("response cache write failed")
	}
}
