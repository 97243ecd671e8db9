package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const areaKeyPrefix = "oplog:ip_area:"

type areaFinder interface {
	FindArea(ctx context.Context, ip string) (string, bool, error)
}

// CachedAreaLookup puts a redis cache in front of the sys_ip lookup. Misses
// are cached as an empty value so unknown addresses do not hit the database
// on every request.
type CachedAreaLookup struct {
	finder areaFinder
	rdb    *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewCachedAreaLookup(finder areaFinder, rdb *redis.Client, ttl time.Duration, log *slog.Logger) *CachedAreaLookup {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedAreaLookup{finder: finder, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedAreaLookup) Lookup(ctx context.Context, ip string) (string, bool) {
	key := areaKeyPrefix + ip
	if c.rdb != nil {
		cached, err := c.rdb.Get(ctx, key).Result()
		switch {
		case err == nil:
			return cached, cached != ""
		case !errors.Is(err, redis.Nil):
			c.log.Warn("ip area cache read failed", "ip", ip, "error", err)
		}
	}

	area, ok, err := c.finder.FindArea(ctx, ip)
	if err != nil {
		c.log.Warn("ip area lookup failed", "ip", ip, "error", err)
		return "", false
	}
	if c.rdb != nil {
		if err := c.rdb.Set(ctx, key, area, c.ttl).Err(); err != nil {
			c.log.Debug("ip area cache write failed", "ip", ip, "error", err)
		}
	}
	return area, ok
}
