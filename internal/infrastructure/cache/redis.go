// Package cache provides a Redis-backed id to serial lookup in front of the
// article store. It is purely an optimization: a miss falls through to
// the store, and a dead Redis disables the cache instead of failing
// ingestion.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"newsweave/internal/config"
	"newsweave/internal/ports"
)

const keyPrefix = "newsweave:article:"

// SeenCache implements ports.SeenCache over Redis.
type SeenCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	enabled bool
	logger  *slog.Logger
}

var _ ports.SeenCache = (*SeenCache)(nil)

// New connects to Redis and probes it. When the ping fails the cache
// stays constructed but disabled, so callers never need a nil check
// branch per call site.
func New(cfg config.RedisConfig, logger *slog.Logger) *SeenCache {
	c := &SeenCache{ttl: cfg.CacheTTL(), logger: logger}
	if cfg.Addr == "" {
		return c
	}

	c.rdb = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.warn("redis unreachable, seen-cache disabled", "error", err)
		return c
	}

	c.enabled = true
	return c
}

// Lookup returns the cached serial number for an identifier.
func (c *SeenCache) Lookup(ctx context.Context, id string) (int, bool) {
	if !c.enabled {
		return 0, false
	}

	value, err := c.rdb.Get(ctx, keyPrefix+id).Result()
	if err != nil {
		return 0, false
	}

	serial, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}

	return serial, true
}

// Store remembers an identifier's serial number. Write errors are logged
// and dropped; the store remains the source of truth.
func (c *SeenCache) Store(ctx context.Context, id string, serial int) {
	if !c.enabled {
		return
	}

	if err := c.rdb.Set(ctx, keyPrefix+id, strconv.Itoa(serial), c.ttl).Err(); err != nil {
		c.warn("seen-cache write failed", "id", id, "error", err)
	}
}

// Close releases the Redis connection.
func (c *SeenCache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func (c *SeenCache) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
