// Package cache provides a Redis read-through cache for per-user read
// models. Entries are JSON blobs keyed by user; block mutations invalidate
// both sides so stale visibility decisions never outlive a block change.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"porchlight/internal/platform/metrics"
	"porchlight/internal/platform/redis"
	id "porchlight/pkg/domain"
)

const (
	conversationsPrefix = "porchlight:conversations:"
	blockedPrefix       = "porchlight:blocked:"
)

// Cache is a read-through cache over Redis. A nil client disables it: every
// Get misses and Set/Invalidate are no-ops, so callers never branch on
// whether Redis is configured.
type Cache struct {
	client  *redis.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
	ttl     time.Duration
}

type Option func(*Cache)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

func New(client *redis.Client, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		client: client,
		logger: slog.Default(),
		ttl:    ttl,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetConversations loads the cached conversation listing for a user. The
// second return is false on a miss.
func (c *Cache) GetConversations(ctx context.Context, userID id.UserID, dest any) bool {
	return c.get(ctx, conversationsPrefix+userID.String(), dest)
}

// SetConversations stores the conversation listing for a user.
func (c *Cache) SetConversations(ctx context.Context, userID id.UserID, value any) {
	c.set(ctx, conversationsPrefix+userID.String(), value)
}

// GetBlocked loads the cached blocked-user listing for a user.
func (c *Cache) GetBlocked(ctx context.Context, userID id.UserID, dest any) bool {
	return c.get(ctx, blockedPrefix+userID.String(), dest)
}

// SetBlocked stores the blocked-user listing for a user.
func (c *Cache) SetBlocked(ctx context.Context, userID id.UserID, value any) {
	c.set(ctx, blockedPrefix+userID.String(), value)
}

// Invalidate drops all cached read models for the given users. Block changes
// alter visibility for both sides, so both get invalidated together.
func (c *Cache) Invalidate(ctx context.Context, userIDs ...id.UserID) {
	if c.client == nil || len(userIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(userIDs)*2)
	for _, userID := range userIDs {
		keys = append(keys,
			conversationsPrefix+userID.String(),
			blockedPrefix+userID.String(),
		)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache invalidation failed", "error", err.Error())
	}
}

func (c *Cache) get(ctx context.Context, key string, dest any) bool {
	if c.client == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.WarnContext(ctx, "cache read failed", "key", key, "error", err.Error())
		}
		c.countMiss()
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		// Treat undecodable entries as misses; the next set overwrites them.
		c.logger.WarnContext(ctx, "cache entry corrupt", "key", key, "error", err.Error())
		c.countMiss()
		return false
	}
	c.countHit()
	return true
}

func (c *Cache) set(ctx context.Context, key string, value any) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed", "key", key, "error", err.Error())
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err.Error())
	}
}

func (c *Cache) countHit() {
	if c.metrics != nil {
		c.metrics.CacheHits.Inc()
	}
}

func (c *Cache) countMiss() {
	if c.metrics != nil {
		c.metrics.CacheMisses.Inc()
	}
}
