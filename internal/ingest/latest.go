package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	latestKey = "medidor:last"
	latestTTL = 24 * time.Hour
)

// LatestCache is a single-slot cache holding the most recently decoded raw
// subscription payload. GET /data serves it; it is process-local state with
// one owner, not part of the record store.
//
// When a Redis client is attached, every update is mirrored to a key with a
// TTL so dashboards can read the live value without touching this service.
// The mirror is fire-and-forget: Redis being down never affects ingestion.
type LatestCache struct {
	mu      sync.RWMutex
	payload map[string]any

	rdb    *redis.Client
	logger *slog.Logger
}

// NewLatestCache creates an empty cache. rdb may be nil to disable the
// Redis mirror.
func NewLatestCache(rdb *redis.Client, logger *slog.Logger) *LatestCache {
	return &LatestCache{rdb: rdb, logger: logger}
}

// Set replaces the cached payload.
func (c *LatestCache) Set(ctx context.Context, payload map[string]any) {
	c.mu.Lock()
	c.payload = payload
	c.mu.Unlock()

	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Warn("latest cache: payload not mirrorable", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, latestKey, data, latestTTL).Err(); err != nil {
		c.logger.Warn("latest cache: redis mirror failed", "error", err)
	}
}

// Get returns the most recent payload, or an empty map before the first
// message arrives.
func (c *LatestCache) Get() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.payload == nil {
		return map[string]any{}
	}
	return c.payload
}
