package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/azadjordan/megadie-warehouse/internal/warehouse/domain"
	"github.com/azadjordan/megadie-warehouse/pkg/logger"
)

// SnapshotCacheTTL bounds staleness of the reporting snapshot; the
// snapshot is off the write path so a short TTL is enough.
const SnapshotCacheTTL = 2 * time.Minute

// RedisSnapshotCache caches per-store occupancy snapshots. A nil
// client disables caching; every method degrades to a miss/no-op, so
// callers never branch on availability.
type RedisSnapshotCache struct {
	client *redis.Client
}

// NewRedisSnapshotCache creates a new snapshot cache.
func NewRedisSnapshotCache(client *redis.Client) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client}
}

func snapshotKey(store string) string {
	if store == "" {
		store = "all"
	}
	return fmt.Sprintf("warehouse:occupancy:%s", store)
}

// Get returns the cached snapshot for a store, if present.
func (c *RedisSnapshotCache) Get(ctx context.Context, store string) ([]domain.SlotOccupancyRow, bool) {
	if c.client == nil {
		return nil, false
	}

	payload, err := c.client.Get(ctx, snapshotKey(store)).Bytes()
	if err != nil {
		return nil, false
	}

	var rows []domain.SlotOccupancyRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		logger.Warn(ctx).Err(err).Str("store", store).Msg("Dropping corrupt occupancy snapshot cache entry")
		_ = c.client.Del(ctx, snapshotKey(store)).Err()
		return nil, false
	}
	return rows, true
}

// Set stores a snapshot with the standard TTL. Failures are logged and
// swallowed; the cache is best-effort.
func (c *RedisSnapshotCache) Set(ctx context.Context, store string, rows []domain.SlotOccupancyRow) {
	if c.client == nil {
		return
	}

	payload, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, snapshotKey(store), payload, SnapshotCacheTTL).Err(); err != nil {
		logger.Warn(ctx).Err(err).Str("store", store).Msg("Failed to cache occupancy snapshot")
	}
}

// Invalidate drops cached snapshots after a rebuild so the next read
// reflects the repaired aggregates. The store-scoped key and the
// all-stores key both go.
func (c *RedisSnapshotCache) Invalidate(ctx context.Context, store string) {
	if c.client == nil {
		return
	}
	keys := []string{snapshotKey(store)}
	if store != "" {
		keys = append(keys, snapshotKey(""))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.Warn(ctx).Err(err).Str("store", store).Msg("Failed to invalidate occupancy snapshot cache")
	}
}
