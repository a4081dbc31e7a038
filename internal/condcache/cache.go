// Package condcache implements the condition state cache on Redis: dedup
// markers, active-condition markers, overload window counters and meter
// last-seen records. Redis is not the system of record; every entry here can
// be rebuilt from the event stream, so callers on the write path treat cache
// failures as log-and-continue.
package condcache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// InactiveMeter describes a meter whose last-seen record is older than the
// outage threshold.
type InactiveMeter struct {
	MeterID  string
	Region   string
	LastSeen time.Time
}

// Cache wraps a Redis client with the condition-state operations. All
// mutations are single Redis primitives; there is no read-then-write anywhere
// in this package.
type Cache struct {
	client *redis.Client
}

// NewCache creates a condition cache backed by the given Redis client.
func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// TrySetDedupMarker atomically sets the dedup marker for an alert identity.
// Returns true when the marker was absent and is now set (creation may
// proceed), false when a marker already exists (suppress). SetNX is the race
// guard: two concurrent creations for the same identity cannot both win.
func (c *Cache) TrySetDedupMarker(ctx context.Context, alertType, region, meterID string, ttl time.Duration) (bool, error) {
	ok, err := c.client.SetNX(ctx, dedupKey(alertType, region, meterID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set dedup marker: %w", err)
	}
	return ok, nil
}

// HasActiveCondition reports whether an unresolved alert already covers the
// given condition.
func (c *Cache) HasActiveCondition(ctx context.Context, region, alertType, meterID string) (bool, error) {
	n, err := c.client.Exists(ctx, activeKey(region, alertType, meterID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check active condition: %w", err)
	}
	return n > 0, nil
}

// SetActiveCondition marks a condition as covered by an unresolved alert.
// The marker carries no TTL; it is cleared explicitly on acknowledge/resolve.
func (c *Cache) SetActiveCondition(ctx context.Context, region, alertType, meterID string) error {
	if err := c.client.Set(ctx, activeKey(region, alertType, meterID), "1", 0).Err(); err != nil {
		return fmt.Errorf("failed to set active condition: %w", err)
	}
	return nil
}

// ClearActiveCondition removes the active-condition marker. Deleting a
// missing key is a no-op, so repeat lifecycle calls are safe.
func (c *Cache) ClearActiveCondition(ctx context.Context, region, alertType, meterID string) error {
	if err := c.client.Del(ctx, activeKey(region, alertType, meterID)).Err(); err != nil {
		return fmt.Errorf("failed to clear active condition: %w", err)
	}
	return nil
}

// RecordOverloadWindow appends one over-threshold reading to the region's
// window set and trims entries past the retention horizon. The trim is
// best-effort; stale members cost memory, never correctness, because counting
// is always score-bounded.
func (c *Cache) RecordOverloadWindow(ctx context.Context, region string, at time.Time) error {
	key := overloadKey(region)
	if err := c.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(at.Unix()),
		Member: at.UTC().Format(time.RFC3339Nano),
	}).Err(); err != nil {
		return fmt.Errorf("failed to record overload window: %w", err)
	}

	horizon := at.Add(-overloadRetention).Unix()
	if err := c.client.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(horizon, 10)).Err(); err != nil {
		slog.Warn("Failed to trim overload windows", "region", region, "error", err)
	}
	return nil
}

// CountOverloadWindows counts over-threshold readings recorded within the
// lookback period ending now.
func (c *Cache) CountOverloadWindows(ctx context.Context, region string, lookback time.Duration) (int, error) {
	min := strconv.FormatInt(time.Now().Add(-lookback).Unix(), 10)
	n, err := c.client.ZCount(ctx, overloadKey(region), min, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count overload windows: %w", err)
	}
	return int(n), nil
}

// TouchMeterLastSeen refreshes a meter's last-seen record and its region
// mapping in one round trip.
func (c *Cache) TouchMeterLastSeen(ctx context.Context, meterID, region string, at time.Time) error {
	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, lastSeenKey, redis.Z{
		Score:  float64(at.Unix()),
		Member: meterID,
	})
	pipe.HSet(ctx, meterRegionKey, meterID, region)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to touch meter last-seen: %w", err)
	}
	return nil
}

// ListInactiveMeters returns every meter whose last-seen record is older
// than the threshold, with its region when one is known.
func (c *Cache) ListInactiveMeters(ctx context.Context, threshold time.Duration) ([]InactiveMeter, error) {
	cutoff := time.Now().Add(-threshold).Unix()
	entries, err := c.client.ZRangeByScoreWithScores(ctx, lastSeenKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive meters: %w", err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]string, len(entries))
	for i, entry := range entries {
		id, _ := entry.Member.(string)
		ids[i] = id
	}

	regions, err := c.client.HMGet(ctx, meterRegionKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to look up meter regions: %w", err)
	}

	meters := make([]InactiveMeter, 0, len(ids))
	for i, id := range ids {
		region := ""
		if i < len(regions) {
			if s, ok := regions[i].(string); ok {
				region = s
			}
		}
		meters = append(meters, InactiveMeter{
			MeterID:  id,
			Region:   region,
			LastSeen: time.Unix(int64(entries[i].Score), 0).UTC(),
		})
	}
	return meters, nil
}

// Ping checks Redis connectivity for health reporting.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
