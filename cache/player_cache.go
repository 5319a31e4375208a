package cache

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	durationKeyPrefix = "dur:"
	// VolumeKey holds the last volume chosen by the listener.
	VolumeKey = "player-volume"

	// DurationTTL keeps probed lengths around long after the files stop changing.
	DurationTTL = 30 * 24 * time.Hour
)

// DurationKey is the Redis key caching the length of an audio URL.
func DurationKey(url string) string {
	return durationKeyPrefix + url
}

// PlayerCache persists probed durations and the volume preference in Redis.
type PlayerCache struct {
	client *redis.Client
}

// NewPlayerCache uses the global RedisClient.
func NewPlayerCache() *PlayerCache {
	return &PlayerCache{client: RedisClient}
}

// NewPlayerCacheWithClient is NewPlayerCache for an explicit client.
func NewPlayerCacheWithClient(client *redis.Client) *PlayerCache {
	return &PlayerCache{client: client}
}

// GetDuration returns the cached length of url in seconds.
func (c *PlayerCache) GetDuration(ctx context.Context, url string) (float64, bool, error) {
	if c.client == nil {
		return 0, false, ErrNotConnected
	}
	val, err := c.client.Get(ctx, DurationKey(url)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get duration: %w", err)
	}
	secs, ok := parseSeconds(val)
	return secs, ok, nil
}

// SetDuration caches the length of url. Non-positive or non-finite values
// are ignored.
func (c *PlayerCache) SetDuration(ctx context.Context, url string, seconds float64) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if !(seconds > 0) || math.IsInf(seconds, 0) {
		return nil
	}
	val := strconv.FormatFloat(seconds, 'f', 3, 64)
	if err := c.client.Set(ctx, DurationKey(url), val, DurationTTL).Err(); err != nil {
		return fmt.Errorf("failed to set duration: %w", err)
	}
	return nil
}

// LoadVolume returns the saved volume, if any.
func (c *PlayerCache) LoadVolume(ctx context.Context) (float64, bool, error) {
	if c.client == nil {
		return 0, false, ErrNotConnected
	}
	val, err := c.client.Get(ctx, VolumeKey).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get volume: %w", err)
	}
	v, err := strconv.ParseFloat(val, 64)
	if err != nil || v < 0 || v > 1 {
		return 0, false, nil
	}
	return v, true, nil
}

// SaveVolume stores v without expiry.
func (c *PlayerCache) SaveVolume(ctx context.Context, v float64) error {
	if c.client == nil {
		return ErrNotConnected
	}
	if err := c.client.Set(ctx, VolumeKey, strconv.FormatFloat(v, 'f', -1, 64), 0).Err(); err != nil {
		return fmt.Errorf("failed to save volume: %w", err)
	}
	return nil
}

func parseSeconds(val string) (float64, bool) {
	secs, err := strconv.ParseFloat(val, 64)
	if err != nil || !(secs > 0) || math.IsInf(secs, 0) {
		return 0, false
	}
	return secs, true
}
