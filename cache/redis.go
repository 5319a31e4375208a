package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"soundfolio/config"

	"github.com/go-redis/redis/v8"
)

// RedisClient is the global Redis client; nil when REDIS_HOST is not set.
var RedisClient *redis.Client

// ErrNotConnected is returned by helpers used before ConnectRedis.
var ErrNotConnected = errors.New("redis client not initialized")

// ConnectRedis initializes the Redis connection.
func ConnectRedis(cfg *config.Config) error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := RedisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return nil
}

// CloseRedis closes the Redis connection.
func CloseRedis() error {
	if RedisClient != nil {
		return RedisClient.Close()
	}
	return nil
}

// TestRedis checks the connection with a set/get/delete round trip.
func TestRedis(ctx context.Context) error {
	if RedisClient == nil {
		return ErrNotConnected
	}

	const key, want = "soundfolio:test_key", "Redis connection successful!"
	if err := RedisClient.Set(ctx, key, want, time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set Redis key: %w", err)
	}

	val, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to get Redis key: %w", err)
	}
	if val != want {
		return fmt.Errorf("unexpected value from Redis: got %s", val)
	}

	if err := RedisClient.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete Redis key: %w", err)
	}
	return nil
}

// Stats summarizes what the player keeps in Redis.
type Stats struct {
	Durations int64
	Volume    string
}

// Inspect counts cached durations and reads the saved volume.
func Inspect(ctx context.Context) (*Stats, error) {
	if RedisClient == nil {
		return nil, ErrNotConnected
	}
	stats := &Stats{}
	iter := RedisClient.Scan(ctx, 0, durationKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		stats.Durations++
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan durations: %w", err)
	}
	v, err := RedisClient.Get(ctx, VolumeKey).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("get volume: %w", err)
	}
	stats.Volume = v
	return stats, nil
}

// FlushDurations drops every cached duration and returns how many were removed.
func FlushDurations(ctx context.Context) (int64, error) {
	if RedisClient == nil {
		return 0, ErrNotConnected
	}
	var removed int64
	iter := RedisClient.Scan(ctx, 0, durationKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n, err := RedisClient.Del(ctx, iter.Val()).Result()
		if err != nil {
			return removed, fmt.Errorf("delete %s: %w", iter.Val(), err)
		}
		removed += n
	}
	return removed, iter.Err()
}
