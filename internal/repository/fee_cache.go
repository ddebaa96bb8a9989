package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	feeDomain "github.com/localpro-market/service-booking/internal/domain/fee"
)

const activeFeeKey = "fee:active"

// RedisFeeCache caches the active fee snapshot.
type RedisFeeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient creates a Redis client.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewRedisFeeCache creates a new RedisFeeCache.
func NewRedisFeeCache(client *redis.Client, ttl time.Duration) *RedisFeeCache {
	return &RedisFeeCache{client: client, ttl: ttl}
}

// Get returns the cached snapshot, or nil on a miss.
func (c *RedisFeeCache) Get(ctx context.Context) (*feeDomain.Snapshot, error) {
	val, err := c.client.Get(ctx, activeFeeKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fee snapshot from redis: %w", err)
	}

	var snap feeDomain.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fee snapshot: %w", err)
	}
	return &snap, nil
}

// Set stores snap with the configured TTL.
func (c *RedisFeeCache) Set(ctx context.Context, snap feeDomain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal fee snapshot: %w", err)
	}
	if err := c.client.Set(ctx, activeFeeKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set fee snapshot in redis: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot.
func (c *RedisFeeCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, activeFeeKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate fee snapshot: %w", err)
	}
	return nil
}

// Ping checks the connection for readiness probes.
func (c *RedisFeeCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
