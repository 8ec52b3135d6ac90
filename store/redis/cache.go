// Package redis implements the access decision cache on Redis. It
// fronts repeat-view checks only; the relational access record stays
// the source of truth, so losing keys is always safe.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	facegate "github.com/jesssevilleja/facegate"
	"github.com/jesssevilleja/facegate/gate"
	"github.com/jesssevilleja/facegate/id"
)

const keyPrefix = "facegate:decision"

// Cache implements gate.Cache on a Redis client.
type Cache struct {
	client redis.UniversalClient
}

// Open connects to Redis at addr and verifies the connection.
func Open(ctx context.Context, addr string) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", facegate.ErrStoreNotReady, err)
	}
	return &Cache{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient) *Cache {
	return &Cache{client: client}
}

// Close releases the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

func decisionKey(userID id.UserID, itemID id.ItemID) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, userID.String(), itemID.String())
}

// GetDecision returns the cached decision or ErrCacheMiss.
func (c *Cache) GetDecision(ctx context.Context, userID id.UserID, itemID id.ItemID) (*gate.Decision, error) {
	raw, err := c.client.Get(ctx, decisionKey(userID, itemID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, facegate.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("facegate: decision cache get: %w", err)
	}

	var d gate.Decision
	if err := json.Unmarshal(raw, &d); err != nil {
		// A corrupt entry behaves like a miss; the store re-decides.
		return nil, facegate.ErrCacheMiss
	}
	return &d, nil
}

// SetDecision caches a decision with the given TTL.
func (c *Cache) SetDecision(ctx context.Context, userID id.UserID, itemID id.ItemID, d *gate.Decision, ttl time.Duration) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("facegate: decision cache encode: %w", err)
	}
	if err := c.client.Set(ctx, decisionKey(userID, itemID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("facegate: decision cache set: %w", err)
	}
	return nil
}

// Invalidate removes every cached decision for the user.
func (c *Cache) Invalidate(ctx context.Context, userID id.UserID) error {
	pattern := fmt.Sprintf("%s:%s:*", keyPrefix, userID.String())

	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", facegate.ErrCacheInvalidate, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", facegate.ErrCacheInvalidate, err)
	}
	return nil
}

// InvalidateItem removes one cached decision.
func (c *Cache) InvalidateItem(ctx context.Context, userID id.UserID, itemID id.ItemID) error {
	if err := c.client.Del(ctx, decisionKey(userID, itemID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", facegate.ErrCacheInvalidate, err)
	}
	return nil
}
