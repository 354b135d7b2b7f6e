package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const claimKeyPrefix = "intake:claim:"

// ClaimCache remembers completed intake claims so redeliveries can be acknowledged without
// touching the database. Only completed mappings are stored, and they never change.
type ClaimCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClaimCache returns nil when Redis is not configured.
func NewClaimCache(r *Redis, ttl time.Duration) *ClaimCache {
	if !r.Enabled() {
		return nil
	}
	return &ClaimCache{client: r.Client, ttl: ttl}
}

// Get returns the ticket id recorded for externalID.
func (c *ClaimCache) Get(ctx context.Context, externalID string) (string, bool, error) {
	val, err := c.client.Get(ctx, claimKeyPrefix+externalID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Put records a completed claim.
func (c *ClaimCache) Put(ctx context.Context, externalID, ticketID string) error {
	return c.client.Set(ctx, claimKeyPrefix+externalID, ticketID, c.ttl).Err()
}
