// Package cache provides the Redis-backed cache for the featured-coupon
// listing. Cache failures are treated as misses; the catalog always has
// the database as the source of truth.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/loyalty-rewards-system/internal/model"
)

// FeaturedCache caches featured-coupon listings keyed by limit.
type FeaturedCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFeaturedCache creates a FeaturedCache with the given client and TTL.
func NewFeaturedCache(client *redis.Client, ttl time.Duration) *FeaturedCache {
	return &FeaturedCache{client: client, ttl: ttl}
}

func key(limit int) string {
	return fmt.Sprintf("coupons:featured:%d", limit)
}

// Get returns the cached listing and whether it was a hit.
func (c *FeaturedCache) Get(ctx context.Context, limit int) ([]model.Coupon, bool) {
	data, err := c.client.Get(ctx, key(limit)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("featured cache read failed")
		}
		return nil, false
	}

	var coupons []model.Coupon
	if err := json.Unmarshal(data, &coupons); err != nil {
		log.Warn().Err(err).Msg("featured cache entry corrupt")
		return nil, false
	}
	return coupons, true
}

// Set stores the listing. Failures are logged and ignored.
func (c *FeaturedCache) Set(ctx context.Context, limit int, coupons []model.Coupon) {
	data, err := json.Marshal(coupons)
	if err != nil {
		log.Warn().Err(err).Msg("featured cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, key(limit), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("featured cache write failed")
	}
}
