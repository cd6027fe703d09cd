package tally

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache fronts tally reads with a short-TTL Redis cache. Results pages get
// hammered while an election runs; a few seconds of staleness is acceptable
// there, while reconciliation always bypasses the cache. A nil client
// disables caching entirely.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Cache{client: client, ttl: ttl}
}

func resultsKey(electionID uuid.UUID) string {
	return fmt.Sprintf("tally:%s", electionID)
}

// Get returns cached results or (nil, false)
func (c *Cache) Get(ctx context.Context, electionID uuid.UUID) (map[string][]Row, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, resultsKey(electionID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("tally cache read failed")
		}
		return nil, false
	}

	var results map[string][]Row
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false
	}
	return results, true
}

// Set stores results under the election key
func (c *Cache) Set(ctx context.Context, electionID uuid.UUID, results map[string][]Row) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, resultsKey(electionID), data, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("tally cache write failed")
	}
}

// Invalidate drops the election's cached results (called after repair)
func (c *Cache) Invalidate(ctx context.Context, electionID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, resultsKey(electionID)).Err(); err != nil {
		log.Warn().Err(err).Msg("tally cache invalidation failed")
	}
}
