// Package cache implements the detection and label caches.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
)

const candidateKeyPrefix = "recurring:candidates:"

// redisCandidateCache implements the adapter.CandidateCache interface on Redis.
type redisCandidateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCandidateCache creates a candidate cache whose entries expire after ttl.
func NewRedisCandidateCache(client *redis.Client, ttl time.Duration) adapter.CandidateCache {
	return &redisCandidateCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached candidates of a user.
func (c *redisCandidateCache) Get(ctx context.Context, userID uuid.UUID) ([]*entity.CandidatePattern, bool, error) {
	raw, err := c.client.Get(ctx, candidateKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached candidates: %w", err)
	}

	var candidates []*entity.CandidatePattern
	if err := json.Unmarshal(raw, &candidates); err != nil {
		// A corrupt entry is treated as a miss and overwritten by the next detection.
		return nil, false, nil
	}
	return candidates, true, nil
}

// Set stores the candidates of a user.
func (c *redisCandidateCache) Set(ctx context.Context, userID uuid.UUID, candidates []*entity.CandidatePattern) error {
	raw, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}
	if err := c.client.Set(ctx, candidateKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache candidates: %w", err)
	}
	return nil
}

// Invalidate drops the cached candidates of a user.
func (c *redisCandidateCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if err := c.client.Del(ctx, candidateKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached candidates: %w", err)
	}
	return nil
}

func candidateKey(userID uuid.UUID) string {
	return candidateKeyPrefix + userID.String()
}
