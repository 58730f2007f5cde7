package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/finance-tracker/recurring/internal/application/adapter"
)

const labelKeyPrefix = "recurring:labels:"

// redisLabelCache implements the adapter.LabelCache interface on Redis.
type redisLabelCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLabelCache creates a label cache whose entries expire after ttl.
func NewRedisLabelCache(client *redis.Client, ttl time.Duration) adapter.LabelCache {
	return &redisLabelCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached suggestion for key.
func (c *redisLabelCache) Get(ctx context.Context, key string) (*adapter.LabelSuggestion, bool, error) {
	raw, err := c.client.Get(ctx, labelKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached label: %w", err)
	}

	var suggestion adapter.LabelSuggestion
	if err := json.Unmarshal(raw, &suggestion); err != nil {
		return nil, false, nil
	}
	return &suggestion, true, nil
}

// Set stores a suggestion under key.
func (c *redisLabelCache) Set(ctx context.Context, key string, suggestion *adapter.LabelSuggestion) error {
	raw, err := json.Marshal(suggestion)
	if err != nil {
		return fmt.Errorf("failed to encode label: %w", err)
	}
	if err := c.client.Set(ctx, labelKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache label: %w", err)
	}
	return nil
}
