package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/finance-tracker/recurring/internal/application/adapter"
)

const lockKeyPrefix = "recurring:lock:pattern:"

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// redisPatternLocker implements the adapter.PatternLocker interface across instances.
type redisPatternLocker struct {
	client     *redis.Client
	ttl        time.Duration
	retryDelay time.Duration
}

// NewRedisPatternLocker creates a pattern locker backed by Redis SET NX PX keys.
func NewRedisPatternLocker(client *redis.Client, ttl, retryDelay time.Duration) adapter.PatternLocker {
	return &redisPatternLocker{
		client:     client,
		ttl:        ttl,
		retryDelay: retryDelay,
	}
}

// Lock acquires the patterns in ascending ID order, retrying until ctx is done.
func (l *redisPatternLocker) Lock(ctx context.Context, patternIDs ...uuid.UUID) (func(), error) {
	ids := sortedUnique(patternIDs)
	token := uuid.NewString()

	acquired := make([]string, 0, len(ids))
	release := func() {
		// Release with a fresh context so a cancelled request still frees its locks.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(acquired) - 1; i >= 0; i-- {
			if err := releaseScript.Run(releaseCtx, l.client, []string{acquired[i]}, token).Err(); err != nil {
				slog.Warn("Failed to release pattern lock", "key", acquired[i], "error", err)
			}
		}
	}

	for _, id := range ids {
		key := lockKeyPrefix + id.String()
		if err := l.acquire(ctx, key, token); err != nil {
			release()
			return nil, err
		}
		acquired = append(acquired, key)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *redisPatternLocker) acquire(ctx context.Context, key, token string) error {
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("failed to acquire pattern lock: %w", err)
		}
		if ok {
			return nil
		}

		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
