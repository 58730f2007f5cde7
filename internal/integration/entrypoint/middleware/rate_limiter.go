package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/dto"
)

const (
	// defaultMaxRequests is the default number of allowed requests per window.
	defaultMaxRequests = 10
	// defaultWindowDuration is the default time window for rate limiting.
	defaultWindowDuration = 1 * time.Minute
)

// RateLimitStore counts requests per key in fixed windows.
type RateLimitStore interface {
	// Hit records a request and returns the number of requests in the current window.
	Hit(ctx context.Context, key string, window time.Duration) (int, error)
}

// rateLimitEntry tracks rate limit data for a single key.
type rateLimitEntry struct {
	hits      int
	resetTime time.Time
}

// memoryRateLimitStore keeps counters in process.
type memoryRateLimitStore struct {
	mu      sync.Mutex
	entries map[string]*rateLimitEntry
	now     func() time.Time
}

// NewMemoryRateLimitStore creates an in-process rate limit store.
func NewMemoryRateLimitStore() RateLimitStore {
	return &memoryRateLimitStore{
		entries: make(map[string]*rateLimitEntry),
		now:     time.Now,
	}
}

func (s *memoryRateLimitStore) Hit(_ context.Context, key string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, exists := s.entries[key]
	if !exists || now.After(entry.resetTime) {
		s.entries[key] = &rateLimitEntry{
			hits:      1,
			resetTime: now.Add(window),
		}
		return 1, nil
	}

	entry.hits++
	return entry.hits, nil
}

// redisRateLimitStore shares counters between instances.
type redisRateLimitStore struct {
	client *redis.Client
}

// NewRedisRateLimitStore creates a rate limit store backed by Redis INCR with expiry.
func NewRedisRateLimitStore(client *redis.Client) RateLimitStore {
	return &redisRateLimitStore{client: client}
}

func (s *redisRateLimitStore) Hit(ctx context.Context, key string, window time.Duration) (int, error) {
	redisKey := "recurring:ratelimit:" + key

	hits, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count request: %w", err)
	}
	// Only the first hit sets the expiry so the window stays fixed.
	if hits == 1 {
		if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
			return 0, fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}
	return int(hits), nil
}

// RateLimiter limits requests per authenticated user, or per client IP before authentication.
type RateLimiter struct {
	store          RateLimitStore
	maxRequests    int
	windowDuration time.Duration
}

// NewRateLimiter creates a new rate limiter with default settings.
func NewRateLimiter(store RateLimitStore) *RateLimiter {
	return NewRateLimiterWithConfig(store, defaultMaxRequests, defaultWindowDuration)
}

// NewRateLimiterWithConfig creates a new rate limiter with custom settings.
func NewRateLimiterWithConfig(store RateLimitStore, maxRequests int, windowDuration time.Duration) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = defaultMaxRequests
	}
	if windowDuration <= 0 {
		windowDuration = defaultWindowDuration
	}
	return &RateLimiter{
		store:          store,
		maxRequests:    maxRequests,
		windowDuration: windowDuration,
	}
}

// Middleware returns a Gin middleware handler that enforces rate limiting under the given scope.
func (rl *RateLimiter) Middleware(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + rl.subject(c)

		hits, err := rl.store.Hit(c.Request.Context(), key, rl.windowDuration)
		if err != nil {
			// Counting failures never block the request.
			slog.Warn("Rate limit store unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}

		if hits > rl.maxRequests {
			c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error: "Too many requests. Please try again later.",
				Code:  string(domainerror.ErrCodeRateLimited),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) subject(c *gin.Context) string {
	if userID, ok := GetUserIDFromContext(c); ok {
		return "user:" + userID.String()
	}
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}
	return "ip:" + clientIP
}
