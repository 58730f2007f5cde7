package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
)

type memoryEntry[T any] struct {
	value     T
	expiresAt time.Time
}

// memoryStore is a TTL map used when Redis is disabled.
type memoryStore[K comparable, T any] struct {
	mu      sync.Mutex
	entries map[K]memoryEntry[T]
	ttl     time.Duration
	now     func() time.Time
}

func newMemoryStore[K comparable, T any](ttl time.Duration) *memoryStore[K, T] {
	return &memoryStore[K, T]{
		entries: make(map[K]memoryEntry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *memoryStore[K, T]) get(key K) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		var zero T
		return zero, false
	}
	return entry.value, true
}

func (s *memoryStore[K, T]) set(key K, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry[T]{value: value, expiresAt: s.now().Add(s.ttl)}
}

func (s *memoryStore[K, T]) delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// memoryCandidateCache implements the adapter.CandidateCache interface in process.
type memoryCandidateCache struct {
	store *memoryStore[uuid.UUID, []*entity.CandidatePattern]
}

// NewMemoryCandidateCache creates an in-process candidate cache.
func NewMemoryCandidateCache(ttl time.Duration) adapter.CandidateCache {
	return &memoryCandidateCache{store: newMemoryStore[uuid.UUID, []*entity.CandidatePattern](ttl)}
}

func (c *memoryCandidateCache) Get(_ context.Context, userID uuid.UUID) ([]*entity.CandidatePattern, bool, error) {
	candidates, ok := c.store.get(userID)
	return candidates, ok, nil
}

func (c *memoryCandidateCache) Set(_ context.Context, userID uuid.UUID, candidates []*entity.CandidatePattern) error {
	c.store.set(userID, candidates)
	return nil
}

func (c *memoryCandidateCache) Invalidate(_ context.Context, userID uuid.UUID) error {
	c.store.delete(userID)
	return nil
}

// memoryLabelCache implements the adapter.LabelCache interface in process.
type memoryLabelCache struct {
	store *memoryStore[string, *adapter.LabelSuggestion]
}

// NewMemoryLabelCache creates an in-process label cache.
func NewMemoryLabelCache(ttl time.Duration) adapter.LabelCache {
	return &memoryLabelCache{store: newMemoryStore[string, *adapter.LabelSuggestion](ttl)}
}

func (c *memoryLabelCache) Get(_ context.Context, key string) (*adapter.LabelSuggestion, bool, error) {
	suggestion, ok := c.store.get(key)
	return suggestion, ok, nil
}

func (c *memoryLabelCache) Set(_ context.Context, key string, suggestion *adapter.LabelSuggestion) error {
	c.store.set(key, suggestion)
	return nil
}
