package adapters

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
)

// memoryPatternLocker implements the adapter.PatternLocker interface for a single instance.
type memoryPatternLocker struct {
	mu    sync.Mutex
	slots map[uuid.UUID]chan struct{}
}

// NewMemoryPatternLocker creates an in-process pattern locker.
func NewMemoryPatternLocker() adapter.PatternLocker {
	return &memoryPatternLocker{
		slots: make(map[uuid.UUID]chan struct{}),
	}
}

// Lock acquires the patterns in ascending ID order so two callers locking the same pair cannot deadlock.
func (l *memoryPatternLocker) Lock(ctx context.Context, patternIDs ...uuid.UUID) (func(), error) {
	ids := sortedUnique(patternIDs)

	acquired := make([]chan struct{}, 0, len(ids))
	release := func() {
		for i := len(acquired) - 1; i >= 0; i-- {
			<-acquired[i]
		}
	}

	for _, id := range ids {
		slot := l.slot(id)
		select {
		case slot <- struct{}{}:
			acquired = append(acquired, slot)
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (l *memoryPatternLocker) slot(id uuid.UUID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	slot, ok := l.slots[id]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[id] = slot
	}
	return slot
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].String() < unique[j].String()
	})
	return unique
}
