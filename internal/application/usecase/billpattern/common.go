// Package billpattern contains the bill pattern registry use cases.
package billpattern

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// invalidateCandidates drops the cached detection result after a pattern mutation.
// A stale cache only costs a wrong alreadyTracked flag, so failures are logged.
func invalidateCandidates(ctx context.Context, cache adapter.CandidateCache, userID uuid.UUID) {
	if err := cache.Invalidate(ctx, userID); err != nil {
		slog.Warn("Candidate cache invalidation failed", "user_id", userID, "error", err)
	}
}

// countLinked returns how many occurrences are confirmed by a transaction.
func countLinked(occurrences []*entity.Occurrence) int {
	n := 0
	for _, occ := range occurrences {
		if occ.IsLinked() {
			n++
		}
	}
	return n
}
