package adapter

import (
	"context"

	"github.com/google/uuid"
)

// PatternLocker serializes mutations of the same bill pattern.
type PatternLocker interface {
	// Lock acquires the locks of all given patterns in a stable order and returns the release function.
	Lock(ctx context.Context, patternIDs ...uuid.UUID) (unlock func(), err error)
}
