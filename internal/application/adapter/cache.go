package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// CandidateCache stores the latest detection result per user.
type CandidateCache interface {
	// Get returns the cached candidates and whether an entry existed.
	Get(ctx context.Context, userID uuid.UUID) ([]*entity.CandidatePattern, bool, error)

	// Set stores the candidates of a user.
	Set(ctx context.Context, userID uuid.UUID, candidates []*entity.CandidatePattern) error

	// Invalidate drops the cached candidates of a user.
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// LabelCache stores label suggestions keyed by merchant key.
type LabelCache interface {
	// Get returns the cached suggestion and whether an entry existed.
	Get(ctx context.Context, key string) (*LabelSuggestion, bool, error)

	// Set stores a suggestion.
	Set(ctx context.Context, key string, suggestion *LabelSuggestion) error
}
