package recommendation

import (
	"context"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// ListRecommendationsInput represents the input for listing recommendations.
type ListRecommendationsInput struct {
	UserID    uuid.UUID
	PatternID *uuid.UUID // Optional, restricts suggestions to one pattern
}

// ListRecommendationsOutput represents the surfaced matches.
type ListRecommendationsOutput struct {
	Matches []*entity.MatchCandidate
}

// ListRecommendationsUseCase suggests unlinked transactions that likely belong to a pattern.
type ListRecommendationsUseCase struct {
	transactionRepo adapter.TransactionRepository
	patternRepo     adapter.BillPatternRepository
	matcher         *Matcher
}

// NewListRecommendationsUseCase creates a new ListRecommendationsUseCase instance.
func NewListRecommendationsUseCase(
	transactionRepo adapter.TransactionRepository,
	patternRepo adapter.BillPatternRepository,
	matcher *Matcher,
) *ListRecommendationsUseCase {
	return &ListRecommendationsUseCase{
		transactionRepo: transactionRepo,
		patternRepo:     patternRepo,
		matcher:         matcher,
	}
}

// Execute performs the matching.
func (uc *ListRecommendationsUseCase) Execute(ctx context.Context, input ListRecommendationsInput) (*ListRecommendationsOutput, error) {
	var patterns []*entity.BillPattern
	if input.PatternID != nil {
		pattern, err := uc.patternRepo.FindByID(ctx, *input.PatternID, input.UserID)
		if err != nil {
			return nil, err
		}
		patterns = []*entity.BillPattern{pattern}
	} else {
		found, err := uc.patternRepo.FindByUserID(ctx, input.UserID)
		if err != nil {
			return nil, err
		}
		patterns = found
	}
	if len(patterns) == 0 {
		return &ListRecommendationsOutput{Matches: []*entity.MatchCandidate{}}, nil
	}

	transactions, err := uc.transactionRepo.FindUnlinkedExpenses(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	return &ListRecommendationsOutput{Matches: uc.matcher.Match(transactions, patterns)}, nil
}
