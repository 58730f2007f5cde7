package recommendation

import (
	"context"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/usecase/occurrence"
	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// AcceptRecommendationInput represents the input for accepting a suggested link.
type AcceptRecommendationInput struct {
	UserID        uuid.UUID
	PatternID     uuid.UUID
	TransactionID uuid.UUID
}

// AcceptRecommendationUseCase links an accepted suggestion as a user decision.
type AcceptRecommendationUseCase struct {
	linkUseCase *occurrence.LinkTransactionUseCase
}

// NewAcceptRecommendationUseCase creates a new AcceptRecommendationUseCase instance.
func NewAcceptRecommendationUseCase(linkUseCase *occurrence.LinkTransactionUseCase) *AcceptRecommendationUseCase {
	return &AcceptRecommendationUseCase{linkUseCase: linkUseCase}
}

// Execute performs the link.
func (uc *AcceptRecommendationUseCase) Execute(ctx context.Context, input AcceptRecommendationInput) (*occurrence.LinkTransactionOutput, error) {
	return uc.linkUseCase.Execute(ctx, occurrence.LinkTransactionInput{
		UserID:        input.UserID,
		PatternID:     input.PatternID,
		TransactionID: input.TransactionID,
		Source:        entity.SourceUser,
	})
}
