package billpattern

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// GetPatternInput represents the input for reading one pattern.
type GetPatternInput struct {
	UserID    uuid.UUID
	PatternID uuid.UUID
}

// GetPatternOutput represents one pattern with its full schedule.
type GetPatternOutput struct {
	Summary     PatternSummary
	Occurrences []*entity.Occurrence
}

// GetPatternUseCase handles reading one pattern.
type GetPatternUseCase struct {
	patternRepo adapter.BillPatternRepository
	now         func() time.Time
}

// NewGetPatternUseCase creates a new GetPatternUseCase instance.
func NewGetPatternUseCase(patternRepo adapter.BillPatternRepository) *GetPatternUseCase {
	return &GetPatternUseCase{
		patternRepo: patternRepo,
		now:         time.Now,
	}
}

// Execute performs the lookup.
func (uc *GetPatternUseCase) Execute(ctx context.Context, input GetPatternInput) (*GetPatternOutput, error) {
	pattern, err := uc.patternRepo.FindByID(ctx, input.PatternID, input.UserID)
	if err != nil {
		return nil, err
	}

	occurrences, err := uc.patternRepo.FindOccurrences(ctx, pattern.ID)
	if err != nil {
		return nil, err
	}

	return &GetPatternOutput{
		Summary:     summarize(pattern, occurrences, uc.now().UTC()),
		Occurrences: occurrences,
	}, nil
}
