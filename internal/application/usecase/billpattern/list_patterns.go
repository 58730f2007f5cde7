package billpattern

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// ListPatternsInput represents the input for listing a user's patterns.
type ListPatternsInput struct {
	UserID uuid.UUID
}

// PatternSummary is a pattern with its schedule counters.
type PatternSummary struct {
	Pattern         *entity.BillPattern
	OccurrenceCount int
	LinkedCount     int
	NextDueDate     *time.Time
}

// ListPatternsOutput represents the output of pattern listing.
type ListPatternsOutput struct {
	Patterns []PatternSummary
}

// ListPatternsUseCase handles pattern listing.
type ListPatternsUseCase struct {
	patternRepo adapter.BillPatternRepository
	now         func() time.Time
}

// NewListPatternsUseCase creates a new ListPatternsUseCase instance.
func NewListPatternsUseCase(patternRepo adapter.BillPatternRepository) *ListPatternsUseCase {
	return &ListPatternsUseCase{
		patternRepo: patternRepo,
		now:         time.Now,
	}
}

// Execute performs the listing.
func (uc *ListPatternsUseCase) Execute(ctx context.Context, input ListPatternsInput) (*ListPatternsOutput, error) {
	patterns, err := uc.patternRepo.FindByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	today := uc.now().UTC()
	output := &ListPatternsOutput{Patterns: make([]PatternSummary, 0, len(patterns))}
	for _, pattern := range patterns {
		occurrences, err := uc.patternRepo.FindOccurrences(ctx, pattern.ID)
		if err != nil {
			return nil, err
		}
		output.Patterns = append(output.Patterns, summarize(pattern, occurrences, today))
	}
	return output, nil
}

func summarize(pattern *entity.BillPattern, occurrences []*entity.Occurrence, today time.Time) PatternSummary {
	summary := PatternSummary{
		Pattern:         pattern,
		OccurrenceCount: len(occurrences),
		LinkedCount:     countLinked(occurrences),
	}
	for _, occ := range occurrences {
		if occ.IsLinked() || occ.DueDate.Before(valueobject.CalendarDate(today)) {
			continue
		}
		due := occ.DueDate
		summary.NextDueDate = &due
		break
	}
	return summary
}
