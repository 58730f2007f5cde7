package occurrence

import (
	"context"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// View is the date-filtered projection of a pattern's occurrences.
type View struct {
	Visible      []*entity.Occurrence
	HiddenLinked valueobject.HiddenLinkedCount
	Summary      string
}

// ProjectView filters occurrences by due date. Linked occurrences outside the range are
// counted per year so the caller can tell the user they exist.
func ProjectView(occurrences []*entity.Occurrence, dateRange valueobject.DateRange) View {
	view := View{
		Visible:      make([]*entity.Occurrence, 0, len(occurrences)),
		HiddenLinked: valueobject.NewHiddenLinkedCount(),
	}

	for _, occ := range occurrences {
		if dateRange.Contains(occ.DueDate) {
			view.Visible = append(view.Visible, occ)
			continue
		}
		if occ.IsLinked() {
			view.HiddenLinked.Add(occ.DueDate.Year())
		}
	}

	view.Summary = view.HiddenLinked.Summary()
	return view
}

// ListOccurrencesInput represents the input for listing a pattern's occurrences.
type ListOccurrencesInput struct {
	UserID    uuid.UUID
	PatternID uuid.UUID
	Range     valueobject.DateRange
}

// ListOccurrencesOutput represents the date-filtered occurrences of a pattern.
type ListOccurrencesOutput struct {
	Pattern *entity.BillPattern
	View    View
}

// ListOccurrencesUseCase handles listing occurrences through a date filter.
type ListOccurrencesUseCase struct {
	patternRepo adapter.BillPatternRepository
}

// NewListOccurrencesUseCase creates a new ListOccurrencesUseCase instance.
func NewListOccurrencesUseCase(patternRepo adapter.BillPatternRepository) *ListOccurrencesUseCase {
	return &ListOccurrencesUseCase{patternRepo: patternRepo}
}

// Execute performs the listing.
func (uc *ListOccurrencesUseCase) Execute(ctx context.Context, input ListOccurrencesInput) (*ListOccurrencesOutput, error) {
	pattern, err := uc.patternRepo.FindByID(ctx, input.PatternID, input.UserID)
	if err != nil {
		return nil, err
	}

	occurrences, err := uc.patternRepo.FindOccurrences(ctx, pattern.ID)
	if err != nil {
		return nil, err
	}

	return &ListOccurrencesOutput{
		Pattern: pattern,
		View:    ProjectView(occurrences, input.Range),
	}, nil
}
