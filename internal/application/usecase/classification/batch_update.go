package classification

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
)

// OutcomeStatus is the per-item result of a batch update.
type OutcomeStatus string

const (
	OutcomeUpdated   OutcomeStatus = "updated"
	OutcomeUnchanged OutcomeStatus = "unchanged"
	OutcomeRejected  OutcomeStatus = "rejected"
	OutcomeNotFound  OutcomeStatus = "not_found"
	OutcomeInvalid   OutcomeStatus = "invalid"
	OutcomeFailed    OutcomeStatus = "failed"
)

// BatchUpdateItem is one requested classification change.
type BatchUpdateItem struct {
	TransactionID        uuid.UUID
	SecondaryType        string
	CategoryID           *uuid.UUID
	ClassificationSource string // Defaults to user
}

// BatchUpdateInput represents the input for a batch classification update.
type BatchUpdateInput struct {
	UserID uuid.UUID
	Items  []BatchUpdateItem
}

// ItemOutcome reports what happened to one item.
type ItemOutcome struct {
	TransactionID uuid.UUID
	Status        OutcomeStatus
	Code          string
	Message       string
}

// BatchUpdateOutput represents the result of a batch update.
type BatchUpdateOutput struct {
	Outcomes []ItemOutcome
	Counts   map[OutcomeStatus]int
}

// BatchUpdateUseCase applies classification updates item by item with partial success.
type BatchUpdateUseCase struct {
	transactionRepo adapter.TransactionRepository
	patternRepo     adapter.BillPatternRepository
	locker          adapter.PatternLocker
}

// NewBatchUpdateUseCase creates a new BatchUpdateUseCase instance.
func NewBatchUpdateUseCase(
	transactionRepo adapter.TransactionRepository,
	patternRepo adapter.BillPatternRepository,
	locker adapter.PatternLocker,
) *BatchUpdateUseCase {
	return &BatchUpdateUseCase{
		transactionRepo: transactionRepo,
		patternRepo:     patternRepo,
		locker:          locker,
	}
}

// Execute applies every item and reports an outcome for each.
func (uc *BatchUpdateUseCase) Execute(ctx context.Context, input BatchUpdateInput) (*BatchUpdateOutput, error) {
	output := &BatchUpdateOutput{
		Outcomes: make([]ItemOutcome, 0, len(input.Items)),
		Counts:   make(map[OutcomeStatus]int),
	}

	for _, item := range input.Items {
		outcome := uc.apply(ctx, input.UserID, item)
		output.Outcomes = append(output.Outcomes, outcome)
		output.Counts[outcome.Status]++
	}

	return output, nil
}

func (uc *BatchUpdateUseCase) apply(ctx context.Context, userID uuid.UUID, item BatchUpdateItem) ItemOutcome {
	outcome := ItemOutcome{TransactionID: item.TransactionID}

	secondaryType := entity.SecondaryType(item.SecondaryType)
	source := entity.ClassificationSource(item.ClassificationSource)
	if source == entity.SourceNone {
		source = entity.SourceUser
	}
	if !secondaryType.IsValid() || !source.IsValid() || source == entity.SourcePatternCreation ||
		(secondaryType == entity.SecondaryTypeNone && item.CategoryID == nil) {
		outcome.Status = OutcomeInvalid
		outcome.Code = string(domainerror.ErrCodeInvalidClassification)
		outcome.Message = domainerror.ErrInvalidClassification.Error()
		return outcome
	}

	tx, err := uc.transactionRepo.FindByID(ctx, item.TransactionID, userID)
	if err != nil {
		return failedOutcome(outcome, err)
	}

	if secondaryType != entity.SecondaryTypeNone && !source.CanOverride(effectiveSource(tx)) {
		outcome.Status = OutcomeRejected
		outcome.Code = string(domainerror.ErrCodeLowerPrioritySource)
		outcome.Message = domainerror.ErrLowerPrioritySource.Error()
		return outcome
	}

	changed := false
	if item.CategoryID != nil && (tx.CategoryID == nil || *tx.CategoryID != *item.CategoryID) {
		categoryID := *item.CategoryID
		tx.CategoryID = &categoryID
		changed = true
	}
	if secondaryType != entity.SecondaryTypeNone &&
		(tx.SecondaryType != secondaryType || tx.ClassificationSource != source) {
		tx.SecondaryType = secondaryType
		tx.ClassificationSource = source
		changed = true
	}
	if !changed {
		outcome.Status = OutcomeUnchanged
		return outcome
	}

	if tx.IsUserOneTime() && tx.BillPatternID != nil {
		err = uc.detach(ctx, userID, tx)
	} else {
		err = uc.transactionRepo.UpdateClassifications(ctx, []*entity.Transaction{tx})
	}
	if err != nil {
		return failedOutcome(outcome, err)
	}

	outcome.Status = OutcomeUpdated
	return outcome
}

// detach unlinks a transaction the user declared one-time, reverting its occurrence to a placeholder.
func (uc *BatchUpdateUseCase) detach(ctx context.Context, userID uuid.UUID, tx *entity.Transaction) error {
	patternID := *tx.BillPatternID

	unlock, err := uc.locker.Lock(ctx, patternID)
	if err != nil {
		return err
	}
	defer unlock()

	pattern, err := uc.patternRepo.FindByID(ctx, patternID, userID)
	if err != nil {
		if domainerror.IsNotFound(err) {
			// Dangling reference: just clear it
			tx.Unlink()
			return uc.transactionRepo.UpdateClassifications(ctx, []*entity.Transaction{tx})
		}
		return err
	}

	occurrences, err := uc.patternRepo.FindOccurrences(ctx, patternID)
	if err != nil {
		return err
	}

	changes := adapter.NewPatternChangeSet(patternID)
	Detach(pattern, occurrences, tx, changes)

	slog.Info("Transaction detached from bill pattern by user classification",
		"pattern_id", patternID,
		"transaction_id", tx.ID,
	)
	return uc.patternRepo.ApplyChanges(ctx, changes)
}

// effectiveSource is the source a new classification has to match or beat.
// Pattern membership counts as a pattern-creation classification.
func effectiveSource(tx *entity.Transaction) entity.ClassificationSource {
	if tx.BillPatternID != nil && tx.ClassificationSource.Priority() < entity.SourcePatternCreation.Priority() {
		return entity.SourcePatternCreation
	}
	return tx.ClassificationSource
}

func failedOutcome(outcome ItemOutcome, err error) ItemOutcome {
	var bpErr *domainerror.BillPatternError
	if errors.As(err, &bpErr) {
		outcome.Code = string(bpErr.Code)
		outcome.Message = bpErr.Message
		if bpErr.Kind == domainerror.KindNotFound {
			outcome.Status = OutcomeNotFound
			return outcome
		}
		outcome.Status = OutcomeFailed
		return outcome
	}
	outcome.Status = OutcomeFailed
	outcome.Message = err.Error()
	return outcome
}
