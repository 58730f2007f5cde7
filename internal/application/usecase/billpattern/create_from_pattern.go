package billpattern

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/classification"
	"github.com/finance-tracker/recurring/internal/application/usecase/occurrence"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// CreateFromPatternInput represents the input for persisting a pattern.
type CreateFromPatternInput struct {
	UserID         uuid.UUID
	Name           string                 // Optional, defaults to the merchant key's display name
	MerchantKey    string                 // Optional, defaults to the key of the first transaction
	Frequency      string
	BaseAmount     *decimal.Decimal       // Optional, defaults to the median transaction amount
	StartDate      *time.Time             // Optional, defaults to the earliest transaction date
	CategoryID     *uuid.UUID             // Optional
	Confidence     float64
	TransactionIDs []uuid.UUID
	Stats          *entity.DetectionStats // Optional
}

// CreateFromCandidateInput builds the creation input of a detected candidate.
func CreateFromCandidateInput(userID uuid.UUID, candidate *entity.CandidatePattern) CreateFromPatternInput {
	baseAmount := candidate.BaseAmount
	startDate := candidate.StartDate
	stats := candidate.Stats
	return CreateFromPatternInput{
		UserID:         userID,
		Name:           candidate.Name,
		MerchantKey:    candidate.MerchantKey,
		Frequency:      string(candidate.Frequency),
		BaseAmount:     &baseAmount,
		StartDate:      &startDate,
		CategoryID:     candidate.CategoryID,
		Confidence:     candidate.Confidence,
		TransactionIDs: candidate.TransactionIDs,
		Stats:          &stats,
	}
}

// CreateFromPatternOutput represents the output of pattern creation.
type CreateFromPatternOutput struct {
	Pattern         *entity.BillPattern
	LinkedCount     int
	OccurrenceCount int
}

// CreateFromPatternUseCase persists a pattern with one linked occurrence per contributing transaction.
type CreateFromPatternUseCase struct {
	transactionRepo adapter.TransactionRepository
	patternRepo     adapter.BillPatternRepository
	syncUseCase     *occurrence.SyncOccurrencesUseCase
	propagator      *classification.PropagateUseCase
	cache           adapter.CandidateCache
}

// NewCreateFromPatternUseCase creates a new CreateFromPatternUseCase instance.
func NewCreateFromPatternUseCase(
	transactionRepo adapter.TransactionRepository,
	patternRepo adapter.BillPatternRepository,
	syncUseCase *occurrence.SyncOccurrencesUseCase,
	propagator *classification.PropagateUseCase,
	cache adapter.CandidateCache,
) *CreateFromPatternUseCase {
	return &CreateFromPatternUseCase{
		transactionRepo: transactionRepo,
		patternRepo:     patternRepo,
		syncUseCase:     syncUseCase,
		propagator:      propagator,
		cache:           cache,
	}
}

// Execute performs the pattern creation.
func (uc *CreateFromPatternUseCase) Execute(ctx context.Context, input CreateFromPatternInput) (*CreateFromPatternOutput, error) {
	frequency, ok := valueobject.ParseFrequency(input.Frequency)
	if !ok {
		return nil, domainerror.NewValidationError(
			domainerror.ErrCodeInvalidFrequency,
			fmt.Sprintf("unsupported frequency %q", input.Frequency),
			domainerror.ErrInvalidFrequency,
		)
	}
	if len(input.TransactionIDs) == 0 {
		return nil, domainerror.NewValidationError(domainerror.ErrCodeEmptyCandidate, "no transactions given", domainerror.ErrEmptyCandidate)
	}
	if input.BaseAmount != nil && input.BaseAmount.IsZero() {
		return nil, domainerror.NewValidationError(domainerror.ErrCodeInvalidAmount, "base amount must not be zero", domainerror.ErrInvalidAmount)
	}
	if input.StartDate != nil && input.StartDate.IsZero() {
		return nil, domainerror.NewValidationError(domainerror.ErrCodeInvalidDate, "start date is required", domainerror.ErrInvalidDate)
	}

	transactions, err := uc.transactionRepo.FindByIDs(ctx, input.UserID, input.TransactionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	if missing := missingIDs(input.TransactionIDs, transactions); len(missing) > 0 {
		return nil, domainerror.NewNotFoundError(
			domainerror.ErrCodeTransactionNotFound,
			fmt.Sprintf("%d transactions not found", len(missing)),
			domainerror.ErrTransactionNotFound,
		)
	}
	sort.Slice(transactions, func(i, j int) bool {
		if !transactions[i].Date.Equal(transactions[j].Date) {
			return transactions[i].Date.Before(transactions[j].Date)
		}
		return transactions[i].ID.String() < transactions[j].ID.String()
	})

	pattern, err := buildPattern(input, frequency, transactions)
	if err != nil {
		return nil, err
	}

	changes := adapter.NewPatternChangeSet(pattern.ID)
	changes.CreatePattern = pattern

	linkedDates := make(map[time.Time]struct{})
	output := &CreateFromPatternOutput{Pattern: pattern}
	for _, tx := range transactions {
		if tx.BillPatternID != nil && *tx.BillPatternID != pattern.ID {
			slog.Warn("Transaction skipped at pattern creation: linked to another pattern",
				"transaction_id", tx.ID,
				"other_pattern_id", *tx.BillPatternID,
			)
			continue
		}
		if tx.IsUserOneTime() {
			continue
		}

		// One occurrence per date; a second charge that day stays unlinked.
		date := valueobject.CalendarDate(tx.Date)
		if _, ok := linkedDates[date]; ok {
			slog.Warn("Transaction skipped at pattern creation: date already linked",
				"transaction_id", tx.ID,
				"pattern_id", pattern.ID,
				"date", date.Format(time.DateOnly),
			)
			continue
		}
		linkedDates[date] = struct{}{}
		changes.CreateOccurrences = append(changes.CreateOccurrences, entity.NewLinkedOccurrence(pattern.ID, tx))

		tx.LinkToPattern(pattern.ID, entity.SourcePatternCreation)
		changes.TouchTransaction(tx)
		pattern.SourceTransactionIDs = append(pattern.SourceTransactionIDs, tx.ID)
		output.LinkedCount++
	}

	if err := uc.patternRepo.ApplyChanges(ctx, changes); err != nil {
		return nil, fmt.Errorf("failed to create bill pattern: %w", err)
	}
	output.OccurrenceCount = len(changes.CreateOccurrences)

	synced, err := uc.syncUseCase.Execute(ctx, occurrence.SyncOccurrencesInput{
		UserID:    input.UserID,
		PatternID: pattern.ID,
	})
	if err != nil {
		slog.Warn("Scheduling after pattern creation failed", "pattern_id", pattern.ID, "error", err)
	} else {
		output.Pattern = synced.Pattern
		output.LinkedCount += synced.Stats.Linked
	}

	if occurrences, err := uc.patternRepo.FindOccurrences(ctx, pattern.ID); err == nil {
		output.OccurrenceCount = len(occurrences)
	}

	if result := uc.propagator.PropagatePattern(ctx, output.Pattern); result.Err != nil {
		slog.Warn("Propagation after pattern creation failed", "pattern_id", pattern.ID, "error", result.Err)
	}
	invalidateCandidates(ctx, uc.cache, input.UserID)

	slog.Info("Bill pattern created",
		"user_id", input.UserID,
		"pattern_id", pattern.ID,
		"merchant_key", pattern.MerchantKey,
		"frequency", pattern.Frequency,
		"linked", output.LinkedCount,
	)

	return output, nil
}

func buildPattern(input CreateFromPatternInput, frequency valueobject.Frequency, transactions []*entity.Transaction) (*entity.BillPattern, error) {
	merchantKey := valueobject.MerchantKey(input.MerchantKey)
	if merchantKey.IsEmpty() {
		for _, tx := range transactions {
			if key := tx.MerchantKey(); !key.IsEmpty() {
				merchantKey = key
				break
			}
		}
	}
	if merchantKey.IsEmpty() {
		return nil, domainerror.NewValidationError(
			domainerror.ErrCodeInvalidRequest,
			"merchant key could not be derived from the transactions",
			nil,
		)
	}

	name := input.Name
	if name == "" {
		name = merchantKey.DisplayName()
	}

	baseAmount := input.BaseAmount
	if baseAmount == nil {
		amounts := make([]decimal.Decimal, 0, len(transactions))
		for _, tx := range transactions {
			amounts = append(amounts, tx.Amount)
		}
		median := valueobject.MedianAmount(amounts)
		baseAmount = &median
	}
	if baseAmount.IsZero() {
		return nil, domainerror.NewValidationError(domainerror.ErrCodeInvalidAmount, "base amount must not be zero", domainerror.ErrInvalidAmount)
	}

	startDate := transactions[0].Date
	if input.StartDate != nil {
		startDate = *input.StartDate
	}

	pattern := entity.NewBillPattern(
		input.UserID,
		name,
		merchantKey.String(),
		frequency,
		*baseAmount,
		startDate,
		input.CategoryID,
		input.Confidence,
	)
	pattern.DetectionStats = input.Stats
	return pattern, nil
}

func missingIDs(ids []uuid.UUID, found []*entity.Transaction) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(found))
	for _, tx := range found {
		seen[tx.ID] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
