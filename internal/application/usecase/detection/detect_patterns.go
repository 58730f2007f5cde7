package detection

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/billpattern"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// DetectPatternsInput represents the input for running detection over a user's history.
type DetectPatternsInput struct {
	UserID     uuid.UUID
	AutoCreate bool // Persist untracked candidates eligible for automatic creation
	Refresh    bool // Ignore the cached result
}

// RejectedTransaction is a transaction excluded from detection because of malformed input.
type RejectedTransaction struct {
	TransactionID uuid.UUID
	Code          domainerror.BillPatternErrorCode
	Reason        string
}

// DetectPatternsOutput represents the result of detection.
type DetectPatternsOutput struct {
	Candidates        []*entity.CandidatePattern
	Rejected          []RejectedTransaction
	CreatedPatternIDs []uuid.UUID
	FromCache         bool
}

// DetectPatternsUseCase runs the detector and reports candidate patterns.
type DetectPatternsUseCase struct {
	transactionRepo adapter.TransactionRepository
	patternRepo     adapter.BillPatternRepository
	cache           adapter.CandidateCache
	detector        *Detector
	createUseCase   *billpattern.CreateFromPatternUseCase
}

// NewDetectPatternsUseCase creates a new DetectPatternsUseCase instance.
func NewDetectPatternsUseCase(
	transactionRepo adapter.TransactionRepository,
	patternRepo adapter.BillPatternRepository,
	cache adapter.CandidateCache,
	detector *Detector,
	createUseCase *billpattern.CreateFromPatternUseCase,
) *DetectPatternsUseCase {
	return &DetectPatternsUseCase{
		transactionRepo: transactionRepo,
		patternRepo:     patternRepo,
		cache:           cache,
		detector:        detector,
		createUseCase:   createUseCase,
	}
}

// Execute performs detection for one user.
func (uc *DetectPatternsUseCase) Execute(ctx context.Context, input DetectPatternsInput) (*DetectPatternsOutput, error) {
	if !input.AutoCreate && !input.Refresh {
		cached, ok, err := uc.cache.Get(ctx, input.UserID)
		if err != nil {
			slog.Warn("Candidate cache read failed", "user_id", input.UserID, "error", err)
		} else if ok {
			return &DetectPatternsOutput{Candidates: cached, FromCache: true}, nil
		}
	}

	transactions, err := uc.transactionRepo.FindByUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	valid, rejected := validateTransactions(transactions)
	candidates := uc.detector.Detect(valid)

	patterns, err := uc.patternRepo.FindByUserID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	markTracked(candidates, patterns)

	output := &DetectPatternsOutput{
		Candidates: candidates,
		Rejected:   rejected,
	}

	if input.AutoCreate {
		for _, candidate := range candidates {
			if candidate.AlreadyTracked || candidate.ReviewStatus != valueobject.ReviewStatusAutoEligible {
				continue
			}

			created, err := uc.createUseCase.Execute(ctx, billpattern.CreateFromCandidateInput(input.UserID, candidate))
			if err != nil {
				slog.Warn("Automatic pattern creation failed",
					"user_id", input.UserID,
					"merchant_key", candidate.MerchantKey,
					"error", err,
				)
				continue
			}

			id := created.Pattern.ID
			candidate.AlreadyTracked = true
			candidate.ExistingPatternID = &id
			output.CreatedPatternIDs = append(output.CreatedPatternIDs, id)

			slog.Info("Bill pattern created automatically",
				"user_id", input.UserID,
				"pattern_id", id,
				"merchant_key", candidate.MerchantKey,
				"confidence", candidate.Confidence,
			)
		}
	}

	if err := uc.cache.Set(ctx, input.UserID, candidates); err != nil {
		slog.Warn("Candidate cache write failed", "user_id", input.UserID, "error", err)
	}

	return output, nil
}

// validateTransactions drops malformed transactions before detection.
func validateTransactions(transactions []*entity.Transaction) ([]*entity.Transaction, []RejectedTransaction) {
	valid := make([]*entity.Transaction, 0, len(transactions))
	var rejected []RejectedTransaction

	for _, tx := range transactions {
		switch {
		case tx.Date.IsZero():
			rejected = append(rejected, RejectedTransaction{
				TransactionID: tx.ID,
				Code:          domainerror.ErrCodeInvalidDate,
				Reason:        domainerror.ErrInvalidDate.Error(),
			})
		case tx.Amount.IsZero():
			rejected = append(rejected, RejectedTransaction{
				TransactionID: tx.ID,
				Code:          domainerror.ErrCodeInvalidAmount,
				Reason:        domainerror.ErrInvalidAmount.Error(),
			})
		default:
			valid = append(valid, tx)
		}
	}

	return valid, rejected
}

// markTracked flags candidates whose merchant key already has a persisted pattern.
func markTracked(candidates []*entity.CandidatePattern, patterns []*entity.BillPattern) {
	byKey := make(map[string]uuid.UUID, len(patterns))
	for _, p := range patterns {
		if _, exists := byKey[p.MerchantKey]; !exists {
			byKey[p.MerchantKey] = p.ID
		}
	}

	for _, c := range candidates {
		if id, ok := byKey[c.MerchantKey]; ok {
			patternID := id
			c.AlreadyTracked = true
			c.ExistingPatternID = &patternID
		}
	}
}
