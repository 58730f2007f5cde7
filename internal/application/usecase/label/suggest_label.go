// Package label contains the advisory category-label use case.
package label

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// SuggestLabelInput represents the input for a label suggestion. Exactly one of
// PatternID and TransactionID must be set.
type SuggestLabelInput struct {
	UserID        uuid.UUID
	PatternID     *uuid.UUID
	TransactionID *uuid.UUID
	Refresh       bool // Ignore the cached suggestion
}

// SuggestLabelOutput represents a label suggestion.
type SuggestLabelOutput struct {
	Suggestion *adapter.LabelSuggestion
	Subject    adapter.LabelSubject
	FromCache  bool
}

// SuggestLabelUseCase asks the label service for a category of a confirmed bill pattern
// or one-time expense. Suggestions are advisory and cached per merchant.
type SuggestLabelUseCase struct {
	transactionRepo adapter.TransactionRepository
	patternRepo     adapter.BillPatternRepository
	service         adapter.LabelService
	cache           adapter.LabelCache
	policy          valueobject.BillKeywordPolicy
}

// NewSuggestLabelUseCase creates a new SuggestLabelUseCase instance.
func NewSuggestLabelUseCase(
	transactionRepo adapter.TransactionRepository,
	patternRepo adapter.BillPatternRepository,
	service adapter.LabelService,
	cache adapter.LabelCache,
	policy valueobject.BillKeywordPolicy,
) *SuggestLabelUseCase {
	return &SuggestLabelUseCase{
		transactionRepo: transactionRepo,
		patternRepo:     patternRepo,
		service:         service,
		cache:           cache,
		policy:          policy,
	}
}

// Execute performs the suggestion.
func (uc *SuggestLabelUseCase) Execute(ctx context.Context, input SuggestLabelInput) (*SuggestLabelOutput, error) {
	if (input.PatternID == nil) == (input.TransactionID == nil) {
		return nil, domainerror.NewValidationError(domainerror.ErrCodeInvalidRequest, "exactly one of pattern or transaction is required", nil)
	}

	request, err := uc.buildRequest(ctx, input)
	if err != nil {
		return nil, err
	}

	if !uc.service.IsAvailable() {
		return nil, domainerror.NewUnavailableError(
			domainerror.ErrCodeLabelServiceUnavailable,
			"label service is not configured",
			domainerror.ErrLabelServiceUnavailable,
		)
	}

	key := cacheKey(request)
	if !input.Refresh {
		cached, ok, err := uc.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("Label cache read failed", "key", key, "error", err)
		} else if ok {
			return &SuggestLabelOutput{Suggestion: cached, Subject: request.Subject, FromCache: true}, nil
		}
	}

	suggestion, err := uc.service.SuggestLabel(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to get label suggestion: %w", err)
	}

	if err := uc.cache.Set(ctx, key, suggestion); err != nil {
		slog.Warn("Label cache write failed", "key", key, "error", err)
	}

	return &SuggestLabelOutput{Suggestion: suggestion, Subject: request.Subject}, nil
}

func (uc *SuggestLabelUseCase) buildRequest(ctx context.Context, input SuggestLabelInput) (*adapter.LabelRequest, error) {
	if input.PatternID != nil {
		pattern, err := uc.patternRepo.FindByID(ctx, *input.PatternID, input.UserID)
		if err != nil {
			return nil, err
		}
		return patternRequest(pattern), nil
	}

	tx, err := uc.transactionRepo.FindByID(ctx, *input.TransactionID, input.UserID)
	if err != nil {
		return nil, err
	}

	if tx.BillPatternID != nil {
		pattern, err := uc.patternRepo.FindByID(ctx, *tx.BillPatternID, input.UserID)
		if err == nil {
			return patternRequest(pattern), nil
		}
		if !domainerror.IsNotFound(err) {
			return nil, err
		}
	}

	var subject adapter.LabelSubject
	switch entity.Classify(tx, uc.policy).Kind {
	case entity.ClassificationBill:
		subject = adapter.LabelSubjectBillPattern
	case entity.ClassificationOneTime:
		subject = adapter.LabelSubjectOneTime
	default:
		return nil, domainerror.NewValidationError(
			domainerror.ErrCodeInvalidClassification,
			"transaction must be classified before it can be labeled",
			domainerror.ErrInvalidClassification,
		)
	}

	return &adapter.LabelRequest{
		Subject:     subject,
		Name:        tx.MerchantKey().DisplayName(),
		MerchantKey: tx.MerchantKey().String(),
		Description: tx.Description,
		Amount:      tx.Amount.Abs().StringFixed(2),
	}, nil
}

func patternRequest(pattern *entity.BillPattern) *adapter.LabelRequest {
	return &adapter.LabelRequest{
		Subject:     adapter.LabelSubjectBillPattern,
		Name:        pattern.Name,
		MerchantKey: pattern.MerchantKey,
		Amount:      pattern.BaseAmount.Abs().StringFixed(2),
		Frequency:   string(pattern.Frequency),
	}
}

func cacheKey(request *adapter.LabelRequest) string {
	key := request.MerchantKey
	if key == "" {
		key = request.Description
	}
	return string(request.Subject) + ":" + key
}
