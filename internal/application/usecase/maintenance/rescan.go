// Package maintenance contains the periodic re-scan use case.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/application/usecase/billpattern"
	"github.com/finance-tracker/recurring/internal/application/usecase/classification"
	"github.com/finance-tracker/recurring/internal/application/usecase/detection"
	"github.com/finance-tracker/recurring/internal/application/usecase/occurrence"
)

// RescanInput represents the input for a re-scan.
type RescanInput struct {
	UserID     *uuid.UUID // Optional, defaults to every user with transactions
	AutoCreate bool
}

// UserRescanReport summarizes the re-scan of one user.
type UserRescanReport struct {
	UserID            uuid.UUID
	Candidates        int
	CreatedPatterns   int
	Linked            int
	Placeholders      int
	DuplicatesRemoved int
	Propagated        int
	ClassifiedOneTime int
	ClassifiedBill    int
	Err               error
}

// RescanOutput represents the output of a re-scan.
type RescanOutput struct {
	Reports []UserRescanReport
	Failed  int
}

// RescanUseCase runs detection, scheduling, cleanup and propagation for users.
type RescanUseCase struct {
	transactionRepo   adapter.TransactionRepository
	patternRepo       adapter.BillPatternRepository
	detect            *detection.DetectPatternsUseCase
	classifyRemaining *detection.ClassifyRemainingUseCase
	sync              *occurrence.SyncOccurrencesUseCase
	cleanup           *billpattern.CleanupDuplicatesUseCase
	propagate         *classification.PropagateUseCase
}

// NewRescanUseCase creates a new RescanUseCase instance.
func NewRescanUseCase(
	transactionRepo adapter.TransactionRepository,
	patternRepo adapter.BillPatternRepository,
	detect *detection.DetectPatternsUseCase,
	classifyRemaining *detection.ClassifyRemainingUseCase,
	sync *occurrence.SyncOccurrencesUseCase,
	cleanup *billpattern.CleanupDuplicatesUseCase,
	propagate *classification.PropagateUseCase,
) *RescanUseCase {
	return &RescanUseCase{
		transactionRepo:   transactionRepo,
		patternRepo:       patternRepo,
		detect:            detect,
		classifyRemaining: classifyRemaining,
		sync:              sync,
		cleanup:           cleanup,
		propagate:         propagate,
	}
}

// Execute performs the re-scan. A failing user is reported and the others continue.
func (uc *RescanUseCase) Execute(ctx context.Context, input RescanInput) (*RescanOutput, error) {
	var userIDs []uuid.UUID
	if input.UserID != nil {
		userIDs = []uuid.UUID{*input.UserID}
	} else {
		ids, err := uc.transactionRepo.ListUserIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		userIDs = ids
	}

	output := &RescanOutput{Reports: make([]UserRescanReport, 0, len(userIDs))}
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		report := uc.rescanUser(ctx, userID, input.AutoCreate)
		if report.Err != nil {
			output.Failed++
			slog.Error("Re-scan failed", "user_id", userID, "error", report.Err)
		}
		output.Reports = append(output.Reports, report)
	}
	return output, nil
}

func (uc *RescanUseCase) rescanUser(ctx context.Context, userID uuid.UUID, autoCreate bool) UserRescanReport {
	report := UserRescanReport{UserID: userID}

	detected, err := uc.detect.Execute(ctx, detection.DetectPatternsInput{
		UserID:     userID,
		AutoCreate: autoCreate,
		Refresh:    true,
	})
	if err != nil {
		report.Err = fmt.Errorf("detection: %w", err)
		return report
	}
	report.Candidates = len(detected.Candidates)
	report.CreatedPatterns = len(detected.CreatedPatternIDs)

	patterns, err := uc.patternRepo.FindByUserID(ctx, userID)
	if err != nil {
		report.Err = fmt.Errorf("load patterns: %w", err)
		return report
	}
	for _, pattern := range patterns {
		synced, err := uc.sync.Execute(ctx, occurrence.SyncOccurrencesInput{UserID: userID, PatternID: pattern.ID})
		if err != nil {
			slog.Warn("Scheduling failed during re-scan", "pattern_id", pattern.ID, "error", err)
			continue
		}
		report.Linked += synced.Stats.Linked
		report.Placeholders += synced.Stats.Placeholders
	}

	cleaned, err := uc.cleanup.Execute(ctx, billpattern.CleanupDuplicatesInput{UserID: userID})
	if err != nil {
		report.Err = fmt.Errorf("cleanup: %w", err)
		return report
	}
	report.DuplicatesRemoved = cleaned.Removed

	propagated, err := uc.propagate.Execute(ctx, classification.PropagateInput{UserID: userID})
	if err != nil {
		report.Err = fmt.Errorf("propagation: %w", err)
		return report
	}
	report.Propagated = propagated.Updated + propagated.Detached

	classified, err := uc.classifyRemaining.Execute(ctx, detection.ClassifyRemainingInput{UserID: userID})
	if err != nil {
		report.Err = fmt.Errorf("classify remaining: %w", err)
		return report
	}
	report.ClassifiedBill = classified.MarkedBill
	report.ClassifiedOneTime = classified.MarkedOneTime

	return report
}
