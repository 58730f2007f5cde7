package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
	"github.com/finance-tracker/recurring/internal/integration/persistence/model"
)

// billPatternRepository implements the adapter.BillPatternRepository interface.
type billPatternRepository struct {
	db *gorm.DB
}

// NewBillPatternRepository creates a new bill pattern repository instance.
func NewBillPatternRepository(db *gorm.DB) adapter.BillPatternRepository {
	return &billPatternRepository{
		db: db,
	}
}

// FindByID retrieves a pattern owned by the user.
func (r *billPatternRepository) FindByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*entity.BillPattern, error) {
	var patternModel model.BillPatternModel
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&patternModel)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domainerror.NewNotFoundError(
				domainerror.ErrCodeBillPatternNotFound,
				"bill pattern not found",
				domainerror.ErrBillPatternNotFound,
			)
		}
		return nil, result.Error
	}
	return patternModel.ToEntity(), nil
}

// FindByUserID retrieves all patterns of a user ordered by name.
func (r *billPatternRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.BillPattern, error) {
	var patternModels []model.BillPatternModel
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name ASC, created_at ASC").
		Find(&patternModels)
	if result.Error != nil {
		return nil, result.Error
	}

	patterns := make([]*entity.BillPattern, len(patternModels))
	for i := range patternModels {
		patterns[i] = patternModels[i].ToEntity()
	}
	return patterns, nil
}

// FindOccurrences retrieves a pattern's occurrences ordered by due date.
func (r *billPatternRepository) FindOccurrences(ctx context.Context, patternID uuid.UUID) ([]*entity.Occurrence, error) {
	return findOccurrences(r.db.WithContext(ctx), patternID)
}

// ApplyChanges applies a change set in one database transaction. Before committing it
// re-reads the affected schedules and rejects a result with two occurrences on one date
// or with a confirmed transaction that no longer has an occurrence.
func (r *billPatternRepository) ApplyChanges(ctx context.Context, changes *adapter.PatternChangeSet) error {
	if changes.IsEmpty() {
		return nil
	}

	// Use transaction to ensure atomicity
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		before, err := linkedTransactionIDs(tx, changes)
		if err != nil {
			return err
		}

		if changes.CreatePattern != nil {
			if err := tx.Create(model.BillPatternFromEntity(changes.CreatePattern)).Error; err != nil {
				return fmt.Errorf("failed to create bill pattern: %w", err)
			}
		}
		if changes.UpdatePattern != nil {
			if err := tx.Save(model.BillPatternFromEntity(changes.UpdatePattern)).Error; err != nil {
				return fmt.Errorf("failed to update bill pattern: %w", err)
			}
		}

		for _, occ := range changes.DeleteOccurrences {
			if err := tx.Delete(&model.OccurrenceModel{}, "id = ?", occ.ID).Error; err != nil {
				return fmt.Errorf("failed to delete occurrence: %w", err)
			}
		}
		for _, occ := range changes.UpdateOccurrences {
			if err := tx.Save(model.OccurrenceFromEntity(occ)).Error; err != nil {
				return fmt.Errorf("failed to update occurrence: %w", err)
			}
		}
		for _, occ := range changes.CreateOccurrences {
			if err := tx.Create(model.OccurrenceFromEntity(occ)).Error; err != nil {
				return fmt.Errorf("failed to create occurrence: %w", err)
			}
		}

		if err := writeClassifications(tx, changes.Transactions); err != nil {
			return err
		}

		if changes.DeletePattern {
			if err := tx.Delete(&model.BillPatternModel{}, "id = ?", changes.PatternID).Error; err != nil {
				return fmt.Errorf("failed to delete bill pattern: %w", err)
			}
		}

		return verifySchedules(tx, changes, before)
	})
}

func findOccurrences(db *gorm.DB, patternID uuid.UUID) ([]*entity.Occurrence, error) {
	var occurrenceModels []model.OccurrenceModel
	result := db.
		Where("bill_pattern_id = ?", patternID).
		Order("due_date ASC, created_at ASC").
		Find(&occurrenceModels)
	if result.Error != nil {
		return nil, result.Error
	}

	occurrences := make([]*entity.Occurrence, len(occurrenceModels))
	for i := range occurrenceModels {
		occurrences[i] = occurrenceModels[i].ToEntity()
	}
	return occurrences, nil
}

// affectedPatterns returns the patterns whose schedules a change set touches.
func affectedPatterns(changes *adapter.PatternChangeSet) []uuid.UUID {
	ids := []uuid.UUID{changes.PatternID}
	if changes.MergeIntoID != nil {
		ids = append(ids, *changes.MergeIntoID)
	}
	return ids
}

// linkedTransactionIDs returns the transactions confirming occurrences of the affected patterns.
func linkedTransactionIDs(tx *gorm.DB, changes *adapter.PatternChangeSet) (map[uuid.UUID]struct{}, error) {
	linked := make(map[uuid.UUID]struct{})
	for _, patternID := range affectedPatterns(changes) {
		occurrences, err := findOccurrences(tx, patternID)
		if err != nil {
			return nil, err
		}
		for _, occ := range occurrences {
			if occ.IsLinked() {
				linked[*occ.BankTransactionID] = struct{}{}
			}
		}
	}
	return linked, nil
}

// verifySchedules enforces one occurrence per date and that confirmed transactions survive,
// unless the change set explicitly cascades.
func verifySchedules(tx *gorm.DB, changes *adapter.PatternChangeSet, before map[uuid.UUID]struct{}) error {
	after := make(map[uuid.UUID]struct{})
	for _, patternID := range affectedPatterns(changes) {
		occurrences, err := findOccurrences(tx, patternID)
		if err != nil {
			return err
		}

		dates := make(map[time.Time]uuid.UUID, len(occurrences))
		for _, occ := range occurrences {
			date := valueobject.CalendarDate(occ.DueDate)
			if _, ok := dates[date]; ok {
				return domainerror.NewConflictError(
					domainerror.ErrCodeOccurrenceAlreadyLinked,
					fmt.Sprintf("bill pattern already has an occurrence on %s", date.Format(valueobject.DateLayout)),
					domainerror.ErrOccurrenceAlreadyLinked,
				)
			}
			dates[date] = occ.ID
			if occ.IsLinked() {
				after[*occ.BankTransactionID] = struct{}{}
			}
		}
	}

	if changes.AllowLinkedDeletion {
		return nil
	}
	for id := range before {
		if _, ok := after[id]; ok {
			continue
		}
		if unlinkedOnPurpose(changes, id) {
			continue
		}
		return domainerror.NewInvariantViolation(
			domainerror.ErrCodeLinkedOccurrenceWouldBeDeleted,
			fmt.Sprintf("change would delete the occurrence confirmed by transaction %s", id),
			domainerror.ErrLinkedOccurrenceWouldBeDeleted,
		)
	}
	return nil
}

// unlinkedOnPurpose reports whether the change set detaches the transaction itself.
func unlinkedOnPurpose(changes *adapter.PatternChangeSet, transactionID uuid.UUID) bool {
	for _, occ := range changes.UpdateOccurrences {
		if occ.BankTransactionID == nil {
			for _, tx := range changes.Transactions {
				if tx.ID == transactionID && tx.BillPatternID == nil {
					return true
				}
			}
		}
	}
	return false
}
