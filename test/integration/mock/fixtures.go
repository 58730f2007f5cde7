package mock

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/integration/persistence/model"
)

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Transaction builds an unclassified transaction. Negative amounts are expenses.
func Transaction(userID uuid.UUID, description, amount string, date time.Time) *entity.Transaction {
	now := time.Now().UTC()
	return &entity.Transaction{
		ID:          uuid.New(),
		UserID:      userID,
		Date:        date,
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MonthlySeries builds count transactions on the same day of consecutive months.
func MonthlySeries(userID uuid.UUID, description, amount string, first time.Time, count int) []*entity.Transaction {
	txs := make([]*entity.Transaction, 0, count)
	for i := 0; i < count; i++ {
		txs = append(txs, Transaction(userID, description, amount, first.AddDate(0, i, 0)))
	}
	return txs
}

// SeedTransactions inserts transactions directly, the way ingestion would.
func (d *Db) SeedTransactions(tb testing.TB, transactions ...*entity.Transaction) {
	tb.Helper()
	for _, tx := range transactions {
		if err := d.DbConn.Create(model.TransactionFromEntity(tx)).Error; err != nil {
			tb.Fatalf("failed to seed transaction %s: %v", tx.ID, err)
		}
	}
}

// SeedOccurrences inserts occurrences directly, bypassing the schedule checks.
func (d *Db) SeedOccurrences(tb testing.TB, occurrences ...*entity.Occurrence) {
	tb.Helper()
	for _, occ := range occurrences {
		if err := d.DbConn.Create(model.OccurrenceFromEntity(occ)).Error; err != nil {
			tb.Fatalf("failed to seed occurrence %s: %v", occ.ID, err)
		}
	}
}

// SeedPattern inserts a pattern directly.
func (d *Db) SeedPattern(tb testing.TB, pattern *entity.BillPattern) {
	tb.Helper()
	if err := d.DbConn.Create(model.BillPatternFromEntity(pattern)).Error; err != nil {
		tb.Fatalf("failed to seed pattern %s: %v", pattern.ID, err)
	}
}
