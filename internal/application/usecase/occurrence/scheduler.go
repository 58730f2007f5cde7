// Package occurrence contains the occurrence scheduling, linking and view use cases.
package occurrence

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// ScheduleStats counts what one scheduling pass changed.
type ScheduleStats struct {
	Linked       int
	Placeholders int
	Removed      int
}

// schedule tracks the live occurrences of a pattern while a change set is planned.
type schedule struct {
	changes *adapter.PatternChangeSet
	live    []*entity.Occurrence
	created map[uuid.UUID]struct{}
	updated map[uuid.UUID]struct{}
}

func newSchedule(patternID uuid.UUID, occurrences []*entity.Occurrence) *schedule {
	live := make([]*entity.Occurrence, len(occurrences))
	copy(live, occurrences)
	return &schedule{
		changes: adapter.NewPatternChangeSet(patternID),
		live:    live,
		created: make(map[uuid.UUID]struct{}),
		updated: make(map[uuid.UUID]struct{}),
	}
}

func (s *schedule) create(occ *entity.Occurrence) {
	s.live = append(s.live, occ)
	s.created[occ.ID] = struct{}{}
	s.changes.CreateOccurrences = append(s.changes.CreateOccurrences, occ)
}

func (s *schedule) update(occ *entity.Occurrence) {
	if _, ok := s.created[occ.ID]; ok {
		return
	}
	if _, ok := s.updated[occ.ID]; ok {
		return
	}
	s.updated[occ.ID] = struct{}{}
	s.changes.UpdateOccurrences = append(s.changes.UpdateOccurrences, occ)
}

func (s *schedule) remove(occ *entity.Occurrence) {
	s.live = removeOccurrence(s.live, occ.ID)
	if _, ok := s.created[occ.ID]; ok {
		delete(s.created, occ.ID)
		s.changes.CreateOccurrences = removeOccurrence(s.changes.CreateOccurrences, occ.ID)
		return
	}
	if _, ok := s.updated[occ.ID]; ok {
		delete(s.updated, occ.ID)
		s.changes.UpdateOccurrences = removeOccurrence(s.changes.UpdateOccurrences, occ.ID)
	}
	s.changes.DeleteOccurrences = append(s.changes.DeleteOccurrences, occ)
}

// window returns the live occurrences due within ±days of d.
func (s *schedule) window(d time.Time, days int) []*entity.Occurrence {
	var found []*entity.Occurrence
	for _, occ := range s.live {
		if valueobject.AbsDaysBetween(occ.DueDate, d) <= days {
			found = append(found, occ)
		}
	}
	return found
}

// linkTransaction attaches tx to the best occurrence near its date, creating one when needed.
// Other placeholders in the window are dropped so the period keeps a single occurrence.
func (s *schedule) linkTransaction(patternID uuid.UUID, tx *entity.Transaction, days int) *entity.Occurrence {
	candidates := s.window(tx.Date, days)

	var target *entity.Occurrence
	for _, occ := range candidates {
		if !occ.IsLinked() && valueobject.DaysBetween(occ.DueDate, tx.Date) == 0 {
			target = occ
			break
		}
	}
	if target == nil {
		for _, occ := range candidates {
			if occ.IsLinked() {
				continue
			}
			if target == nil || valueobject.AbsDaysBetween(occ.DueDate, tx.Date) < valueobject.AbsDaysBetween(target.DueDate, tx.Date) {
				target = occ
			}
		}
	}

	if target != nil {
		target.DueDate = valueobject.CalendarDate(tx.Date)
		target.Link(tx)
		s.update(target)
	} else {
		target = entity.NewLinkedOccurrence(patternID, tx)
		s.create(target)
	}

	for _, occ := range candidates {
		if occ.ID != target.ID && !occ.IsLinked() {
			s.remove(occ)
		}
	}
	return target
}

// planSchedule projects the pattern's expected dates in [from, through] and plans the
// occurrence writes that make the schedule complete. It never touches linked occurrences
// and is idempotent: planning again on the result yields an empty change set.
func planSchedule(
	pattern *entity.BillPattern,
	occurrences []*entity.Occurrence,
	transactions []*entity.Transaction,
	from, through time.Time,
	cfg valueobject.DetectionConfig,
) (*adapter.PatternChangeSet, ScheduleStats) {
	var stats ScheduleStats
	s := newSchedule(pattern.ID, occurrences)
	days := cfg.DateWindowDays

	claimed := make(map[uuid.UUID]struct{})
	for _, occ := range occurrences {
		if occ.IsLinked() {
			claimed[*occ.BankTransactionID] = struct{}{}
		}
	}
	eligible := eligibleTransactions(pattern, transactions, claimed)

	for _, d := range pattern.Frequency.ProjectDates(pattern.StartDate, from, through) {
		inWindow := s.window(d, days)
		if hasLinked(inWindow) {
			continue
		}

		if tx := bestMatch(eligible, claimed, d, pattern.BaseAmount, cfg); tx != nil {
			before := len(s.changes.DeleteOccurrences)
			s.linkTransaction(pattern.ID, tx, days)
			stats.Removed += len(s.changes.DeleteOccurrences) - before
			claimed[tx.ID] = struct{}{}

			tx.LinkToPattern(pattern.ID, entity.SourcePatternCreation)
			s.changes.TouchTransaction(tx)
			stats.Linked++
			continue
		}

		if len(inWindow) == 0 {
			s.create(entity.NewPlaceholderOccurrence(pattern.ID, d, pattern.BaseAmount))
			stats.Placeholders++
		}
	}

	if stats.Linked > 0 && refreshBaseAmount(pattern, s.live, cfg.DriftSampleSize) {
		s.changes.UpdatePattern = pattern
	}

	return s.changes, stats
}

// eligibleTransactions keeps transactions of the pattern's merchant that the scheduler may link.
func eligibleTransactions(pattern *entity.BillPattern, transactions []*entity.Transaction, claimed map[uuid.UUID]struct{}) []*entity.Transaction {
	var eligible []*entity.Transaction
	for _, tx := range transactions {
		if tx.Date.IsZero() || tx.Amount.Sign() != pattern.BaseAmount.Sign() {
			continue
		}
		if tx.BillPatternID != nil && *tx.BillPatternID != pattern.ID {
			continue
		}
		if tx.IsUserOneTime() || pattern.Excludes(tx.ID) {
			continue
		}
		if _, ok := claimed[tx.ID]; ok {
			continue
		}
		if tx.MerchantKey().String() != pattern.MerchantKey {
			continue
		}
		eligible = append(eligible, tx)
	}
	return eligible
}

// bestMatch picks the unclaimed transaction closest to d, then closest to the base amount.
func bestMatch(
	transactions []*entity.Transaction,
	claimed map[uuid.UUID]struct{},
	d time.Time,
	base decimal.Decimal,
	cfg valueobject.DetectionConfig,
) *entity.Transaction {
	var best *entity.Transaction
	bestDays := 0
	for _, tx := range transactions {
		if _, ok := claimed[tx.ID]; ok {
			continue
		}
		dist := valueobject.AbsDaysBetween(tx.Date, d)
		if dist > cfg.DateWindowDays || !cfg.IsWithinAmountTolerance(tx.Amount, base) {
			continue
		}
		if best == nil || dist < bestDays || (dist == bestDays && closerAmount(tx, best, base)) {
			best = tx
			bestDays = dist
		}
	}
	return best
}

func closerAmount(a, b *entity.Transaction, base decimal.Decimal) bool {
	da := a.Amount.Sub(base).Abs()
	db := b.Amount.Sub(base).Abs()
	if c := da.Cmp(db); c != 0 {
		return c < 0
	}
	return a.ID.String() < b.ID.String()
}

// refreshBaseAmount sets the base amount to the median of the most recent linked amounts.
// It reports whether the amount changed.
func refreshBaseAmount(pattern *entity.BillPattern, occurrences []*entity.Occurrence, sampleSize int) bool {
	linked := make([]*entity.Occurrence, 0, len(occurrences))
	for _, occ := range occurrences {
		if occ.IsLinked() {
			linked = append(linked, occ)
		}
	}
	if len(linked) == 0 || sampleSize <= 0 {
		return false
	}

	sort.Slice(linked, func(i, j int) bool {
		return linked[i].DueDate.After(linked[j].DueDate)
	})
	if len(linked) > sampleSize {
		linked = linked[:sampleSize]
	}

	amounts := make([]decimal.Decimal, 0, len(linked))
	for _, occ := range linked {
		amounts = append(amounts, occ.Amount)
	}
	median := valueobject.MedianAmount(amounts)
	if median.Equal(pattern.BaseAmount) {
		return false
	}

	pattern.BaseAmount = median
	pattern.UpdatedAt = time.Now().UTC()
	return true
}

func hasLinked(occurrences []*entity.Occurrence) bool {
	for _, occ := range occurrences {
		if occ.IsLinked() {
			return true
		}
	}
	return false
}

func removeOccurrence(list []*entity.Occurrence, id uuid.UUID) []*entity.Occurrence {
	out := list[:0]
	for _, occ := range list {
		if occ.ID != id {
			out = append(out, occ)
		}
	}
	return out
}
