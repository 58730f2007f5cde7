package occurrence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finance-tracker/recurring/internal/domain/entity"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
	"github.com/finance-tracker/recurring/test/integration/mock"
)

func netflixPattern(userID uuid.UUID) *entity.BillPattern {
	return entity.NewBillPattern(
		userID,
		"Netflix",
		"netflix",
		valueobject.FrequencyMonthly,
		decimal.RequireFromString("-15.99"),
		mock.Date(2024, 1, 5),
		nil,
		0.95,
	)
}

func TestPlanSchedule(t *testing.T) {
	cfg := valueobject.DefaultDetectionConfig()
	userID := uuid.New()

	t.Run("links matching transactions and fills gaps with placeholders", func(t *testing.T) {
		pattern := netflixPattern(userID)
		first := mock.Transaction(userID, "Netflix", "-15.99", mock.Date(2024, 1, 5))
		first.LinkToPattern(pattern.ID, entity.SourcePatternCreation)
		feb := mock.Transaction(userID, "Netflix", "-15.99", mock.Date(2024, 2, 6))
		mar := mock.Transaction(userID, "Netflix", "-15.99", mock.Date(2024, 3, 5))
		occurrences := []*entity.Occurrence{entity.NewLinkedOccurrence(pattern.ID, first)}
		transactions := []*entity.Transaction{first, feb, mar}

		changes, stats := planSchedule(pattern, occurrences, transactions, pattern.StartDate, mock.Date(2024, 4, 30), cfg)

		assert.Equal(t, ScheduleStats{Linked: 2, Placeholders: 1}, stats)
		require.Len(t, changes.CreateOccurrences, 3)
		assert.Empty(t, changes.UpdateOccurrences)
		assert.Empty(t, changes.DeleteOccurrences)
		assert.Nil(t, changes.UpdatePattern)

		assert.Equal(t, mock.Date(2024, 2, 6), changes.CreateOccurrences[0].DueDate)
		assert.True(t, changes.CreateOccurrences[0].IsLinkedTo(feb.ID))
		assert.True(t, changes.CreateOccurrences[1].IsLinkedTo(mar.ID))
		assert.Equal(t, mock.Date(2024, 4, 5), changes.CreateOccurrences[2].DueDate)
		assert.False(t, changes.CreateOccurrences[2].IsLinked())
		assert.Equal(t, entity.OccurrenceStatusPending, changes.CreateOccurrences[2].Status)

		require.Len(t, changes.Transactions, 2)
		for _, tx := range changes.Transactions {
			assert.True(t, tx.IsLinkedTo(pattern.ID))
			assert.Equal(t, entity.SecondaryTypeBill, tx.SecondaryType)
			assert.Equal(t, entity.SourcePatternCreation, tx.ClassificationSource)
		}

		t.Run("planning again changes nothing", func(t *testing.T) {
			next := append(append([]*entity.Occurrence{}, occurrences...), changes.CreateOccurrences...)

			again, againStats := planSchedule(pattern, next, transactions, pattern.StartDate, mock.Date(2024, 4, 30), cfg)

			assert.True(t, again.IsEmpty())
			assert.Equal(t, ScheduleStats{}, againStats)
		})
	})

	t.Run("a placeholder is moved onto the paid date and refreshes the base amount", func(t *testing.T) {
		pattern := netflixPattern(userID)
		first := mock.Transaction(userID, "Netflix", "-15.99", mock.Date(2024, 1, 5))
		first.LinkToPattern(pattern.ID, entity.SourcePatternCreation)
		placeholder := entity.NewPlaceholderOccurrence(pattern.ID, mock.Date(2024, 2, 5), pattern.BaseAmount)
		late := mock.Transaction(userID, "Netflix", "-16.50", mock.Date(2024, 2, 7))
		occurrences := []*entity.Occurrence{entity.NewLinkedOccurrence(pattern.ID, first), placeholder}

		changes, stats := planSchedule(pattern, occurrences, []*entity.Transaction{first, late}, pattern.StartDate, mock.Date(2024, 2, 28), cfg)

		assert.Equal(t, ScheduleStats{Linked: 1}, stats)
		assert.Empty(t, changes.CreateOccurrences)
		require.Len(t, changes.UpdateOccurrences, 1)
		assert.Equal(t, placeholder.ID, changes.UpdateOccurrences[0].ID)
		assert.Equal(t, mock.Date(2024, 2, 7), changes.UpdateOccurrences[0].DueDate)
		assert.True(t, changes.UpdateOccurrences[0].IsLinkedTo(late.ID))
		assert.Equal(t, entity.OccurrenceStatusPaid, changes.UpdateOccurrences[0].Status)

		require.NotNil(t, changes.UpdatePattern)
		assert.Equal(t, "-16.25", changes.UpdatePattern.BaseAmount.String())
	})

	t.Run("duplicate placeholders in one window collapse when a payment links", func(t *testing.T) {
		pattern := netflixPattern(userID)
		a := entity.NewPlaceholderOccurrence(pattern.ID, mock.Date(2024, 1, 4), pattern.BaseAmount)
		b := entity.NewPlaceholderOccurrence(pattern.ID, mock.Date(2024, 1, 6), pattern.BaseAmount)
		paid := mock.Transaction(userID, "Netflix", "-15.99", mock.Date(2024, 1, 5))

		changes, stats := planSchedule(pattern, []*entity.Occurrence{a, b}, []*entity.Transaction{paid}, pattern.StartDate, mock.Date(2024, 1, 31), cfg)

		assert.Equal(t, 1, stats.Linked)
		assert.Equal(t, 1, stats.Removed)
		assert.Len(t, changes.UpdateOccurrences, 1)
		assert.Len(t, changes.DeleteOccurrences, 1)
	})

	t.Run("ignores transactions the pattern may not claim", func(t *testing.T) {
		pattern := netflixPattern(userID)
		other := mock.Transaction(userID, "Spotify", "-15.99", mock.Date(2024, 1, 5))
		oneTime := mock.Transaction(userID, "Netflix", "-15.99", mock.Date(2024, 2, 5))
		oneTime.SecondaryType = entity.SecondaryTypeOneTime
		oneTime.ClassificationSource = entity.SourceUser
		tooExpensive := mock.Transaction(userID, "Netflix", "-29.99", mock.Date(2024, 3, 5))
		elsewhere := mock.Transaction(userID, "Netflix", "-15.99", mock.Date(2024, 4, 5))
		elsewhere.LinkToPattern(uuid.New(), entity.SourcePatternCreation)

		changes, stats := planSchedule(pattern, nil, []*entity.Transaction{other, oneTime, tooExpensive, elsewhere},
			pattern.StartDate, mock.Date(2024, 4, 30), cfg)

		assert.Equal(t, ScheduleStats{Placeholders: 4}, stats)
		assert.Len(t, changes.CreateOccurrences, 4)
		assert.Empty(t, changes.Transactions)
	})

	t.Run("an empty window plans nothing", func(t *testing.T) {
		pattern := netflixPattern(userID)

		changes, stats := planSchedule(pattern, nil, nil, mock.Date(2024, 6, 1), mock.Date(2024, 5, 1), cfg)

		assert.True(t, changes.IsEmpty())
		assert.Equal(t, ScheduleStats{}, stats)
	})
}

func TestProjectView(t *testing.T) {
	patternID := uuid.New()
	userID := uuid.New()
	linked := func(y int) *entity.Occurrence {
		return entity.NewLinkedOccurrence(patternID, mock.Transaction(userID, "Netflix", "-15.99", mock.Date(y, 3, 5)))
	}
	placeholder := entity.NewPlaceholderOccurrence(patternID, mock.Date(2022, 6, 5), decimal.RequireFromString("-15.99"))
	occurrences := []*entity.Occurrence{linked(2022), placeholder, linked(2023), linked(2023), linked(2024)}

	t.Run("all time shows everything", func(t *testing.T) {
		view := ProjectView(occurrences, valueobject.AllTime())

		assert.Len(t, view.Visible, 5)
		assert.Equal(t, 0, view.HiddenLinked.Total)
		assert.Empty(t, view.Summary)
	})

	t.Run("linked occurrences outside the range are counted per year", func(t *testing.T) {
		start := mock.Date(2024, 1, 1)
		view := ProjectView(occurrences, valueobject.NewDateRange(&start, nil))

		assert.Len(t, view.Visible, 1)
		assert.Equal(t, 3, view.HiddenLinked.Total)
		assert.Equal(t, map[int]int{2022: 1, 2023: 2}, view.HiddenLinked.ByYear)
		assert.Equal(t,
			"3 linked transactions are outside the selected date range (1 in 2022, 2 in 2023). Widen the date filter to see them.",
			view.Summary)
	})

	t.Run("an inverted range hides every occurrence", func(t *testing.T) {
		start, end := mock.Date(2024, 12, 31), mock.Date(2024, 1, 1)
		view := ProjectView(occurrences, valueobject.NewDateRange(&start, &end))

		assert.Empty(t, view.Visible)
		assert.Equal(t, 4, view.HiddenLinked.Total)
	})
}
