// Package classification contains the bill / one-time classification use cases.
package classification

import (
	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// Detach removes a transaction from its pattern inside a change set.
// The occurrence it confirmed reverts to a pending placeholder so the timeline stays continuous.
func Detach(pattern *entity.BillPattern, occurrences []*entity.Occurrence, tx *entity.Transaction, changes *adapter.PatternChangeSet) {
	for _, occ := range occurrences {
		if occ.IsLinkedTo(tx.ID) {
			occ.Unlink(pattern.BaseAmount)
			changes.UpdateOccurrences = append(changes.UpdateOccurrences, occ)
		}
	}
	tx.Unlink()
	changes.TouchTransaction(tx)
}
