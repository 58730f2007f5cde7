package entity

import (
	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/domain/valueobject"
)

// ClassificationKind is the closed set of bill / one-time states.
type ClassificationKind string

const (
	ClassificationUnclassified ClassificationKind = "unclassified"
	ClassificationBill         ClassificationKind = "bill"
	ClassificationOneTime      ClassificationKind = "one-time expense"
)

// Classification is the effective bill / one-time state of a transaction.
// PatternID is only set for bills that belong to a pattern.
type Classification struct {
	Kind      ClassificationKind
	PatternID *uuid.UUID
	Source    ClassificationSource
}

// Unclassified returns the initial state.
func Unclassified() Classification {
	return Classification{Kind: ClassificationUnclassified}
}

// Bill returns a bill classification, optionally tied to a pattern.
func Bill(patternID *uuid.UUID, source ClassificationSource) Classification {
	return Classification{Kind: ClassificationBill, PatternID: patternID, Source: source}
}

// OneTime returns a one-time expense classification.
func OneTime(source ClassificationSource) Classification {
	return Classification{Kind: ClassificationOneTime, Source: source}
}

// IsBill reports whether the classification is a bill.
func (c Classification) IsBill() bool {
	return c.Kind == ClassificationBill
}

// SecondaryType returns the persisted representation of the classification.
func (c Classification) SecondaryType() SecondaryType {
	switch c.Kind {
	case ClassificationBill:
		return SecondaryTypeBill
	case ClassificationOneTime:
		return SecondaryTypeOneTime
	}
	return SecondaryTypeNone
}

// Classify resolves a transaction's classification in priority order:
// explicit user choice, pattern membership, keyword heuristic, then any lower-priority stored value.
func Classify(tx *Transaction, isBillText valueobject.BillKeywordPolicy) Classification {
	if tx.IsUserClassified() {
		if tx.SecondaryType == SecondaryTypeBill {
			return Bill(tx.BillPatternID, SourceUser)
		}
		return OneTime(SourceUser)
	}

	if tx.BillPatternID != nil {
		return Bill(tx.BillPatternID, SourcePatternCreation)
	}

	if isBillText != nil && isBillText(tx.Text()) {
		return Bill(nil, SourceHeuristic)
	}

	switch tx.SecondaryType {
	case SecondaryTypeBill:
		return Bill(nil, tx.ClassificationSource)
	case SecondaryTypeOneTime:
		return OneTime(tx.ClassificationSource)
	}
	return Unclassified()
}

// IsBill answers "is this transaction a bill?". It is derived from Classify so both always agree.
func IsBill(tx *Transaction, isBillText valueobject.BillKeywordPolicy) bool {
	return Classify(tx, isBillText).IsBill()
}
