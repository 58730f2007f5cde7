package adapter

import "context"

// LabelSubject tells the label service what is being labeled.
type LabelSubject string

const (
	LabelSubjectBillPattern LabelSubject = "bill pattern"
	LabelSubjectOneTime     LabelSubject = "one-time expense"
)

// LabelRequest describes a confirmed bill pattern or one-time expense.
type LabelRequest struct {
	Subject     LabelSubject
	Name        string
	MerchantKey string
	Description string
	Amount      string
	Frequency   string
}

// LabelSuggestion is an advisory category label.
type LabelSuggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// LabelService suggests category labels. Its output never affects detection, linking, or classification.
type LabelService interface {
	// SuggestLabel returns a category label for the subject.
	SuggestLabel(ctx context.Context, request *LabelRequest) (*LabelSuggestion, error)

	// IsAvailable checks if the service is properly configured.
	IsAvailable() bool
}
