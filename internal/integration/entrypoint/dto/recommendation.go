package dto

import (
	"github.com/finance-tracker/recurring/internal/application/adapter"
	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// AcceptRecommendationRequest represents the request body for accepting a recommendation.
type AcceptRecommendationRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
	BillPatternID string `json:"bill_pattern_id" binding:"required,uuid"`
}

// ScoreBreakdownResponse represents the weighted components of a match score.
type ScoreBreakdownResponse struct {
	Text       float64 `json:"text"`
	Amount     float64 `json:"amount"`
	Category   float64 `json:"category"`
	Recurrence float64 `json:"recurrence"`
}

// RecommendationResponse represents a suggested transaction-to-pattern link.
type RecommendationResponse struct {
	Transaction     TransactionSummaryResponse `json:"transaction"`
	BillPatternID   string                     `json:"bill_pattern_id"`
	BillPatternName string                     `json:"bill_pattern_name"`
	Score           float64                    `json:"score"`
	Breakdown       ScoreBreakdownResponse     `json:"breakdown"`
}

// RecommendationListResponse represents the response for listing recommendations.
type RecommendationListResponse struct {
	Recommendations []RecommendationResponse `json:"recommendations"`
}

// LabelSuggestionResponse represents an advisory category label.
type LabelSuggestionResponse struct {
	Subject    string  `json:"subject"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
	FromCache  bool    `json:"from_cache"`
}

// ToRecommendationListResponse converts match candidates to a RecommendationListResponse DTO.
func ToRecommendationListResponse(matches []*entity.MatchCandidate) RecommendationListResponse {
	recommendations := make([]RecommendationResponse, len(matches))
	for i, m := range matches {
		recommendations[i] = RecommendationResponse{
			Transaction:     ToTransactionSummaryResponse(m.Transaction),
			BillPatternID:   m.Pattern.ID.String(),
			BillPatternName: m.Pattern.Name,
			Score:           m.Score,
			Breakdown: ScoreBreakdownResponse{
				Text:       m.Breakdown.Text,
				Amount:     m.Breakdown.Amount,
				Category:   m.Breakdown.Category,
				Recurrence: m.Breakdown.Recurrence,
			},
		}
	}
	return RecommendationListResponse{Recommendations: recommendations}
}

// ToLabelSuggestionResponse converts a label suggestion to a LabelSuggestionResponse DTO.
func ToLabelSuggestionResponse(subject adapter.LabelSubject, suggestion *adapter.LabelSuggestion, fromCache bool) LabelSuggestionResponse {
	return LabelSuggestionResponse{
		Subject:    string(subject),
		Category:   suggestion.Category,
		Confidence: suggestion.Confidence,
		Reasoning:  suggestion.Reasoning,
		FromCache:  fromCache,
	}
}
