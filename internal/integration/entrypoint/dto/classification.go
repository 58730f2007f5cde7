package dto

import (
	"github.com/finance-tracker/recurring/internal/application/usecase/classification"
	"github.com/finance-tracker/recurring/internal/application/usecase/detection"
	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// BatchClassificationItemRequest represents one requested classification change.
// Secondary type and source are validated per item so one bad item does not fail the batch.
type BatchClassificationItemRequest struct {
	TransactionID        string  `json:"transaction_id" binding:"required,uuid"`
	SecondaryType        string  `json:"secondary_type,omitempty"`
	CategoryID           *string `json:"category_id,omitempty" binding:"omitempty,uuid"`
	ClassificationSource string  `json:"classification_source,omitempty"`
}

// BatchClassificationRequest represents the request body for batch classification updates.
type BatchClassificationRequest struct {
	Items []BatchClassificationItemRequest `json:"items" binding:"required,min=1,max=500,dive"`
}

// PropagateRequest represents the request body for classification propagation.
type PropagateRequest struct {
	BillPatternID *string `json:"bill_pattern_id,omitempty" binding:"omitempty,uuid"`
}

// ItemOutcomeResponse represents the outcome of one batch item.
type ItemOutcomeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Code          string `json:"code,omitempty"`
	Message       string `json:"message,omitempty"`
}

// BatchClassificationResponse represents the per-item result of a batch update.
type BatchClassificationResponse struct {
	Results []ItemOutcomeResponse `json:"results"`
	Counts  map[string]int        `json:"counts"`
}

// ClassifyRemainingResponse represents the result of heuristic classification.
type ClassifyRemainingResponse struct {
	MarkedBill    int `json:"marked_bill"`
	MarkedOneTime int `json:"marked_one_time"`
	Skipped       int `json:"skipped"`
}

// PatternPropagationResponse represents the propagation result of one pattern.
type PatternPropagationResponse struct {
	BillPatternID string `json:"bill_pattern_id"`
	Updated       int    `json:"updated"`
	Detached      int    `json:"detached"`
	Error         string `json:"error,omitempty"`
}

// PropagateResponse represents the result of classification propagation.
type PropagateResponse struct {
	Updated  int                          `json:"updated"`
	Detached int                          `json:"detached"`
	Results  []PatternPropagationResponse `json:"results"`
}

// TransactionClassificationResponse represents the classification of one transaction.
type TransactionClassificationResponse struct {
	TransactionID        string  `json:"transaction_id"`
	Classification       string  `json:"classification"`
	IsBill               bool    `json:"is_bill"`
	SecondaryType        string  `json:"secondary_type,omitempty"`
	BillPatternID        *string `json:"bill_pattern_id,omitempty"`
	ClassificationSource string  `json:"classification_source,omitempty"`
	CategoryID           *string `json:"category_id,omitempty"`
}

// ToBatchClassificationResponse converts a BatchUpdateOutput to a BatchClassificationResponse DTO.
func ToBatchClassificationResponse(output *classification.BatchUpdateOutput) BatchClassificationResponse {
	response := BatchClassificationResponse{
		Results: make([]ItemOutcomeResponse, len(output.Outcomes)),
		Counts:  make(map[string]int, len(output.Counts)),
	}
	for i, o := range output.Outcomes {
		response.Results[i] = ItemOutcomeResponse{
			TransactionID: o.TransactionID.String(),
			Status:        string(o.Status),
			Code:          o.Code,
			Message:       o.Message,
		}
	}
	for status, count := range output.Counts {
		response.Counts[string(status)] = count
	}
	return response
}

// ToClassifyRemainingResponse converts a ClassifyRemainingOutput to a ClassifyRemainingResponse DTO.
func ToClassifyRemainingResponse(output *detection.ClassifyRemainingOutput) ClassifyRemainingResponse {
	return ClassifyRemainingResponse{
		MarkedBill:    output.MarkedBill,
		MarkedOneTime: output.MarkedOneTime,
		Skipped:       output.Skipped,
	}
}

// ToPropagateResponse converts a PropagateOutput to a PropagateResponse DTO.
func ToPropagateResponse(output *classification.PropagateOutput) PropagateResponse {
	response := PropagateResponse{
		Updated:  output.Updated,
		Detached: output.Detached,
		Results:  make([]PatternPropagationResponse, len(output.Results)),
	}
	for i, r := range output.Results {
		response.Results[i] = PatternPropagationResponse{
			BillPatternID: r.PatternID.String(),
			Updated:       r.Updated,
			Detached:      r.Detached,
		}
		if r.Err != nil {
			response.Results[i].Error = r.Err.Error()
		}
	}
	return response
}

// ToTransactionClassificationResponse converts a GetClassificationOutput to a TransactionClassificationResponse DTO.
func ToTransactionClassificationResponse(output *classification.GetClassificationOutput) TransactionClassificationResponse {
	tx := output.Transaction
	return TransactionClassificationResponse{
		TransactionID:        tx.ID.String(),
		Classification:       string(output.Classification.Kind),
		IsBill:               output.IsBill,
		SecondaryType:        string(tx.SecondaryType),
		BillPatternID:        formatOptionalID(tx.BillPatternID),
		ClassificationSource: string(tx.ClassificationSource),
		CategoryID:           formatOptionalID(tx.CategoryID),
	}
}

// TransactionSummaryResponse represents the fields of a transaction shown next to a recommendation.
type TransactionSummaryResponse struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Merchant    *string `json:"merchant,omitempty"`
	Amount      string  `json:"amount"`
}

// ToTransactionSummaryResponse converts a domain Transaction entity to a TransactionSummaryResponse DTO.
func ToTransactionSummaryResponse(tx *entity.Transaction) TransactionSummaryResponse {
	return TransactionSummaryResponse{
		ID:          tx.ID.String(),
		Date:        formatDate(tx.Date),
		Description: tx.Description,
		Merchant:    tx.Merchant,
		Amount:      tx.Amount.StringFixed(2),
	}
}
