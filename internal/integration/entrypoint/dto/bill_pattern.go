package dto

import (
	"time"

	"github.com/finance-tracker/recurring/internal/application/usecase/billpattern"
	"github.com/finance-tracker/recurring/internal/application/usecase/detection"
	"github.com/finance-tracker/recurring/internal/application/usecase/occurrence"
	"github.com/finance-tracker/recurring/internal/domain/entity"
)

// CreateBillPatternRequest represents the request body for creating a pattern from a candidate.
type CreateBillPatternRequest struct {
	Name           string                 `json:"name,omitempty" binding:"omitempty,max=255"`
	MerchantKey    string                 `json:"merchant_key,omitempty" binding:"omitempty,max=255"`
	Frequency      string                 `json:"frequency" binding:"required"`
	BaseAmount     *string                `json:"base_amount,omitempty"`
	StartDate      *string                `json:"start_date,omitempty"`
	CategoryID     *string                `json:"category_id,omitempty" binding:"omitempty,uuid"`
	Confidence     float64                `json:"confidence" binding:"gte=0,lte=1"`
	TransactionIDs []string               `json:"transaction_ids" binding:"required,min=1,dive,uuid"`
	Stats          *entity.DetectionStats `json:"stats,omitempty"`
}

// UpdateBillPatternRequest represents the request body for editing a pattern.
type UpdateBillPatternRequest struct {
	Name       *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Frequency  *string `json:"frequency,omitempty"`
	BaseAmount *string `json:"base_amount,omitempty"`
	StartDate  *string `json:"start_date,omitempty"`
	CategoryID *string `json:"category_id,omitempty" binding:"omitempty,uuid"`
}

// SyncOccurrencesRequest represents the optional window of a scheduler run.
type SyncOccurrencesRequest struct {
	From    *string `json:"from,omitempty"`
	Through *string `json:"through,omitempty"`
}

// LinkTransactionRequest represents the request body for linking a transaction to a pattern.
type LinkTransactionRequest struct {
	TransactionID string `json:"transaction_id" binding:"required,uuid"`
}

// CleanupDuplicatesRequest represents the request body for duplicate cleanup.
type CleanupDuplicatesRequest struct {
	BillPatternID *string `json:"bill_pattern_id,omitempty" binding:"omitempty,uuid"`
}

// CandidateResponse represents a detected candidate pattern.
type CandidateResponse struct {
	MerchantKey       string                `json:"merchant_key"`
	Name              string                `json:"name"`
	Frequency         string                `json:"frequency"`
	BaseAmount        string                `json:"base_amount"`
	StartDate         string                `json:"start_date"`
	CategoryID        *string               `json:"category_id,omitempty"`
	Confidence        float64               `json:"confidence"`
	ReviewStatus      string                `json:"review_status"`
	TransactionIDs    []string              `json:"transaction_ids"`
	Stats             entity.DetectionStats `json:"stats"`
	AlreadyTracked    bool                  `json:"already_tracked"`
	ExistingPatternID *string               `json:"existing_pattern_id,omitempty"`
}

// RejectedTransactionResponse represents a transaction excluded from detection.
type RejectedTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Code          string `json:"code"`
	Reason        string `json:"reason"`
}

// DetectPatternsResponse represents the response of a detection run.
type DetectPatternsResponse struct {
	Candidates        []CandidateResponse           `json:"candidates"`
	Rejected          []RejectedTransactionResponse `json:"rejected"`
	CreatedPatternIDs []string                      `json:"created_pattern_ids"`
	FromCache         bool                          `json:"from_cache"`
}

// BillPatternResponse represents a single bill pattern in API responses.
type BillPatternResponse struct {
	ID                   string                 `json:"id"`
	UserID               string                 `json:"user_id"`
	Name                 string                 `json:"name"`
	MerchantKey          string                 `json:"merchant_key"`
	Frequency            string                 `json:"frequency"`
	BaseAmount           string                 `json:"base_amount"`
	StartDate            string                 `json:"start_date"`
	CategoryID           *string                `json:"category_id,omitempty"`
	Confidence           float64                `json:"confidence"`
	SourceTransactionIDs []string               `json:"source_transaction_ids"`
	DetectionStats       *entity.DetectionStats `json:"detection_stats,omitempty"`
	OccurrenceCount      *int                   `json:"occurrence_count,omitempty"`
	LinkedCount          *int                   `json:"linked_count,omitempty"`
	NextDueDate          *string                `json:"next_due_date,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
}

// BillPatternListResponse represents the response for listing patterns.
type BillPatternListResponse struct {
	BillPatterns []BillPatternResponse `json:"bill_patterns"`
}

// BillPatternDetailResponse represents a pattern with its full schedule.
type BillPatternDetailResponse struct {
	BillPatternResponse
	Occurrences []OccurrenceResponse `json:"occurrences"`
}

// CreateBillPatternResponse represents the response of pattern creation.
type CreateBillPatternResponse struct {
	BillPattern     BillPatternResponse `json:"bill_pattern"`
	LinkedCount     int                 `json:"linked_count"`
	OccurrenceCount int                 `json:"occurrence_count"`
}

// UpdateBillPatternResponse represents the response of a pattern edit.
type UpdateBillPatternResponse struct {
	BillPattern BillPatternResponse `json:"bill_pattern"`
	Rescheduled bool                `json:"rescheduled"`
	Warning     string              `json:"warning,omitempty"`
}

// DeleteBillPatternResponse represents the response of a pattern deletion.
type DeleteBillPatternResponse struct {
	Mode                  string  `json:"mode"`
	DeletedOccurrences    int     `json:"deleted_occurrences"`
	MovedOccurrences      int     `json:"moved_occurrences"`
	UpdatedTransactions   int     `json:"updated_transactions"`
	ReassignedToPatternID *string `json:"reassigned_to_pattern_id,omitempty"`
}

// CleanupResultResponse represents the cleanup result of one pattern.
type CleanupResultResponse struct {
	BillPatternID string `json:"bill_pattern_id"`
	Removed       int    `json:"removed"`
	Error         string `json:"error,omitempty"`
}

// CleanupDuplicatesResponse represents the response of duplicate cleanup.
type CleanupDuplicatesResponse struct {
	Removed int                     `json:"removed"`
	Results []CleanupResultResponse `json:"results"`
}

// OccurrenceResponse represents a single occurrence in API responses.
type OccurrenceResponse struct {
	ID                string  `json:"id"`
	BillPatternID     string  `json:"bill_pattern_id"`
	DueDate           string  `json:"due_date"`
	Amount            string  `json:"amount"`
	Status            string  `json:"status"`
	BankTransactionID *string `json:"bank_transaction_id,omitempty"`
}

// HiddenLinkedCountResponse represents linked occurrences outside the requested window.
type HiddenLinkedCountResponse struct {
	Total  int         `json:"total"`
	ByYear map[int]int `json:"by_year"`
}

// OccurrenceViewResponse represents the date-filtered schedule of a pattern.
type OccurrenceViewResponse struct {
	Visible           []OccurrenceResponse      `json:"visible"`
	HiddenLinkedCount HiddenLinkedCountResponse `json:"hidden_linked_count"`
	Summary           string                    `json:"summary"`
}

// SyncOccurrencesResponse represents the result of a scheduler run.
type SyncOccurrencesResponse struct {
	Linked       int    `json:"linked"`
	Placeholders int    `json:"placeholders"`
	Removed      int    `json:"removed"`
	BaseAmount   string `json:"base_amount"`
}

// LinkTransactionResponse represents the result of linking a transaction.
type LinkTransactionResponse struct {
	Status        string              `json:"status"`
	BillPatternID string              `json:"bill_pattern_id"`
	Occurrence    *OccurrenceResponse `json:"occurrence,omitempty"`
}

// ToCandidateResponse converts a detected candidate to a CandidateResponse DTO.
func ToCandidateResponse(c *entity.CandidatePattern) CandidateResponse {
	return CandidateResponse{
		MerchantKey:       c.MerchantKey,
		Name:              c.Name,
		Frequency:         string(c.Frequency),
		BaseAmount:        c.BaseAmount.StringFixed(2),
		StartDate:         formatDate(c.StartDate),
		CategoryID:        formatOptionalID(c.CategoryID),
		Confidence:        c.Confidence,
		ReviewStatus:      string(c.ReviewStatus),
		TransactionIDs:    formatIDs(c.TransactionIDs),
		Stats:             c.Stats,
		AlreadyTracked:    c.AlreadyTracked,
		ExistingPatternID: formatOptionalID(c.ExistingPatternID),
	}
}

// ToDetectPatternsResponse converts a detection output to a DetectPatternsResponse DTO.
func ToDetectPatternsResponse(output *detection.DetectPatternsOutput) DetectPatternsResponse {
	response := DetectPatternsResponse{
		Candidates:        make([]CandidateResponse, len(output.Candidates)),
		Rejected:          make([]RejectedTransactionResponse, len(output.Rejected)),
		CreatedPatternIDs: formatIDs(output.CreatedPatternIDs),
		FromCache:         output.FromCache,
	}
	for i, c := range output.Candidates {
		response.Candidates[i] = ToCandidateResponse(c)
	}
	for i, r := range output.Rejected {
		response.Rejected[i] = RejectedTransactionResponse{
			TransactionID: r.TransactionID.String(),
			Code:          string(r.Code),
			Reason:        r.Reason,
		}
	}
	return response
}

// ToBillPatternResponse converts a domain BillPattern entity to a BillPatternResponse DTO.
func ToBillPatternResponse(p *entity.BillPattern) BillPatternResponse {
	return BillPatternResponse{
		ID:                   p.ID.String(),
		UserID:               p.UserID.String(),
		Name:                 p.Name,
		MerchantKey:          p.MerchantKey,
		Frequency:            string(p.Frequency),
		BaseAmount:           p.BaseAmount.StringFixed(2),
		StartDate:            formatDate(p.StartDate),
		CategoryID:           formatOptionalID(p.CategoryID),
		Confidence:           p.Confidence,
		SourceTransactionIDs: formatIDs(p.SourceTransactionIDs),
		DetectionStats:       p.DetectionStats,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

// ToBillPatternSummaryResponse converts a pattern summary to a BillPatternResponse DTO with counts.
func ToBillPatternSummaryResponse(summary billpattern.PatternSummary) BillPatternResponse {
	response := ToBillPatternResponse(summary.Pattern)
	occurrenceCount := summary.OccurrenceCount
	linkedCount := summary.LinkedCount
	response.OccurrenceCount = &occurrenceCount
	response.LinkedCount = &linkedCount
	response.NextDueDate = formatOptionalDate(summary.NextDueDate)
	return response
}

// ToBillPatternListResponse converts pattern summaries to a BillPatternListResponse DTO.
func ToBillPatternListResponse(summaries []billpattern.PatternSummary) BillPatternListResponse {
	patterns := make([]BillPatternResponse, len(summaries))
	for i, s := range summaries {
		patterns[i] = ToBillPatternSummaryResponse(s)
	}
	return BillPatternListResponse{BillPatterns: patterns}
}

// ToBillPatternDetailResponse converts a GetPatternOutput to a BillPatternDetailResponse DTO.
func ToBillPatternDetailResponse(output *billpattern.GetPatternOutput) BillPatternDetailResponse {
	return BillPatternDetailResponse{
		BillPatternResponse: ToBillPatternSummaryResponse(output.Summary),
		Occurrences:         ToOccurrenceResponses(output.Occurrences),
	}
}

// ToDeleteBillPatternResponse converts a DeletePatternOutput to a DeleteBillPatternResponse DTO.
func ToDeleteBillPatternResponse(output *billpattern.DeletePatternOutput) DeleteBillPatternResponse {
	return DeleteBillPatternResponse{
		Mode:                  string(output.Mode),
		DeletedOccurrences:    output.DeletedOccurrences,
		MovedOccurrences:      output.MovedOccurrences,
		UpdatedTransactions:   output.UpdatedTransactions,
		ReassignedToPatternID: formatOptionalID(output.ReassignedToPatternID),
	}
}

// ToCleanupDuplicatesResponse converts a CleanupDuplicatesOutput to a CleanupDuplicatesResponse DTO.
func ToCleanupDuplicatesResponse(output *billpattern.CleanupDuplicatesOutput) CleanupDuplicatesResponse {
	response := CleanupDuplicatesResponse{
		Removed: output.Removed,
		Results: make([]CleanupResultResponse, len(output.Results)),
	}
	for i, r := range output.Results {
		response.Results[i] = CleanupResultResponse{
			BillPatternID: r.PatternID.String(),
			Removed:       r.Removed,
		}
		if r.Err != nil {
			response.Results[i].Error = r.Err.Error()
		}
	}
	return response
}

// ToOccurrenceResponse converts a domain Occurrence entity to an OccurrenceResponse DTO.
func ToOccurrenceResponse(o *entity.Occurrence) OccurrenceResponse {
	return OccurrenceResponse{
		ID:                o.ID.String(),
		BillPatternID:     o.BillPatternID.String(),
		DueDate:           formatDate(o.DueDate),
		Amount:            o.Amount.StringFixed(2),
		Status:            string(o.Status),
		BankTransactionID: formatOptionalID(o.BankTransactionID),
	}
}

// ToOccurrenceResponses converts occurrences to OccurrenceResponse DTOs.
func ToOccurrenceResponses(occurrences []*entity.Occurrence) []OccurrenceResponse {
	responses := make([]OccurrenceResponse, len(occurrences))
	for i, o := range occurrences {
		responses[i] = ToOccurrenceResponse(o)
	}
	return responses
}

// ToOccurrenceViewResponse converts a projected view to an OccurrenceViewResponse DTO.
func ToOccurrenceViewResponse(view occurrence.View) OccurrenceViewResponse {
	byYear := make(map[int]int, len(view.HiddenLinked.ByYear))
	for year, count := range view.HiddenLinked.ByYear {
		byYear[year] = count
	}
	return OccurrenceViewResponse{
		Visible: ToOccurrenceResponses(view.Visible),
		HiddenLinkedCount: HiddenLinkedCountResponse{
			Total:  view.HiddenLinked.Total,
			ByYear: byYear,
		},
		Summary: view.Summary,
	}
}

// ToSyncOccurrencesResponse converts a SyncOccurrencesOutput to a SyncOccurrencesResponse DTO.
func ToSyncOccurrencesResponse(output *occurrence.SyncOccurrencesOutput) SyncOccurrencesResponse {
	return SyncOccurrencesResponse{
		Linked:       output.Stats.Linked,
		Placeholders: output.Stats.Placeholders,
		Removed:      output.Stats.Removed,
		BaseAmount:   output.Pattern.BaseAmount.StringFixed(2),
	}
}

// ToLinkTransactionResponse converts a LinkTransactionOutput to a LinkTransactionResponse DTO.
func ToLinkTransactionResponse(output *occurrence.LinkTransactionOutput) LinkTransactionResponse {
	response := LinkTransactionResponse{
		Status:        string(output.Status),
		BillPatternID: output.Pattern.ID.String(),
	}
	if output.Occurrence != nil {
		occ := ToOccurrenceResponse(output.Occurrence)
		response.Occurrence = &occ
	}
	return response
}
