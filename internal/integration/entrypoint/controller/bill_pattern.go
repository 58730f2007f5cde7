package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/usecase/billpattern"
	"github.com/finance-tracker/recurring/internal/application/usecase/detection"
	"github.com/finance-tracker/recurring/internal/application/usecase/occurrence"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/dto"
)

// BillPatternController handles bill pattern and occurrence endpoints.
type BillPatternController struct {
	detectUseCase          *detection.DetectPatternsUseCase
	createUseCase          *billpattern.CreateFromPatternUseCase
	listUseCase            *billpattern.ListPatternsUseCase
	getUseCase             *billpattern.GetPatternUseCase
	updateUseCase          *billpattern.UpdatePatternUseCase
	deleteUseCase          *billpattern.DeletePatternUseCase
	cleanupUseCase         *billpattern.CleanupDuplicatesUseCase
	syncUseCase            *occurrence.SyncOccurrencesUseCase
	listOccurrencesUseCase *occurrence.ListOccurrencesUseCase
	linkUseCase            *occurrence.LinkTransactionUseCase
	unlinkUseCase          *occurrence.UnlinkTransactionUseCase
}

// NewBillPatternController creates a new bill pattern controller instance.
func NewBillPatternController(
	detectUseCase *detection.DetectPatternsUseCase,
	createUseCase *billpattern.CreateFromPatternUseCase,
	listUseCase *billpattern.ListPatternsUseCase,
	getUseCase *billpattern.GetPatternUseCase,
	updateUseCase *billpattern.UpdatePatternUseCase,
	deleteUseCase *billpattern.DeletePatternUseCase,
	cleanupUseCase *billpattern.CleanupDuplicatesUseCase,
	syncUseCase *occurrence.SyncOccurrencesUseCase,
	listOccurrencesUseCase *occurrence.ListOccurrencesUseCase,
	linkUseCase *occurrence.LinkTransactionUseCase,
	unlinkUseCase *occurrence.UnlinkTransactionUseCase,
) *BillPatternController {
	return &BillPatternController{
		detectUseCase:          detectUseCase,
		createUseCase:          createUseCase,
		listUseCase:            listUseCase,
		getUseCase:             getUseCase,
		updateUseCase:          updateUseCase,
		deleteUseCase:          deleteUseCase,
		cleanupUseCase:         cleanupUseCase,
		syncUseCase:            syncUseCase,
		listOccurrencesUseCase: listOccurrencesUseCase,
		linkUseCase:            linkUseCase,
		unlinkUseCase:          unlinkUseCase,
	}
}

// Detect handles POST /bill-patterns/detect requests.
func (c *BillPatternController) Detect(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	autoCreate, err := parseBoolQuery(ctx, "auto_create")
	if err != nil {
		badRequest(ctx, "Invalid auto_create value")
		return
	}
	refresh, err := parseBoolQuery(ctx, "refresh")
	if err != nil {
		badRequest(ctx, "Invalid refresh value")
		return
	}

	output, err := c.detectUseCase.Execute(ctx.Request.Context(), detection.DetectPatternsInput{
		UserID:     userID,
		AutoCreate: autoCreate,
		Refresh:    refresh,
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToDetectPatternsResponse(output))
}

// Create handles POST /bill-patterns requests.
func (c *BillPatternController) Create(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	// Parse request body
	var req dto.CreateBillPatternRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body: "+err.Error())
		return
	}

	input := billpattern.CreateFromPatternInput{
		UserID:         userID,
		Name:           req.Name,
		MerchantKey:    req.MerchantKey,
		Frequency:      req.Frequency,
		Confidence:     req.Confidence,
		Stats:          req.Stats,
		TransactionIDs: make([]uuid.UUID, 0, len(req.TransactionIDs)),
	}
	for _, raw := range req.TransactionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(ctx, "Invalid transaction ID format")
			return
		}
		input.TransactionIDs = append(input.TransactionIDs, id)
	}

	var err error
	if input.BaseAmount, err = parseOptionalAmount(req.BaseAmount); err != nil {
		badRequest(ctx, "Invalid base_amount format")
		return
	}
	if input.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		badRequest(ctx, "Invalid start_date format, expected YYYY-MM-DD")
		return
	}
	if input.CategoryID, err = parseOptionalID(req.CategoryID); err != nil {
		badRequest(ctx, "Invalid category ID format")
		return
	}

	output, err := c.createUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.CreateBillPatternResponse{
		BillPattern:     dto.ToBillPatternResponse(output.Pattern),
		LinkedCount:     output.LinkedCount,
		OccurrenceCount: output.OccurrenceCount,
	})
}

// List handles GET /bill-patterns requests.
func (c *BillPatternController) List(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	output, err := c.listUseCase.Execute(ctx.Request.Context(), billpattern.ListPatternsInput{UserID: userID})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBillPatternListResponse(output.Patterns))
}

// Get handles GET /bill-patterns/:id requests.
func (c *BillPatternController) Get(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	patternID, ok := pathID(ctx, "id", "bill pattern")
	if !ok {
		return
	}

	output, err := c.getUseCase.Execute(ctx.Request.Context(), billpattern.GetPatternInput{
		UserID:    userID,
		PatternID: patternID,
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBillPatternDetailResponse(output))
}

// Update handles PATCH /bill-patterns/:id requests.
func (c *BillPatternController) Update(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	patternID, ok := pathID(ctx, "id", "bill pattern")
	if !ok {
		return
	}

	var req dto.UpdateBillPatternRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body: "+err.Error())
		return
	}

	input := billpattern.UpdatePatternInput{
		UserID:    userID,
		PatternID: patternID,
		Name:      req.Name,
		Frequency: req.Frequency,
	}

	var err error
	if input.BaseAmount, err = parseOptionalAmount(req.BaseAmount); err != nil {
		badRequest(ctx, "Invalid base_amount format")
		return
	}
	if input.StartDate, err = parseOptionalDate(req.StartDate); err != nil {
		badRequest(ctx, "Invalid start_date format, expected YYYY-MM-DD")
		return
	}
	if input.CategoryID, err = parseOptionalID(req.CategoryID); err != nil {
		badRequest(ctx, "Invalid category ID format")
		return
	}

	output, err := c.updateUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.UpdateBillPatternResponse{
		BillPattern: dto.ToBillPatternResponse(output.Pattern),
		Rescheduled: output.Rescheduled,
		Warning:     output.Warning,
	})
}

// Delete handles DELETE /bill-patterns/:id requests.
func (c *BillPatternController) Delete(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	patternID, ok := pathID(ctx, "id", "bill pattern")
	if !ok {
		return
	}

	mode, valid := billpattern.ParseDeleteMode(ctx.Query("mode"))
	if !valid {
		badRequest(ctx, "Invalid delete mode, expected guarded, reassign or cascade")
		return
	}

	reassignRaw := ctx.Query("reassign_to")
	reassignTo, err := parseOptionalID(&reassignRaw)
	if err != nil {
		badRequest(ctx, "Invalid reassign_to ID format")
		return
	}

	output, err := c.deleteUseCase.Execute(ctx.Request.Context(), billpattern.DeletePatternInput{
		UserID:     userID,
		PatternID:  patternID,
		Mode:       mode,
		ReassignTo: reassignTo,
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToDeleteBillPatternResponse(output))
}

// CleanupDuplicates handles POST /bill-patterns/cleanup-duplicates requests.
func (c *BillPatternController) CleanupDuplicates(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	// An empty body cleans every pattern of the user.
	var req dto.CleanupDuplicatesRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, "Invalid request body: "+err.Error())
			return
		}
	}

	patternID, err := parseOptionalID(req.BillPatternID)
	if err != nil {
		badRequest(ctx, "Invalid bill pattern ID format")
		return
	}

	output, err := c.cleanupUseCase.Execute(ctx.Request.Context(), billpattern.CleanupDuplicatesInput{
		UserID:    userID,
		PatternID: patternID,
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToCleanupDuplicatesResponse(output))
}

// SyncOccurrences handles POST /bill-patterns/:id/occurrences/sync requests.
func (c *BillPatternController) SyncOccurrences(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	patternID, ok := pathID(ctx, "id", "bill pattern")
	if !ok {
		return
	}

	var req dto.SyncOccurrencesRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			badRequest(ctx, "Invalid request body: "+err.Error())
			return
		}
	}

	input := occurrence.SyncOccurrencesInput{
		UserID:    userID,
		PatternID: patternID,
	}

	var err error
	if input.From, err = parseOptionalDate(req.From); err != nil {
		badRequest(ctx, "Invalid from date format, expected YYYY-MM-DD")
		return
	}
	if input.Through, err = parseOptionalDate(req.Through); err != nil {
		badRequest(ctx, "Invalid through date format, expected YYYY-MM-DD")
		return
	}

	output, err := c.syncUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToSyncOccurrencesResponse(output))
}

// ListOccurrences handles GET /bill-patterns/:id/occurrences requests.
// Without start_date and end_date the whole schedule is visible.
func (c *BillPatternController) ListOccurrences(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	patternID, ok := pathID(ctx, "id", "bill pattern")
	if !ok {
		return
	}

	startRaw := ctx.Query("start_date")
	start, err := parseOptionalDate(&startRaw)
	if err != nil {
		badRequest(ctx, "Invalid start_date format, expected YYYY-MM-DD")
		return
	}
	endRaw := ctx.Query("end_date")
	end, err := parseOptionalDate(&endRaw)
	if err != nil {
		badRequest(ctx, "Invalid end_date format, expected YYYY-MM-DD")
		return
	}

	output, err := c.listOccurrencesUseCase.Execute(ctx.Request.Context(), occurrence.ListOccurrencesInput{
		UserID:    userID,
		PatternID: patternID,
		Range:     valueobject.NewDateRange(start, end),
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToOccurrenceViewResponse(output.View))
}

// Link handles POST /bill-patterns/:id/links requests.
func (c *BillPatternController) Link(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	patternID, ok := pathID(ctx, "id", "bill pattern")
	if !ok {
		return
	}

	var req dto.LinkTransactionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body: "+err.Error())
		return
	}
	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		badRequest(ctx, "Invalid transaction ID format")
		return
	}

	output, err := c.linkUseCase.Execute(ctx.Request.Context(), occurrence.LinkTransactionInput{
		UserID:        userID,
		PatternID:     patternID,
		TransactionID: transactionID,
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	status := http.StatusCreated
	if output.Status == occurrence.LinkStatusAlreadyLinked {
		status = http.StatusOK
	}
	ctx.JSON(status, dto.ToLinkTransactionResponse(output))
}

// Unlink handles DELETE /bill-patterns/:id/links/:transaction_id requests.
func (c *BillPatternController) Unlink(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	patternID, ok := pathID(ctx, "id", "bill pattern")
	if !ok {
		return
	}
	transactionID, ok := pathID(ctx, "transaction_id", "transaction")
	if !ok {
		return
	}

	_, err := c.unlinkUseCase.Execute(ctx.Request.Context(), occurrence.UnlinkTransactionInput{
		UserID:        userID,
		PatternID:     patternID,
		TransactionID: transactionID,
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func parseBoolQuery(ctx *gin.Context, name string) (bool, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}
