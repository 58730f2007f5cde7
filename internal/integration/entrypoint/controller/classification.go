package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/usecase/classification"
	"github.com/finance-tracker/recurring/internal/application/usecase/detection"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/dto"
)

// ClassificationController handles transaction classification endpoints.
type ClassificationController struct {
	batchUseCase     *classification.BatchUpdateUseCase
	remainingUseCase *detection.ClassifyRemainingUseCase
	propagateUseCase *classification.PropagateUseCase
	getUseCase       *classification.GetClassificationUseCase
}

// NewClassificationController creates a new classification controller instance.
func NewClassificationController(
	batchUseCase *classification.BatchUpdateUseCase,
	remainingUseCase *detection.ClassifyRemainingUseCase,
	propagateUseCase *classification.PropagateUseCase,
	getUseCase *classification.GetClassificationUseCase,
) *ClassificationController {
	return &ClassificationController{
		batchUseCase:     batchUseCase,
		remainingUseCase: remainingUseCase,
		propagateUseCase: propagateUseCase,
		getUseCase:       getUseCase,
	}
}

// BatchUpdate handles POST /transactions/classifications/batch requests.
// Failures are reported per item; the response is 200 whenever the batch itself was well formed.
func (c *ClassificationController) BatchUpdate(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req dto.BatchClassificationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body: "+err.Error())
		return
	}

	input := classification.BatchUpdateInput{
		UserID: userID,
		Items:  make([]classification.BatchUpdateItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		transactionID, err := uuid.Parse(item.TransactionID)
		if err != nil {
			badRequest(ctx, "Invalid transaction ID format")
			return
		}
		categoryID, err := parseOptionalID(item.CategoryID)
		if err != nil {
			badRequest(ctx, "Invalid category ID format")
			return
		}
		input.Items = append(input.Items, classification.BatchUpdateItem{
			TransactionID:        transactionID,
			SecondaryType:        item.SecondaryType,
			CategoryID:           categoryID,
			ClassificationSource: item.ClassificationSource,
		})
	}

	output, err := c.batchUseCase.Execute(ctx.Request.Context(), input)
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToBatchClassificationResponse(output))
}

// ClassifyRemaining handles POST /transactions/classifications/remaining requests.
func (c *ClassificationController) ClassifyRemaining(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	output, err := c.remainingUseCase.Execute(ctx.Request.Context(), detection.ClassifyRemainingInput{UserID: userID})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToClassifyRemainingResponse(output))
}

// Propagate handles POST /transactions/classifications/propagate requests.
func (c *ClassificationController) Propagate(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req dto.PropagateRequest
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

	output, err := c.propagateUseCase.Execute(ctx.Request.Context(), classification.PropagateInput{
		UserID:    userID,
		PatternID: patternID,
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToPropagateResponse(output))
}

// Get handles GET /transactions/:id/classification requests.
func (c *ClassificationController) Get(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}
	transactionID, ok := pathID(ctx, "id", "transaction")
	if !ok {
		return
	}

	output, err := c.getUseCase.Execute(ctx.Request.Context(), classification.GetClassificationInput{
		UserID:        userID,
		TransactionID: transactionID,
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToTransactionClassificationResponse(output))
}
