package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/usecase/recommendation"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/dto"
)

// RecommendationController handles transaction-to-pattern recommendation endpoints.
type RecommendationController struct {
	listUseCase   *recommendation.ListRecommendationsUseCase
	acceptUseCase *recommendation.AcceptRecommendationUseCase
}

// NewRecommendationController creates a new recommendation controller instance.
func NewRecommendationController(
	listUseCase *recommendation.ListRecommendationsUseCase,
	acceptUseCase *recommendation.AcceptRecommendationUseCase,
) *RecommendationController {
	return &RecommendationController{
		listUseCase:   listUseCase,
		acceptUseCase: acceptUseCase,
	}
}

// List handles GET /recommendations requests.
func (c *RecommendationController) List(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	patternRaw := ctx.Query("bill_pattern_id")
	patternID, err := parseOptionalID(&patternRaw)
	if err != nil {
		badRequest(ctx, "Invalid bill pattern ID format")
		return
	}

	output, err := c.listUseCase.Execute(ctx.Request.Context(), recommendation.ListRecommendationsInput{
		UserID:    userID,
		PatternID: patternID,
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToRecommendationListResponse(output.Matches))
}

// Accept handles POST /recommendations/accept requests.
func (c *RecommendationController) Accept(ctx *gin.Context) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	var req dto.AcceptRecommendationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		badRequest(ctx, "Invalid request body: "+err.Error())
		return
	}
	transactionID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		badRequest(ctx, "Invalid transaction ID format")
		return
	}
	patternID, err := uuid.Parse(req.BillPatternID)
	if err != nil {
		badRequest(ctx, "Invalid bill pattern ID format")
		return
	}

	output, err := c.acceptUseCase.Execute(ctx.Request.Context(), recommendation.AcceptRecommendationInput{
		UserID:        userID,
		PatternID:     patternID,
		TransactionID: transactionID,
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToLinkTransactionResponse(output))
}
