package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/usecase/label"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/dto"
)

// LabelController handles advisory category label endpoints.
type LabelController struct {
	suggestUseCase *label.SuggestLabelUseCase
}

// NewLabelController creates a new label controller instance.
func NewLabelController(suggestUseCase *label.SuggestLabelUseCase) *LabelController {
	return &LabelController{
		suggestUseCase: suggestUseCase,
	}
}

// SuggestForPattern handles POST /bill-patterns/:id/label requests.
func (c *LabelController) SuggestForPattern(ctx *gin.Context) {
	patternID, ok := pathID(ctx, "id", "bill pattern")
	if !ok {
		return
	}
	c.suggest(ctx, &patternID, nil)
}

// SuggestForTransaction handles POST /transactions/:id/label requests.
func (c *LabelController) SuggestForTransaction(ctx *gin.Context) {
	transactionID, ok := pathID(ctx, "id", "transaction")
	if !ok {
		return
	}
	c.suggest(ctx, nil, &transactionID)
}

func (c *LabelController) suggest(ctx *gin.Context, patternID, transactionID *uuid.UUID) {
	userID, ok := requireUser(ctx)
	if !ok {
		return
	}

	refresh, err := parseBoolQuery(ctx, "refresh")
	if err != nil {
		badRequest(ctx, "Invalid refresh value")
		return
	}

	output, err := c.suggestUseCase.Execute(ctx.Request.Context(), label.SuggestLabelInput{
		UserID:        userID,
		PatternID:     patternID,
		TransactionID: transactionID,
		Refresh:       refresh,
	})
	if err != nil {
		handleBillPatternError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.ToLabelSuggestionResponse(output.Subject, output.Suggestion, output.FromCache))
}
