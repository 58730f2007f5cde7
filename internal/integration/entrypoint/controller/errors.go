package controller

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/domain/valueobject"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/dto"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/middleware"
)

// requireUser returns the authenticated user or writes a 401 response.
func requireUser(ctx *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.ErrorResponse{
			Error: "User not authenticated",
			Code:  string(domainerror.ErrCodeMissingToken),
		})
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses a UUID path parameter or writes a 400 response.
func pathID(ctx *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		badRequest(ctx, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}

func badRequest(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{
		Error: message,
		Code:  string(domainerror.ErrCodeInvalidRequest),
	})
}

// parseOptionalID parses an optional UUID string.
func parseOptionalID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseOptionalDate parses an optional YYYY-MM-DD date.
func parseOptionalDate(s *string) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := time.Parse(valueobject.DateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	t = valueobject.CalendarDate(t)
	return &t, nil
}

// parseOptionalAmount parses an optional decimal amount.
func parseOptionalAmount(s *string) (*decimal.Decimal, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(*s))
	if err != nil {
		return nil, err
	}
	return &amount, nil
}

// handleBillPatternError maps domain errors to HTTP responses.
func handleBillPatternError(ctx *gin.Context, err error) {
	var bpErr *domainerror.BillPatternError
	if errors.As(err, &bpErr) {
		ctx.JSON(statusCodeForKind(bpErr.Kind), dto.ErrorResponse{
			Error: bpErr.Message,
			Code:  string(bpErr.Code),
		})
		return
	}

	slog.Error("Unhandled error", "path", ctx.FullPath(), "error", err)

	// Generic server error
	ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error: "An internal error occurred",
	})
}

// statusCodeForKind maps error kinds to HTTP status codes.
func statusCodeForKind(kind domainerror.ErrorKind) int {
	switch kind {
	case domainerror.KindValidation:
		return http.StatusBadRequest
	case domainerror.KindConflict:
		return http.StatusConflict
	case domainerror.KindNotFound:
		return http.StatusNotFound
	case domainerror.KindInvariantViolation:
		return http.StatusUnprocessableEntity
	case domainerror.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
