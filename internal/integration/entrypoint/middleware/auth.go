// Package middleware provides HTTP middleware for the API endpoints.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/dto"
)

// ContextKey is a type for context keys.
type ContextKey string

// UserIDKey holds the uuid.UUID of the caller once the token is verified.
const UserIDKey ContextKey = "user_id"

const bearerPrefix = "Bearer "

// AuthMiddleware verifies access tokens issued by the identity service.
// Every bill pattern and classification query is scoped to the user it resolves.
type AuthMiddleware struct {
	tokenService adapter.TokenService
}

// NewAuthMiddleware creates a new auth middleware instance.
func NewAuthMiddleware(tokenService adapter.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService}
}

// Authenticate returns a Gin handler that rejects requests without a valid bearer token.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, code, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, code)
			return
		}

		claims, err := m.tokenService.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			code := domainerror.ErrCodeInvalidToken
			var authErr *domainerror.AuthError
			if errors.As(err, &authErr) {
				code = authErr.Code
			}
			unauthorized(c, code)
			return
		}

		c.Set(string(UserIDKey), claims.UserID)
		c.Next()
	}
}

// bearerToken extracts the token of an Authorization header.
func bearerToken(header string) (string, domainerror.AuthErrorCode, bool) {
	if header == "" {
		return "", domainerror.ErrCodeMissingToken, false
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", domainerror.ErrCodeInvalidToken, false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return "", domainerror.ErrCodeMissingToken, false
	}
	return token, "", true
}

var unauthorizedMessages = map[domainerror.AuthErrorCode]string{
	domainerror.ErrCodeMissingToken: "Authorization header is required",
	domainerror.ErrCodeInvalidToken: "Invalid access token",
	domainerror.ErrCodeExpiredToken: "Access token has expired",
}

func unauthorized(c *gin.Context, code domainerror.AuthErrorCode) {
	message, ok := unauthorizedMessages[code]
	if !ok {
		message = "Invalid or expired token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
		Error: message,
		Code:  string(code),
	})
}

// GetUserIDFromContext extracts the authenticated user ID from the Gin context.
func GetUserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(string(UserIDKey))
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
