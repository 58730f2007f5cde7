package adapters

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/finance-tracker/recurring/internal/application/adapter"
	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
)

const tokenTypeAccess = "access"

// accessClaims mirrors the claims the identity service signs into access tokens.
type accessClaims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// tokenService verifies HMAC signed access tokens. It never issues tokens.
type tokenService struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenService creates a verifier for tokens signed with secret.
func NewTokenService(secret string) adapter.TokenService {
	return &tokenService{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		})),
	}
}

// ValidateAccessToken checks signature, expiry and token type, then resolves the user.
func (s *tokenService) ValidateAccessToken(_ context.Context, raw string) (*adapter.TokenClaims, error) {
	claims := &accessClaims{}
	token, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, domainerror.NewAuthError(domainerror.ErrCodeExpiredToken, "token has expired", domainerror.ErrExpiredToken)
	case err != nil:
		return nil, invalidToken("failed to parse token", err)
	case !token.Valid:
		return nil, invalidToken("token is not valid", nil)
	}

	if claims.TokenType != tokenTypeAccess {
		return nil, invalidToken("expected an access token, got "+claims.TokenType, nil)
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, invalidToken("token carries no valid user id", err)
	}

	result := &adapter.TokenClaims{UserID: userID, Email: claims.Email}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, nil
}

func invalidToken(message string, err error) error {
	if err == nil {
		err = domainerror.ErrInvalidToken
	}
	return domainerror.NewAuthError(domainerror.ErrCodeInvalidToken, message, err)
}
