package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerror "github.com/finance-tracker/recurring/internal/domain/error"
	"github.com/finance-tracker/recurring/internal/integration/adapters"
	"github.com/finance-tracker/recurring/internal/integration/entrypoint/dto"
	"github.com/finance-tracker/recurring/test/integration/mock"
)

const testSecret = "middleware-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func accessToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    userID.String(),
		"email":      "sam@example.com",
		"token_type": "access",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newAuthRouter() *gin.Engine {
	router := gin.New()
	auth := NewAuthMiddleware(adapters.NewTokenService(testSecret))
	router.GET("/whoami", auth.Authenticate(), func(c *gin.Context) {
		userID, ok := GetUserIDFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, userID.String())
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	router := newAuthRouter()
	userID := uuid.New()

	tests := []struct {
		name     string
		header   string
		status   int
		wantCode string
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized, wantCode: string(domainerror.ErrCodeMissingToken)},
		{name: "not a bearer token", header: "Basic abc", status: http.StatusUnauthorized, wantCode: string(domainerror.ErrCodeInvalidToken)},
		{name: "garbage token", header: "Bearer not-a-jwt", status: http.StatusUnauthorized, wantCode: string(domainerror.ErrCodeInvalidToken)},
		{name: "valid token", header: "Bearer " + accessToken(t, userID), status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.wantCode != "" {
				var body dto.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantCode, body.Code)
				return
			}
			assert.Equal(t, userID.String(), w.Body.String())
		})
	}
}

func TestRateLimiter(t *testing.T) {
	client, _ := mock.NewTestRedis(t)
	stores := map[string]RateLimitStore{
		"memory": NewMemoryRateLimitStore(),
		"redis":  NewRedisRateLimitStore(client),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			router := gin.New()
			router.GET("/detect", NewRateLimiterWithConfig(store, 2, time.Minute).Middleware("detect"), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			statuses := make([]int, 0, 3)
			for range 3 {
				w := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodGet, "/detect", nil)
				req.RemoteAddr = "10.0.0.1:4242"
				router.ServeHTTP(w, req)
				statuses = append(statuses, w.Code)
			}

			assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/detect", nil)
			req.RemoteAddr = "10.0.0.2:4242"
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestMemoryRateLimitStore_WindowResets(t *testing.T) {
	store := NewMemoryRateLimitStore().(*memoryRateLimitStore)
	now := mock.Date(2024, 4, 20)
	store.now = func() time.Time { return now }

	hits, _ := store.Hit(context.Background(), "k", time.Minute)
	assert.Equal(t, 1, hits)
	hits, _ = store.Hit(context.Background(), "k", time.Minute)
	assert.Equal(t, 2, hits)

	now = now.Add(2 * time.Minute)
	hits, _ = store.Hit(context.Background(), "k", time.Minute)
	assert.Equal(t, 1, hits)
}

func TestRedisRateLimitStore_WindowExpires(t *testing.T) {
	client, server := mock.NewTestRedis(t)
	store := NewRedisRateLimitStore(client)

	_, err := store.Hit(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	hits, err := store.Hit(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)

	server.FastForward(2 * time.Minute)
	hits, err = store.Hit(context.Background(), "k", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	client, server := mock.NewTestRedis(t)
	server.Close()
	router := gin.New()
	router.GET("/detect", NewRateLimiterWithConfig(NewRedisRateLimitStore(client), 1, time.Minute).Middleware("detect"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for range 2 {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/detect", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
