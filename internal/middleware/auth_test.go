package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ugcads-backend/internal/identity"
	"ugcads-backend/internal/models"
	"ugcads-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeUsers struct {
	err   error
	calls []string
}

func (f *fakeUsers) EnsureUser(ctx context.Context, userID, email string) (*models.User, error) {
	f.calls = append(f.calls, userID)
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: userID, TokenBalance: 0}, nil
}

func signToken(t *testing.T, secret, sub string, exp time.Duration) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(exp)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verifier, err := identity.NewVerifier(identity.Config{Secret: "test_secret"})
	require.NoError(t, err)

	tests := []struct {
		name         string
		headers      map[string]string
		usersErr     error
		expectedCode int
		expectedUser string
	}{
		{
			name:         "whop header",
			headers:      map[string]string{utils.UserTokenHeader: signToken(t, "test_secret", "user_1", time.Hour)},
			expectedCode: http.StatusOK,
			expectedUser: "user_1",
		},
		{
			name:         "bearer token",
			headers:      map[string]string{"Authorization": "Bearer " + signToken(t, "test_secret", "user_2", time.Hour)},
			expectedCode: http.StatusOK,
			expectedUser: "user_2",
		},
		{
			name:         "no token",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "expired token",
			headers:      map[string]string{utils.UserTokenHeader: signToken(t, "test_secret", "user_1", -time.Hour)},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "forged token",
			headers:      map[string]string{utils.UserTokenHeader: signToken(t, "other_secret", "user_1", time.Hour)},
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "provisioning fails",
			headers:      map[string]string{utils.UserTokenHeader: signToken(t, "test_secret", "user_1", time.Hour)},
			usersErr:     errors.New("db down"),
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsers{err: tt.usersErr}

			r := gin.New()
			r.Use(AuthMiddleware(verifier, users, zap.NewNop()))
			r.GET("/me", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"user_id": CurrentUserID(c)})
			})

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedUser != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedUser, body["user_id"])
				assert.Equal(t, []string{tt.expectedUser}, users.calls)
			}
		})
	}
}

func TestCallbackAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		secret       string
		header       string
		expectedCode int
	}{
		{"matching secret", "s3cret", "s3cret", http.StatusOK},
		{"wrong secret", "s3cret", "guess", http.StatusUnauthorized},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"unconfigured", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/cb", CallbackAuth(tt.secret), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodPost, "/cb", nil)
			if tt.header != "" {
				req.Header.Set(CallbackSecretHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "Request", entries[0].Message)
	assert.Equal(t, "Server Error", entries[1].Message)
	assert.Equal(t, "req-123", entries[1].ContextMap()["request_id"])
}

func TestAdminOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		userID         string
		expectedStatus int
	}{
		{"admin", "user_admin", http.StatusOK},
		{"regular user", "user_1", http.StatusForbidden},
		{"anonymous", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zap.WarnLevel)
			r := gin.New()
			r.Use(func(c *gin.Context) {
				if tt.userID != "" {
					c.Set(ContextUserIDKey, tt.userID)
				}
				c.Next()
			})
			r.GET("/admin", AdminOnly([]string{"user_admin"}, zap.New(core)), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusForbidden {
				assert.Equal(t, 1, logs.Len())
			}
		})
	}
}

type stubBlocks struct {
	blocked map[string]bool
	err     error
}

func (s stubBlocks) IsBlocked(ctx context.Context, userID string) (bool, error) {
	return s.blocked[userID], s.err
}

func TestRejectBlocked(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		userID       string
		blocks       stubBlocks
		expectedCode int
	}{
		{"allowed", "user_1", stubBlocks{blocked: map[string]bool{"user_2": true}}, http.StatusOK},
		{"suspended", "user_2", stubBlocks{blocked: map[string]bool{"user_2": true}}, http.StatusForbidden},
		{"lookup failure lets through", "user_2", stubBlocks{blocked: map[string]bool{"user_2": true}, err: errors.New("redis down")}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) {
				c.Set(ContextUserIDKey, tt.userID)
				c.Next()
			}, RejectBlocked(tt.blocks, zap.NewNop()))
			r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}
