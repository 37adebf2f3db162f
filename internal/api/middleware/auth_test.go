package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitaladdress/locator/internal/api/middleware"
	"github.com/digitaladdress/locator/internal/auth"
)

func newTokens(ttl time.Duration) *auth.JWTService {
	return auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "locator",
		Audience:   "locator-ops",
		TokenTTL:   ttl,
	})
}

func operatorToken(t *testing.T, tokens *auth.JWTService, subject string, scopes ...string) string {
	t.Helper()
	token, _, err := tokens.GenerateOperatorToken(subject, scopes...)
	require.NoError(t, err)
	return token
}

func protected(tokens middleware.TokenValidator, scope string) http.Handler {
	return middleware.OperatorAuth(tokens, scope)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(middleware.GetOperator(r.Context())))
	}))
}

func TestOperatorAuth_RejectsMissingOrMalformedHeader(t *testing.T) {
	handler := protected(newTokens(0), auth.ScopeOps)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"no bearer prefix", "token123"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
		{"just bearer", "Bearer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			assert.Contains(t, rec.Body.String(), "missing or malformed bearer token")
		})
	}
}

func TestOperatorAuth_InvalidToken(t *testing.T) {
	handler := protected(newTokens(0), auth.ScopeOps)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid operator token")
}

func TestOperatorAuth_ExpiredToken(t *testing.T) {
	expired := newTokens(-time.Minute)
	handler := protected(expired, auth.ScopeOps)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+operatorToken(t, expired, "ops", auth.ScopeOps))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expired")
}

func TestOperatorAuth_MissingScope(t *testing.T) {
	tokens := newTokens(0)
	handler := protected(tokens, auth.ScopeAdmin)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/areas:register", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+operatorToken(t, tokens, "ops", auth.ScopeOps))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOperatorAuth_ValidToken(t *testing.T) {
	tokens := newTokens(0)
	handler := protected(tokens, auth.ScopeOps)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/status", http.NoBody)
	req.Header.Set("Authorization", "bearer "+operatorToken(t, tokens, "ops@campus.example", auth.ScopeOps))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ops@campus.example", rec.Body.String())
}

func TestGetOperator_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	assert.Empty(t, middleware.GetOperator(req.Context()))
}
