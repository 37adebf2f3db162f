package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/digitaladdress/locator/internal/api/middleware"
	"github.com/digitaladdress/locator/internal/auth"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func send(handler http.Handler, remoteAddr, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test/path", http.NoBody)
	req.RemoteAddr = remoteAddr
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitByIP(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute}
	handler := middleware.RequestID(middleware.RateLimitByIP(cfg)(okHandler()))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, send(handler, "172.16.0.1:12345", "").Code)
	}

	limited := send(handler, "172.16.0.1:12345", "")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Equal(t, "application/problem+json", limited.Header().Get("Content-Type"))
	assert.Contains(t, limited.Body.String(), "too-many-requests")
	assert.Contains(t, limited.Body.String(), "/test/path")

	// another client keeps its own budget
	assert.Equal(t, http.StatusOK, send(handler, "172.16.0.2:12345", "").Code)
}

func TestRateLimitByOperator_KeysOnSubject(t *testing.T) {
	tokens := newTokens(0)
	cfg := middleware.RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute}
	handler := middleware.OperatorAuth(tokens, auth.ScopeOps)(middleware.RateLimitByOperator(cfg)(okHandler()))

	alice := "Bearer " + operatorToken(t, tokens, "alice", auth.ScopeOps)
	bob := "Bearer " + operatorToken(t, tokens, "bob", auth.ScopeOps)

	// same operator from different addresses shares one budget
	assert.Equal(t, http.StatusOK, send(handler, "10.0.0.1:1000", alice).Code)
	assert.Equal(t, http.StatusOK, send(handler, "10.0.0.2:1000", alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, send(handler, "10.0.0.3:1000", alice).Code)

	assert.Equal(t, http.StatusOK, send(handler, "10.0.0.1:1000", bob).Code)
}

func TestRateLimitByOperator_FallsBackToIP(t *testing.T) {
	cfg := middleware.RateLimitConfig{RequestLimit: 1, WindowLength: 30 * time.Second}
	handler := middleware.RateLimitByOperator(cfg)(okHandler())

	assert.Equal(t, http.StatusOK, send(handler, "192.168.1.1:1", "").Code)

	limited := send(handler, "192.168.1.1:1", "")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "30", limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send(handler, "192.168.1.2:1", "").Code)
}

func TestDefaultRateLimitConfigs(t *testing.T) {
	assert.Equal(t, 30, middleware.ExpensiveRateLimit.RequestLimit)
	assert.Equal(t, 100, middleware.StandardRateLimit.RequestLimit)
	assert.Equal(t, 10, middleware.AdminRateLimit.RequestLimit)
	assert.Equal(t, time.Minute, middleware.AdminRateLimit.WindowLength)
}
