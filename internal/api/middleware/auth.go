package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/digitaladdress/locator/internal/api/models"
	"github.com/digitaladdress/locator/internal/auth"
)

type operatorKey struct{}

// TokenValidator validates operator bearer tokens.
type TokenValidator interface {
	ValidateOperatorToken(token string) (*auth.OperatorClaims, error)
}

// OperatorAuth returns middleware that requires a valid operator token granting scope.
func OperatorAuth(tokens TokenValidator, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, r, "missing or malformed bearer token")
				return
			}

			claims, err := tokens.ValidateOperatorToken(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					writeUnauthorized(w, r, "operator token has expired")
				default:
					writeUnauthorized(w, r, "invalid operator token")
				}
				return
			}

			if !claims.HasScope(scope) {
				problem := models.NewForbidden(GetRequestID(r.Context()), "operator token lacks the "+scope+" scope")
				problem.Instance = r.URL.Path
				problem.Write(w)
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// writeUnauthorized writes the problem directly; the response package imports this one.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	w.Header().Set("WWW-Authenticate", `Bearer realm="locator-ops"`)
	problem.Write(w)
}

// GetOperator returns the authenticated operator subject, or "" when unauthenticated.
func GetOperator(ctx context.Context) string {
	if subject, ok := ctx.Value(operatorKey{}).(string); ok {
		return subject
	}
	return ""
}
