// Package auth issues and validates operator tokens for the administrative endpoints.
package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiry is how long operator tokens are valid when no TTL is configured.
const DefaultTokenExpiry = 1 * time.Hour

// Token errors.
var (
	ErrInvalidToken = errors.New("invalid operator token")
	ErrTokenExpired = errors.New("operator token has expired")
	ErrMissingScope = errors.New("operator token lacks required scope")
)

// Scopes granted to operator tokens.
const (
	ScopeOps   = "ops"
	ScopeAdmin = "admin"
)

// OperatorClaims are the claims of an operator token.
type OperatorClaims struct {
	jwt.RegisteredClaims

	// Scopes lists the operations the token grants.
	Scopes []string `json:"scp,omitempty"`
}

// HasScope reports whether the claims grant scope. Admin implies every scope.
func (c *OperatorClaims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope || s == ScopeAdmin {
			return true
		}
	}
	return false
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the secret key used to sign tokens.
	SigningKey string

	// Issuer is the issuer claim for tokens (e.g., "locator").
	Issuer string

	// Audience is the audience claim for tokens (e.g., "locator-ops").
	Audience string

	// TokenTTL is the token lifetime (default: 1 hour).
	TokenTTL time.Duration
}

// JWTService creates and validates HS256 operator tokens.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	ttl        time.Duration
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	ttl := cfg.TokenTTL
	if ttl == 0 {
		ttl = DefaultTokenExpiry
	}

	return &JWTService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		audience:   cfg.Audience,
		ttl:        ttl,
	}
}

// GenerateOperatorToken creates a token for subject with the given scopes.
func (s *JWTService) GenerateOperatorToken(subject string, scopes ...string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: subject is required", ErrInvalidToken)
	}

	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        generateTokenID(),
		},
		Scopes: scopes,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing operator token: %w", err)
	}

	return tokenString, expiresAt, nil
}

// ValidateOperatorToken validates a token and returns its claims.
func (s *JWTService) ValidateOperatorToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func generateTokenID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(bytes)
}
