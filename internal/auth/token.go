package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pionia-project/pionia/internal/config"
	"github.com/pionia-project/pionia/internal/errors"
)

// Claims carries the identity inside a signed bearer token.
type Claims struct {
	Permissions []string `json:"permissions,omitempty"`
	jwt.RegisteredClaims
}

// TokenProvider issues and verifies HMAC-signed bearer tokens carrying
// the caller's subject and permission set.
type TokenProvider struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// NewTokenProvider creates a token provider from auth configuration.
func NewTokenProvider(cfg config.AuthConfig) (*TokenProvider, error) {
	if cfg.SigningKey == "" {
		return nil, fmt.Errorf("auth signing key must not be empty")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenProvider{
		signingKey: []byte(cfg.SigningKey),
		issuer:     cfg.Issuer,
		ttl:        ttl,
	}, nil
}

// Issue signs a token for the given identity.
func (p *TokenProvider) Issue(identity *Identity) (string, error) {
	if identity == nil {
		return "", fmt.Errorf("cannot issue token for nil identity")
	}
	now := time.Now()
	claims := Claims{
		Permissions: identity.PermissionList(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Subject,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.signingKey)
}

// Verify parses and validates a token string, returning the identity
// it carries. Invalid or expired tokens fail with Unauthenticated.
func (p *TokenProvider) Verify(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.signingKey, nil
	})
	if err != nil {
		return nil, errors.Unauthenticated("Invalid or expired token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.Unauthenticated("Invalid or expired token")
	}
	return NewIdentity(claims.Subject, claims.Permissions...), nil
}
