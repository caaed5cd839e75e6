// Package identity supplies bearer tokens for authenticated calls to the
// wrappr backend. The catalog refresh path treats token acquisition as
// best-effort; providers here may fail and callers proceed unauthenticated.
package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// StaticProvider returns a fixed token. Used in development and tests.
type StaticProvider struct {
	Value string
}

func (p StaticProvider) Token(context.Context) (string, error) {
	return p.Value, nil
}

// JWTProvider signs short-lived HS256 service tokens and caches the signed
// token until shortly before expiry.
type JWTProvider struct {
	signingKey []byte
	issuer     string
	subject    string
	expiry     time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
}

// renewMargin is how long before expiry a cached token is considered stale.
const renewMargin = 30 * time.Second

// NewJWTProvider creates a provider that self-issues service tokens.
func NewJWTProvider(signingKey, issuer, subject string, expiry time.Duration) (*JWTProvider, error) {
	if len(signingKey) == 0 {
		return nil, fmt.Errorf("jwt provider: signing key required")
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &JWTProvider{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		subject:    subject,
		expiry:     expiry,
	}, nil
}

// Token returns a valid signed token, reusing the cached one while it has
// more than renewMargin left.
func (p *JWTProvider) Token(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	if p.token != "" && now.Add(renewMargin).Before(p.expires) {
		return p.token, nil
	}

	expires := now.Add(p.expiry)
	claims := jwt.RegisteredClaims{
		Subject:   p.subject,
		Issuer:    p.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.New().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.signingKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}

	p.token = signed
	p.expires = expires
	return signed, nil
}
