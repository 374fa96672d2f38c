// Package session holds the operator's bearer credential behind an injected
// store, and checks its expiry client-side before any request is made.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoCredential is returned when no credential is stored.
	ErrNoCredential = errors.New("not logged in")

	// ErrCredentialExpired is returned when the stored credential has expired.
	ErrCredentialExpired = errors.New("credential expired")
)

// DefaultLifetime is assumed for tokens that carry no readable expiry.
const DefaultLifetime = 8 * time.Hour

// Credential is a bearer token issued by the workflow API.
type Credential struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the credential is expired at now, treating the
// last skew before ExpiresAt as already expired.
func (c *Credential) ExpiredAt(now time.Time, skew time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(c.ExpiresAt)
}

// TTL returns the time left until expiry at now, 0 if expired.
func (c *Credential) TTL(now time.Time) time.Duration {
	ttl := c.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// Store persists a single credential.
type Store interface {
	// GetCredential returns ErrNoCredential when nothing is stored.
	GetCredential(ctx context.Context) (*Credential, error)
	SetCredential(ctx context.Context, c *Credential) error
	ClearCredential(ctx context.Context) error
}

// NewCredential builds a Credential for token, reading iat/exp from the JWT
// payload when present. The signature is not verified; the API does that.
func NewCredential(token, username string, now time.Time) *Credential {
	issued, expires := ExpiryFromToken(token, now)
	return &Credential{
		Token:     token,
		Username:  username,
		IssuedAt:  issued,
		ExpiresAt: expires,
	}
}

// ExpiryFromToken returns the issued-at and expiry times carried by a JWT.
// Opaque tokens, or JWTs without exp, get now and now+DefaultLifetime.
func ExpiryFromToken(token string, now time.Time) (issuedAt, expiresAt time.Time) {
	issuedAt = now
	expiresAt = now.Add(DefaultLifetime)

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return issuedAt, expiresAt
	}
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return issuedAt, expiresAt
}
