// Package auth hashes passwords and issues and verifies bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers malformed, badly signed and expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenRevoked is returned for tokens revoked by logout.
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Claims carries the user id as the token subject. The registered id (jti)
// only exists so a single token can be revoked.
type Claims struct {
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
	}
	return id, nil
}

// TokenManager signs and verifies HS256 tokens with a fixed lifetime.
type TokenManager struct {
	secret   []byte
	ttl      time.Duration
	denylist *Denylist
	now      func() time.Time
}

// NewTokenManager creates a token manager. A nil denylist disables
// server-side revocation, so logout is purely a client-side affair.
func NewTokenManager(secret string, ttl time.Duration, denylist *Denylist) *TokenManager {
	return &TokenManager{
		secret:   []byte(secret),
		ttl:      ttl,
		denylist: denylist,
		now:      time.Now,
	}
}

// Issue creates a signed token for userID.
func (m *TokenManager) Issue(userID int64) (string, *Claims, error) {
	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, expiry and revocation of a raw token.
func (m *TokenManager) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	if m.denylist != nil && m.denylist.Revoked(claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke denies the token until its natural expiry. It reports false when
// revocation is disabled.
func (m *TokenManager) Revoke(claims *Claims) bool {
	if m.denylist == nil || claims == nil || claims.ExpiresAt == nil {
		return false
	}
	m.denylist.Revoke(claims.ID, claims.ExpiresAt.Time)
	return true
}

// Sweep drops denylist entries whose tokens have expired. It returns 0
// when revocation is disabled.
func (m *TokenManager) Sweep() int {
	if m.denylist == nil {
		return 0
	}
	return m.denylist.Prune()
}

// RevocationEnabled reports whether logout revokes tokens server-side.
func (m *TokenManager) RevocationEnabled() bool {
	return m.denylist != nil
}

// TTL returns the token lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}
