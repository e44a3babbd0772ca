// Package auth verifies shopper session tokens and exposes HTTP middleware
// that attaches the verified session to the request context.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 24 * time.Hour

var (
	// ErrTokenExpired signals that the session token has expired.
	ErrTokenExpired = errors.New("auth: session token expired")
	// ErrTokenInvalid signals that the session token failed verification.
	ErrTokenInvalid = errors.New("auth: session token invalid")
)

// SessionClaims are the JWT claims carried by a shopper session token.
type SessionClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// SessionVerifier issues and verifies HS256 session tokens with a shared
// secret.
type SessionVerifier struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// VerifierOption customises a SessionVerifier.
type VerifierOption func(*SessionVerifier)

// WithTokenTTL overrides the lifetime applied to issued tokens.
func WithTokenTTL(ttl time.Duration) VerifierOption {
	return func(v *SessionVerifier) {
		if ttl > 0 {
			v.ttl = ttl
		}
	}
}

// WithClock injects a custom clock primarily for tests.
func WithClock(clock func() time.Time) VerifierOption {
	return func(v *SessionVerifier) {
		if clock != nil {
			v.now = clock
		}
	}
}

// NewSessionVerifier constructs a verifier for the given shared secret.
func NewSessionVerifier(secret string, opts ...VerifierOption) (*SessionVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: session secret is required")
	}
	v := &SessionVerifier{
		secret: []byte(secret),
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v, nil
}

// Issue mints a signed session token for the given shopper.
func (v *SessionVerifier) Issue(userID, name string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", errors.New("auth: user id is required")
	}
	now := v.now()
	claims := SessionClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
func (v *SessionVerifier) Verify(tokenStr string) (SessionClaims, error) {
	var claims SessionClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return SessionClaims{}, ErrTokenExpired
		}
		return SessionClaims{}, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return SessionClaims{}, ErrTokenInvalid
	}
	return claims, nil
}
