// Package jwtauth issues and verifies the HS256 bearer tokens that carry a
// caller's email. Tokens are stateless; there is no refresh.
package jwtauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"aircnc/internal/domain"
)

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    domain.Clock
}

func New(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock swaps the time source; tests use it to step past expiry.
func (i *Issuer) WithClock(now domain.Clock) *Issuer {
	i.now = now
	return i
}

func (i *Issuer) Issue(c domain.Claim) (string, error) {
	email := strings.TrimSpace(c.Email)
	if email == "" {
		return "", fmt.Errorf("email is required: %w", domain.ErrInvalidRequest)
	}
	now := i.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	return tok.SignedString(i.secret)
}

func (i *Issuer) Verify(token string) (domain.Claim, error) {
	var c claims
	t, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return domain.Claim{}, fmt.Errorf("verify token: %w: %w", domain.ErrUnauthenticated, err)
	}
	if !t.Valid || c.Email == "" {
		return domain.Claim{}, fmt.Errorf("verify token: %w", domain.ErrUnauthenticated)
	}
	return domain.Claim{Email: c.Email}, nil
}
