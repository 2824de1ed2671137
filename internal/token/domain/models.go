// Package domain defines token types and errors for the authentication layer.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrAuthentication is the base class for every token failure surfaced
	// to callers. Handlers map it to 401.
	ErrAuthentication = errors.New("authentication failed")

	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenRevoked  = errors.New("token revoked or already used")
	ErrWrongCategory = errors.New("wrong token category")
)

// TokenRecord is one signed token together with its identity and validity.
type TokenRecord struct {
	Token     string
	JTI       string
	Identity  string
	Category  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Validity is the remaining lifetime at issuance. It matches the signed
// exp claim to the second.
func (r TokenRecord) Validity() time.Duration {
	return r.ExpiresAt.Sub(r.IssuedAt)
}

// TokenPair is what a successful sign-in or refresh returns.
type TokenPair struct {
	AccessToken      string `json:"accessToken"`
	RefreshToken     string `json:"refreshToken"`
	AccessExpiresIn  int64  `json:"accessExpiresIn"`
	RefreshExpiresIn int64  `json:"refreshExpiresIn"`
}
