package ports

import (
	"errors"
	"time"
)

var (
	// ErrInvalidToken covers malformed, expired, or wrongly signed tokens.
	ErrInvalidToken = errors.New("invalid bearer token")
	// ErrMissingToken is returned when no bearer token accompanies the request.
	ErrMissingToken = errors.New("missing bearer token")
)

// TokenClaims are the identity facts carried inside a bearer token.
type TokenClaims struct {
	Subject   string
	UserID    int64
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenCodec signs and verifies bearer tokens.
type TokenCodec interface {
	Issue(claims TokenClaims) (string, error)
	Parse(token string) (*TokenClaims, error)
}
