// Package auth signs and verifies the HS256 bearer tokens presented to the API.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Apurer/brix-market/internal/domains/users/ports"
)

var _ ports.TokenCodec = (*HMACCodec)(nil)

// DefaultTokenTTL bounds tokens issued without an explicit lifetime.
const DefaultTokenTTL = 24 * time.Hour

type marketClaims struct {
	UserID int64  `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// HMACCodec issues and validates HS256 tokens with a shared secret.
type HMACCodec struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// CodecOption customises the codec.
type CodecOption func(*HMACCodec)

// WithIssuer sets the iss claim written and required by the codec.
func WithIssuer(issuer string) CodecOption {
	return func(c *HMACCodec) {
		c.issuer = strings.TrimSpace(issuer)
	}
}

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) CodecOption {
	return func(c *HMACCodec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) CodecOption {
	return func(c *HMACCodec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewHMACCodec builds a codec for the given secret.
func NewHMACCodec(secret string, opts ...CodecOption) (*HMACCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	codec := &HMACCodec{
		secret: []byte(secret),
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(codec)
		}
	}
	// Expiry is checked against the codec clock in Parse.
	codec.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	return codec, nil
}

// Issue signs the claims. Zero timestamps are filled from the codec clock and TTL.
func (c *HMACCodec) Issue(claims ports.TokenClaims) (string, error) {
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("auth: token subject is required")
	}
	issuedAt := claims.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = c.now()
	}
	expiresAt := claims.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = issuedAt.Add(c.ttl)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, marketClaims{
		UserID: claims.UserID,
		Role:   claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm, expiry, and issuer.
func (c *HMACCodec) Parse(raw string) (*ports.TokenClaims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ports.ErrMissingToken
	}
	var claims marketClaims
	_, err := c.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrInvalidToken, err)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.Time.After(c.now()) {
		return nil, fmt.Errorf("%w: token expired", ports.ErrInvalidToken)
	}
	if c.issuer != "" && claims.Issuer != c.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ports.ErrInvalidToken, claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: subject missing", ports.ErrInvalidToken)
	}
	out := &ports.TokenClaims{
		Subject: claims.Subject,
		UserID:  claims.UserID,
		Role:    claims.Role,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	out.ExpiresAt = claims.ExpiresAt.Time
	return out, nil
}
