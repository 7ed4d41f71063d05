// Package session issues and verifies the signed admin session tokens
// carried in the session cookie.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"yapisite/pkg/platform/sentinel"
)

// Claims are the JWT claims of a session token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 session tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
	now        func() time.Time
}

// TokenOption configures a TokenService.
type TokenOption func(*TokenService)

// WithTokenClock overrides the clock used for issued-at and expiry.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTokenService(signingKey, issuer string, ttl time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL is the lifetime given to issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for subject with role. The returned claims carry the
// token id used for revocation.
func (s *TokenService) Issue(subject, role string) (string, *Claims, error) {
	now := s.now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	return signed, claims, nil
}

// Validate parses tokenString and checks signature, issuer and expiry.
// Expired tokens return sentinel.ErrExpired, anything else invalid returns
// sentinel.ErrUnauthorized.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("session token expired: %w", sentinel.ErrExpired)
		}
		return nil, fmt.Errorf("invalid session token: %w", sentinel.ErrUnauthorized)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid session token claims: %w", sentinel.ErrUnauthorized)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("session token missing subject or id: %w", sentinel.ErrUnauthorized)
	}
	return claims, nil
}
