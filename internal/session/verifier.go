package session

import (
	"context"
	"fmt"

	"yapisite/pkg/platform/sentinel"
	"yapisite/pkg/requestcontext"
)

// Verifier turns a session token into an authenticated principal.
type Verifier struct {
	tokens      *TokenService
	revocations RevocationList
}

func NewVerifier(tokens *TokenService, revocations RevocationList) *Verifier {
	return &Verifier{tokens: tokens, revocations: revocations}
}

// Verify validates token and checks it has not been revoked.
//
// Bad, expired and revoked tokens return an error matching
// sentinel.ErrUnauthorized or sentinel.ErrExpired. A revocation store
// failure returns sentinel.ErrUnavailable.
func (v *Verifier) Verify(ctx context.Context, token string) (requestcontext.AuthPrincipal, error) {
	claims, err := v.tokens.Validate(token)
	if err != nil {
		return requestcontext.AuthPrincipal{}, err
	}
	if v.revocations != nil {
		revoked, err := v.revocations.IsRevoked(ctx, claims.ID)
		if err != nil {
			return requestcontext.AuthPrincipal{}, fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
		}
		if revoked {
			return requestcontext.AuthPrincipal{}, fmt.Errorf("session revoked: %w", sentinel.ErrUnauthorized)
		}
	}
	return principalFromClaims(claims), nil
}

// Revoke invalidates token for the rest of its lifetime. Tokens that no
// longer validate need no revocation.
func (v *Verifier) Revoke(ctx context.Context, token string) error {
	claims, err := v.tokens.Validate(token)
	if err != nil || v.revocations == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(v.tokens.now())
	if ttl <= 0 {
		return nil
	}
	return v.revocations.Revoke(ctx, claims.ID, ttl)
}

func principalFromClaims(c *Claims) requestcontext.AuthPrincipal {
	p := requestcontext.AuthPrincipal{
		Subject: c.Subject,
		Role:    c.Role,
		TokenID: c.ID,
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}
