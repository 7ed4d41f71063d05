package testutil

import (
	"net/http"
	"time"

	"yapisite/pkg/requestcontext"
)

// WithPrincipal simulates what the session gate does for an authorized
// administrative request.
func WithPrincipal(req *http.Request, subject, role string) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), requestcontext.AuthPrincipal{
		Subject:   subject,
		Role:      role,
		TokenID:   "test-jti",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	return req.WithContext(ctx)
}

// WithLocale simulates what locale negotiation does for a public request.
func WithLocale(req *http.Request, locale string) *http.Request {
	return req.WithContext(requestcontext.WithLocale(req.Context(), locale))
}
