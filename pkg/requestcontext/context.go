// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// This package defines context keys and getter/setter functions for values that are
// set by the gateway middleware but consumed by handlers and services. By keeping this
// package free of net/http dependencies, services can import only what they need.
//
// Usage in handlers (read values):
//
//	principal, ok := requestcontext.Principal(ctx)
//	locale := requestcontext.Locale(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithPrincipal(ctx, p)
//	ctx = requestcontext.WithLocale(ctx, "en")
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	principalKey    struct{}
	localeKey       struct{}
	routeClassKey   struct{}
	originalPathKey struct{}
	clientIPKey     struct{}
	userAgentKey    struct{}
	requestIDKey    struct{}
	requestTimeKey  struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyPrincipal    = principalKey{}
	ContextKeyLocale       = localeKey{}
	ContextKeyRouteClass   = routeClassKey{}
	ContextKeyOriginalPath = originalPathKey{}
	ContextKeyClientIP     = clientIPKey{}
	ContextKeyUserAgent    = userAgentKey{}
	ContextKeyRequestID    = requestIDKey{}
	ContextKeyRequestTime  = requestTimeKey{}
)

// AuthPrincipal is the verified identity carried by an administrative request.
type AuthPrincipal struct {
	Subject   string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// -----------------------------------------------------------------------------
// Auth context
// -----------------------------------------------------------------------------

// Principal retrieves the verified principal from the context.
// The bool is false when the request was not authenticated by the session gate.
func Principal(ctx context.Context) (AuthPrincipal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(AuthPrincipal)
	return p, ok
}

// WithPrincipal injects a verified principal into the context.
func WithPrincipal(ctx context.Context, p AuthPrincipal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// -----------------------------------------------------------------------------
// Routing context (locale, route class, original path)
// -----------------------------------------------------------------------------

// Locale retrieves the negotiated locale code. Returns "" if not set.
func Locale(ctx context.Context) string {
	if locale, ok := ctx.Value(ContextKeyLocale).(string); ok {
		return locale
	}
	return ""
}

// WithLocale injects the negotiated locale code into the context.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ContextKeyLocale, locale)
}

// RouteClass retrieves the route class name assigned by the dispatcher.
func RouteClass(ctx context.Context) string {
	if class, ok := ctx.Value(ContextKeyRouteClass).(string); ok {
		return class
	}
	return ""
}

// WithRouteClass injects the route class name into the context.
func WithRouteClass(ctx context.Context, class string) context.Context {
	return context.WithValue(ctx, ContextKeyRouteClass, class)
}

// OriginalPath retrieves the request path as received, before any locale prefix was stripped.
func OriginalPath(ctx context.Context) string {
	if p, ok := ctx.Value(ContextKeyOriginalPath).(string); ok {
		return p
	}
	return ""
}

// WithOriginalPath injects the pre-rewrite request path into the context.
func WithOriginalPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, ContextKeyOriginalPath, path)
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (for non-HTTP contexts like CLI and tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
