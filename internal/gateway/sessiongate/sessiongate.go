// Package sessiongate decides whether an administrative request may proceed.
package sessiongate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"yapisite/internal/session"
	"yapisite/pkg/platform/httputil"
	"yapisite/pkg/platform/sentinel"
	"yapisite/pkg/requestcontext"
)

// Verifier validates a session credential.
type Verifier interface {
	Verify(ctx context.Context, token string) (requestcontext.AuthPrincipal, error)
}

// Outcome of Authorize.
type Outcome int

const (
	Allow Outcome = iota
	RedirectToLogin
)

// Decision carries the principal on Allow and the login URL on RedirectToLogin.
// The login path itself is allowed without a principal.
type Decision struct {
	Outcome   Outcome
	Principal *requestcontext.AuthPrincipal
	Location  string
}

// Config holds the gate's routing parameters.
type Config struct {
	LoginPath     string
	ReturnToParam string
	Cookie        session.Cookie
}

// Gate authorizes administrative requests.
type Gate struct {
	verifier Verifier
	cfg      Config
	logger   *slog.Logger
}

func New(verifier Verifier, cfg Config, logger *slog.Logger) *Gate {
	if cfg.ReturnToParam == "" {
		cfg.ReturnToParam = "from"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{verifier: verifier, cfg: cfg, logger: logger}
}

// IsLoginPath reports whether path is the login page, with or without a
// trailing slash.
func (g *Gate) IsLoginPath(path string) bool {
	return strings.TrimSuffix(path, "/") == strings.TrimSuffix(g.cfg.LoginPath, "/")
}

// Authorize verifies the session credential of r.
//
// Missing, invalid, expired and revoked credentials all redirect to the
// login page with the original path and query as the return target. Only
// verifier infrastructure failures are returned as errors.
func (g *Gate) Authorize(ctx context.Context, r *http.Request) (Decision, error) {
	if g.IsLoginPath(r.URL.Path) {
		return Decision{Outcome: Allow}, nil
	}

	token, ok := g.credential(r)
	if !ok {
		return g.redirect(r), nil
	}

	principal, err := g.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnavailable) {
			return Decision{}, err
		}
		g.logger.DebugContext(ctx, "admin session rejected",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return g.redirect(r), nil
	}
	return Decision{Outcome: Allow, Principal: &principal}, nil
}

// LoginURL builds the login redirect for returnTo.
func (g *Gate) LoginURL(returnTo string) string {
	if returnTo == "" {
		return g.cfg.LoginPath
	}
	return g.cfg.LoginPath + "?" + g.cfg.ReturnToParam + "=" + escapeQueryValue(returnTo)
}

func (g *Gate) redirect(r *http.Request) Decision {
	returnTo := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		returnTo += "?" + r.URL.RawQuery
	}
	return Decision{Outcome: RedirectToLogin, Location: g.LoginURL(returnTo)}
}

func (g *Gate) credential(r *http.Request) (string, bool) {
	if token, ok := g.cfg.Cookie.Read(r); ok {
		return token, true
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		if token := strings.TrimSpace(after); token != "" {
			return token, true
		}
	}
	return "", false
}

// escapeQueryValue is url.QueryEscape with "/" left readable, which RFC 3986
// permits inside a query.
func escapeQueryValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "%2F", "/")
}

// RequireRole rejects requests whose principal lacks one of roles. It relies
// on the principal placed in the context by the gate.
func RequireRole(logger *slog.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			principal, ok := requestcontext.Principal(ctx)
			if !ok {
				logger.WarnContext(ctx, "role check without principal",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteJSONError(w, http.StatusUnauthorized, httputil.CodeUnauthorized, "authentication required")
				return
			}
			if !slices.Contains(roles, principal.Role) {
				logger.WarnContext(ctx, "forbidden - role not permitted",
					"subject", principal.Subject,
					"role", principal.Role,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteJSONError(w, http.StatusForbidden, httputil.CodeForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
