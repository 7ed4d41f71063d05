// Package admin serves the administrative surface: login, logout, the
// dashboard, searchable catalogue listings and cache invalidation.
package admin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"yapisite/internal/catalog"
	"yapisite/internal/gateway/classify"
	"yapisite/internal/gateway/sessiongate"
	"yapisite/internal/i18n"
	"yapisite/internal/platform/metrics"
	"yapisite/internal/ratelimit"
	"yapisite/internal/search"
	"yapisite/internal/session"
	"yapisite/pkg/platform/httputil"
	"yapisite/pkg/platform/sentinel"
	"yapisite/pkg/requestcontext"
)

// UserStore looks up administrative accounts.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (User, error)
}

// SessionIssuer signs new session tokens.
type SessionIssuer interface {
	Issue(subject, role string) (string, *session.Claims, error)
}

// SessionRevoker invalidates a session token on logout.
type SessionRevoker interface {
	Revoke(ctx context.Context, token string) error
}

// CacheInvalidator drops cached page data after content changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ProductSearcher and CategorySearcher run keyed search pagination.
type ProductSearcher interface {
	Search(ctx context.Context, term string, page, pageSize int) (search.Page[catalog.Product], error)
}

type CategorySearcher interface {
	Search(ctx context.Context, term string, page, pageSize int) (search.Page[catalog.Category], error)
}

// LoginLimiter throttles repeated logins per account and client. Attempt
// must reserve the attempt atomically; it is called before the password is
// compared.
type LoginLimiter interface {
	Attempt(ctx context.Context, identifier, ip string) (ratelimit.Result, error)
	Clear(ctx context.Context, identifier, ip string) error
}

// Config holds the administrative routing settings.
type Config struct {
	Prefix        string
	LoginPath     string
	ReturnToParam string
	Role          string
	DisplayLocale i18n.Locale
}

// Deps are the collaborators of Handler.
type Deps struct {
	Users      UserStore
	Sessions   SessionIssuer
	Revoker    SessionRevoker
	Cookie     session.Cookie
	Products   ProductSearcher
	Categories CategorySearcher
	Cache      CacheInvalidator
	Limiter    LoginLimiter
	Resolver   *i18n.Resolver
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// Handler handles administrative endpoints.
type Handler struct {
	cfg Config
	Deps
}

// dummyHash keeps the unknown-user path as slow as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("yapisite-no-such-user"), bcrypt.DefaultCost)

func New(cfg Config, deps Deps) *Handler {
	if cfg.ReturnToParam == "" {
		cfg.ReturnToParam = "from"
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{cfg: cfg, Deps: deps}
}

// Register mounts the administrative routes under the admin prefix.
func (h *Handler) Register(r chi.Router) {
	r.Route(h.cfg.Prefix, func(r chi.Router) {
		r.Get("/", h.handleDashboard)
		r.Get(strings.TrimPrefix(h.cfg.LoginPath, h.cfg.Prefix), h.handleLoginForm)
		r.Post(strings.TrimPrefix(h.cfg.LoginPath, h.cfg.Prefix), h.handleLogin)
		r.Post("/logout", h.handleLogout)
		r.Get("/products", h.handleProducts)
		r.Get("/categories", h.handleCategories)
		r.With(sessiongate.RequireRole(h.Logger, h.cfg.Role)).Post("/cache/invalidate", h.handleInvalidateCache)
	})
}

type loginFormResponse struct {
	Action   string `json:"action"`
	ReturnTo string `json:"return_to,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (h *Handler) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	httputil.WriteJSON(w, http.StatusOK, loginFormResponse{
		Action:   h.cfg.LoginPath,
		ReturnTo: h.safeReturnTo(q.Get(h.cfg.ReturnToParam)),
		Error:    q.Get("error"),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	if err := r.ParseForm(); err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, httputil.CodeBadRequest, "invalid form body")
		return
	}
	email := normalizeEmail(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	returnTo := h.safeReturnTo(r.PostForm.Get(h.cfg.ReturnToParam))
	clientIP := requestcontext.ClientIP(ctx)

	if !h.reserveAttempt(ctx, email, clientIP) {
		h.Metrics.IncLogin("locked")
		http.Redirect(w, r, h.loginErrorURL("locked", returnTo), http.StatusSeeOther)
		return
	}

	user, err := h.authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, sentinel.ErrUnauthorized) {
			h.Metrics.IncLogin("invalid")
			h.Logger.WarnContext(ctx, "admin login rejected",
				"client_ip", clientIP,
				"request_id", requestID,
			)
			http.Redirect(w, r, h.loginErrorURL("invalid", returnTo), http.StatusSeeOther)
			return
		}
		h.Metrics.IncLogin("error")
		h.Logger.ErrorContext(ctx, "admin login failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	token, claims, err := h.Sessions.Issue(user.Email, user.Role)
	if err != nil {
		h.Metrics.IncLogin("error")
		h.Logger.ErrorContext(ctx, "failed to issue session", "error", err, "request_id", requestID)
		httputil.WriteJSONError(w, http.StatusInternalServerError, httputil.CodeInternal, "")
		return
	}
	h.Cookie.Write(w, r, token, claims.ExpiresAt.Time)
	if h.Limiter != nil {
		if err := h.Limiter.Clear(ctx, email, clientIP); err != nil {
			h.Logger.WarnContext(ctx, "failed to clear login attempts", "error", err, "request_id", requestID)
		}
	}
	h.Metrics.IncLogin("success")
	h.Logger.InfoContext(ctx, "admin logged in", "subject", user.Email, "request_id", requestID)

	if returnTo == "" {
		returnTo = h.cfg.Prefix
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// reserveAttempt takes a slot from the limiter before any credential check
// and reports whether the login may proceed. It fails open when the limiter
// is unavailable.
func (h *Handler) reserveAttempt(ctx context.Context, email, clientIP string) bool {
	if h.Limiter == nil || email == "" {
		return true
	}
	res, err := h.Limiter.Attempt(ctx, email, clientIP)
	if err != nil {
		h.Logger.ErrorContext(ctx, "login limiter unavailable",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return true
	}
	if !res.Allowed {
		h.Logger.WarnContext(ctx, "admin login locked",
			"client_ip", clientIP,
			"retry_after", res.RetryAfter,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return res.Allowed
}

func (h *Handler) authenticate(ctx context.Context, email, password string) (User, error) {
	if email == "" || password == "" {
		return User{}, sentinel.ErrUnauthorized
	}
	user, err := h.Users.FindByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return User{}, sentinel.ErrUnauthorized
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, sentinel.ErrUnauthorized
	}
	return user, nil
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if token, ok := h.Cookie.Read(r); ok {
		if err := h.Revoker.Revoke(ctx, token); err != nil {
			h.Logger.ErrorContext(ctx, "failed to revoke session on logout",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
	h.Cookie.Clear(w, r)
	http.Redirect(w, r, h.cfg.LoginPath, http.StatusSeeOther)
}

type dashboardResponse struct {
	Subject   string            `json:"subject"`
	Role      string            `json:"role"`
	ExpiresAt time.Time         `json:"expires_at"`
	Links     map[string]string `json:"links"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	principal, ok := requestcontext.Principal(r.Context())
	if !ok {
		httputil.WriteJSONError(w, http.StatusUnauthorized, httputil.CodeUnauthorized, "authentication required")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, dashboardResponse{
		Subject:   principal.Subject,
		Role:      principal.Role,
		ExpiresAt: principal.ExpiresAt,
		Links: map[string]string{
			"products":   h.cfg.Prefix + "/products",
			"categories": h.cfg.Prefix + "/categories",
			"logout":     h.cfg.Prefix + "/logout",
		},
	})
}

type listItem struct {
	ID        string             `json:"id"`
	Slug      string             `json:"slug"`
	Title     string             `json:"title"`
	TitleI18n i18n.LocalizedText `json:"title_i18n"`
	SortOrder int                `json:"sort_order"`
}

type listResponse struct {
	Query string `json:"q,omitempty"`
	search.Page[listItem]
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	term, page, size := listParams(r)
	res, err := h.Products.Search(r.Context(), term, page, size)
	if err != nil {
		h.writeSearchError(w, r, "product", err)
		return
	}
	items := make([]listItem, len(res.Items))
	for i, p := range res.Items {
		items[i] = h.listItem(p.ID, p.Slug, p.Title, p.SortOrder)
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Query: term, Page: repage(res, items)})
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	term, page, size := listParams(r)
	res, err := h.Categories.Search(r.Context(), term, page, size)
	if err != nil {
		h.writeSearchError(w, r, "category", err)
		return
	}
	items := make([]listItem, len(res.Items))
	for i, c := range res.Items {
		items[i] = h.listItem(c.ID, c.Slug, c.Title, c.SortOrder)
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Query: term, Page: repage(res, items)})
}

func (h *Handler) handleInvalidateCache(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Cache.Invalidate(ctx); err != nil {
		h.Logger.ErrorContext(ctx, "cache invalidation failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, httputil.CodeUnavailable, "cache invalidation failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeSearchError(w http.ResponseWriter, r *http.Request, entity string, err error) {
	ctx := r.Context()
	h.Logger.ErrorContext(ctx, "admin search failed",
		"entity", entity,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSONError(w, http.StatusInternalServerError, httputil.CodeInternal, "search failed")
}

func (h *Handler) listItem(id, slug string, title i18n.LocalizedText, sortOrder int) listItem {
	return listItem{
		ID:        id,
		Slug:      slug,
		Title:     h.Resolver.ResolveOr(title, h.cfg.DisplayLocale, "("+id+")"),
		TitleI18n: title,
		SortOrder: sortOrder,
	}
}

func repage[T any](src search.Page[T], items []listItem) search.Page[listItem] {
	return search.Page[listItem]{
		Items:      items,
		Total:      src.Total,
		Page:       src.Page,
		PageSize:   src.PageSize,
		TotalPages: src.TotalPages,
	}
}

// listParams reads q, page and page_size; malformed numbers fall back to the
// paginator defaults.
func listParams(r *http.Request) (string, int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return q.Get("q"), page, size
}

// safeReturnTo accepts only local paths under the admin prefix, other than
// the login page itself.
func (h *Handler) safeReturnTo(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.ContainsRune(raw, '\\') {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	if !classify.HasPathPrefix(u.Path, h.cfg.Prefix) {
		return ""
	}
	if strings.TrimSuffix(u.Path, "/") == strings.TrimSuffix(h.cfg.LoginPath, "/") {
		return ""
	}
	return raw
}

func (h *Handler) loginErrorURL(reason, returnTo string) string {
	v := url.Values{}
	v.Set("error", reason)
	if returnTo != "" {
		v.Set(h.cfg.ReturnToParam, returnTo)
	}
	return h.cfg.LoginPath + "?" + v.Encode()
}
