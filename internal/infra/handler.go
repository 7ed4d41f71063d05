// Package infra serves infrastructure routes: health, metrics, static files,
// crawler files and the programmatic catalogue API.
package infra

import (
	"context"
	"encoding/xml"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"yapisite/internal/catalog"
	"yapisite/internal/gateway/localeprefix"
	"yapisite/internal/i18n"
	"yapisite/internal/search"
	"yapisite/pkg/platform/httputil"
	"yapisite/pkg/requestcontext"
)

const healthTimeout = 2 * time.Second

// Checker is a dependency probed by /healthz.
type Checker interface {
	Name() string
	Health(ctx context.Context) error
}

type ProductSearcher interface {
	Search(ctx context.Context, term string, page, pageSize int) (search.Page[catalog.Product], error)
}

// Catalog lists the pages included in the sitemap.
type Catalog interface {
	FindPage(ctx context.Context, skip, take int) ([]catalog.Product, int, error)
}

type CategoryLister interface {
	All(ctx context.Context) ([]catalog.Category, error)
}

// Config holds the infrastructure routing settings.
type Config struct {
	// BaseURL is the canonical scheme://host used in robots.txt and the
	// sitemap; when empty the request host is used.
	BaseURL     string
	AdminPrefix string
	StaticDir   string
	UploadsDir  string
	CORSOrigins []string
}

// Deps are the collaborators of Handler.
type Deps struct {
	Checkers   []Checker
	Gatherer   prometheus.Gatherer
	Products   ProductSearcher
	Catalog    Catalog
	Categories CategoryLister
	Negotiator *localeprefix.Negotiator
	Resolver   *i18n.Resolver
	Logger     *slog.Logger
}

// Handler handles infrastructure endpoints.
type Handler struct {
	cfg  Config
	deps Deps
}

func New(cfg Config, deps Deps) *Handler {
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{cfg: cfg, deps: deps}
}

// Register registers the infrastructure routes with the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(h.deps.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/robots.txt", h.handleRobots)
	r.Get("/sitemap.xml", h.handleSitemap)
	if h.cfg.StaticDir != "" {
		static := os.DirFS(h.cfg.StaticDir)
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(static)))
		r.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFileFS(w, r, static, "favicon.ico")
		})
	}
	if h.cfg.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServerFS(os.DirFS(h.cfg.UploadsDir))))
	}

	api := cors.New(cors.Options{
		AllowedOrigins: h.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api.Handler)
		r.Get("/products", h.handleAPIProducts)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSONError(w, http.StatusNotFound, httputil.CodeNotFound, "resource not found")
	})
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	var (
		g        errgroup.Group
		mu       sync.Mutex
		degraded bool
	)
	checks := make(map[string]string, len(h.deps.Checkers))
	// Every check reports; a failing one does not cancel the others.
	for _, c := range h.deps.Checkers {
		g.Go(func() error {
			err := c.Health(ctx)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				degraded = true
				checks[c.Name()] = "unavailable"
				h.deps.Logger.WarnContext(ctx, "health check failed",
					"dependency", c.Name(),
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				return nil
			}
			checks[c.Name()] = "ok"
			return nil
		})
	}
	_ = g.Wait()

	if degraded {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Checks: checks})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Checks: checks})
}

func (h *Handler) baseURL(r *http.Request) string {
	if h.cfg.BaseURL != "" {
		return strings.TrimRight(h.cfg.BaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func (h *Handler) handleRobots(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	if h.cfg.AdminPrefix != "" {
		b.WriteString("Disallow: " + h.cfg.AdminPrefix + "\n")
	}
	b.WriteString("Sitemap: " + h.baseURL(r) + "/sitemap.xml\n")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	XHTML   string       `xml:"xmlns:xhtml,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc   string        `xml:"loc"`
	Links []sitemapLink `xml:"xhtml:link"`
}

type sitemapLink struct {
	Rel      string `xml:"rel,attr"`
	HrefLang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

const sitemapBatch = search.MaxPageSize

func (h *Handler) handleSitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	paths := []string{"/", "/products"}

	categories, err := h.deps.Categories.All(ctx)
	if err != nil {
		h.writeError(w, r, "sitemap categories", err)
		return
	}
	for _, c := range categories {
		paths = append(paths, "/categories/"+c.Slug)
	}
	for skip := 0; ; skip += sitemapBatch {
		products, total, err := h.deps.Catalog.FindPage(ctx, skip, sitemapBatch)
		if err != nil {
			h.writeError(w, r, "sitemap products", err)
			return
		}
		for _, p := range products {
			paths = append(paths, "/products/"+p.Slug)
		}
		if len(products) == 0 || skip+sitemapBatch >= total {
			break
		}
	}

	base := h.baseURL(r)
	set := urlSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		XHTML: "http://www.w3.org/1999/xhtml",
	}
	for _, path := range paths {
		alternates := h.deps.Negotiator.Alternates(path)
		links := make([]sitemapLink, len(alternates))
		for i, a := range alternates {
			links[i] = sitemapLink{Rel: "alternate", HrefLang: string(a.Locale), Href: base + a.Path}
		}
		for _, a := range alternates {
			set.URLs = append(set.URLs, sitemapURL{Loc: base + a.Path, Links: links})
		}
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(set); err != nil {
		h.deps.Logger.ErrorContext(ctx, "failed to encode sitemap",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

type apiProduct struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

// handleAPIProducts serves catalogue search for programmatic clients. The
// locale comes from the "locale" query parameter, never the path.
func (h *Handler) handleAPIProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	locales := h.deps.Negotiator.Locales()
	locale := locales.Default()
	if code := q.Get("locale"); code != "" {
		l, ok := locales.Lookup(strings.ToLower(code))
		if !ok {
			httputil.WriteJSONError(w, http.StatusBadRequest, httputil.CodeBadRequest, "unsupported locale")
			return
		}
		locale = l
	}
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	res, err := h.deps.Products.Search(ctx, q.Get("q"), page, size)
	if err != nil {
		h.writeError(w, r, "api product search", err)
		return
	}
	items := make([]apiProduct, len(res.Items))
	for i, p := range res.Items {
		items[i] = apiProduct{
			ID:    p.ID,
			Slug:  p.Slug,
			Title: h.deps.Resolver.ResolveOr(p.Title, locale, p.Slug),
			Path:  h.deps.Negotiator.PathFor(locale, "/products/"+p.Slug),
		}
	}
	w.Header().Set("Content-Language", string(locale))
	httputil.WriteJSON(w, http.StatusOK, search.Page[apiProduct]{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	h.deps.Logger.ErrorContext(ctx, op+" failed",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	if errors.Is(err, context.DeadlineExceeded) {
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, httputil.CodeUnavailable, "")
		return
	}
	httputil.WriteError(w, err)
}
