// Package site serves the public pages. Requests arrive with the locale
// prefix already stripped and the negotiated locale in the context.
package site

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"yapisite/internal/catalog"
	"yapisite/internal/gateway/localeprefix"
	"yapisite/internal/i18n"
	"yapisite/internal/search"
	"yapisite/internal/settings"
	"yapisite/pkg/platform/httputil"
	"yapisite/pkg/platform/sentinel"
	"yapisite/pkg/requestcontext"
)

// PageData supplies what every page renders.
type PageData interface {
	Settings(ctx context.Context) (settings.SiteSettings, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
}

type ProductCatalog interface {
	FindBySlug(ctx context.Context, slug string) (catalog.Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]catalog.Product, error)
}

type CategoryCatalog interface {
	FindBySlug(ctx context.Context, slug string) (catalog.Category, error)
}

type ProductSearcher interface {
	Search(ctx context.Context, term string, page, pageSize int) (search.Page[catalog.Product], error)
}

// Handler handles public page endpoints.
type Handler struct {
	pages      PageData
	products   ProductCatalog
	categories CategoryCatalog
	search     ProductSearcher
	negotiator *localeprefix.Negotiator
	resolver   *i18n.Resolver
	pageSize   int
	logger     *slog.Logger
}

func New(
	pages PageData,
	products ProductCatalog,
	categories CategoryCatalog,
	searcher ProductSearcher,
	negotiator *localeprefix.Negotiator,
	resolver *i18n.Resolver,
	pageSize int,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pages:      pages,
		products:   products,
		categories: categories,
		search:     searcher,
		negotiator: negotiator,
		resolver:   resolver,
		pageSize:   pageSize,
		logger:     logger,
	}
}

// Register registers the public routes with the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Get("/products", h.handleProducts)
	r.Get("/products/{slug}", h.handleProduct)
	r.Get("/categories/{slug}", h.handleCategory)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSONError(w, http.StatusNotFound, httputil.CodeNotFound, "page not found")
	})
}

type link struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

type layout struct {
	Locale     i18n.Locale              `json:"locale"`
	Alternates []localeprefix.Alternate `json:"alternates"`
	SiteName   string                   `json:"site_name"`
	Tagline    string                   `json:"tagline,omitempty"`
	FooterText string                   `json:"footer_text,omitempty"`
	Phone      string                   `json:"phone,omitempty"`
	Email      string                   `json:"email,omitempty"`
	WhatsApp   string                   `json:"whatsapp,omitempty"`
	Social     map[string]string        `json:"social,omitempty"`
	Navigation []link                   `json:"navigation"`
}

type homePage struct {
	layout
	Categories []categorySummary `json:"categories"`
}

type categorySummary struct {
	link
	Description string `json:"description,omitempty"`
}

type productSummary struct {
	link
	ImagePath string `json:"image_path,omitempty"`
}

type productListPage struct {
	layout
	Query string `json:"q,omitempty"`
	search.Page[productSummary]
}

type productPage struct {
	layout
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	SEOTitle       string `json:"seo_title"`
	SEODescription string `json:"seo_description,omitempty"`
	ImagePath      string `json:"image_path,omitempty"`
	Category       *link  `json:"category,omitempty"`
}

type categoryPage struct {
	layout
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Products    []productSummary `json:"products"`
}

func (h *Handler) locale(ctx context.Context) i18n.Locale {
	if code := requestcontext.Locale(ctx); code != "" {
		return i18n.Locale(code)
	}
	return h.negotiator.Locales().Default()
}

// layout resolves the shared page frame for path, the unprefixed path of the
// page being rendered. The category list is returned for pages that need it.
func (h *Handler) layout(ctx context.Context, path string) (layout, []catalog.Category, error) {
	locale := h.locale(ctx)
	s, err := h.pages.Settings(ctx)
	if err != nil {
		return layout{}, nil, err
	}
	categories, err := h.pages.Categories(ctx)
	if err != nil {
		return layout{}, nil, err
	}
	nav := make([]link, len(categories))
	for i, c := range categories {
		nav[i] = h.categoryLink(c, locale)
	}
	return layout{
		Locale:     locale,
		Alternates: h.negotiator.Alternates(path),
		SiteName:   h.resolver.Resolve(s.SiteName, locale),
		Tagline:    h.resolver.Resolve(s.Tagline, locale),
		FooterText: h.resolver.Resolve(s.FooterText, locale),
		Phone:      s.Phone,
		Email:      s.Email,
		WhatsApp:   s.WhatsApp,
		Social:     s.SocialLinks,
		Navigation: nav,
	}, categories, nil
}

func (h *Handler) categoryLink(c catalog.Category, locale i18n.Locale) link {
	return link{
		Title: h.resolver.ResolveOr(c.Title, locale, c.Slug),
		Path:  h.negotiator.PathFor(locale, "/categories/"+c.Slug),
	}
}

func (h *Handler) productSummary(p catalog.Product, locale i18n.Locale) productSummary {
	return productSummary{
		link: link{
			Title: h.resolver.ResolveOr(p.Title, locale, p.Slug),
			Path:  h.negotiator.PathFor(locale, "/products/"+p.Slug),
		},
		ImagePath: p.ImagePath,
	}
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	frame, categories, err := h.layout(ctx, "/")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summaries := make([]categorySummary, len(categories))
	for i, c := range categories {
		summaries[i] = categorySummary{
			link:        h.categoryLink(c, frame.Locale),
			Description: h.resolver.Resolve(c.Description, frame.Locale),
		}
	}
	httputil.WriteJSON(w, http.StatusOK, homePage{layout: frame, Categories: summaries})
}

func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	frame, _, err := h.layout(ctx, "/products")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	res, err := h.search.Search(ctx, q.Get("q"), page, h.pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items := make([]productSummary, len(res.Items))
	for i, p := range res.Items {
		items[i] = h.productSummary(p, frame.Locale)
	}
	httputil.WriteJSON(w, http.StatusOK, productListPage{
		layout: frame,
		Query:  q.Get("q"),
		Page: search.Page[productSummary]{
			Items:      items,
			Total:      res.Total,
			Page:       res.Page,
			PageSize:   res.PageSize,
			TotalPages: res.TotalPages,
		},
	})
}

func (h *Handler) handleProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	p, err := h.products.FindBySlug(ctx, slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	frame, categories, err := h.layout(ctx, "/products/"+p.Slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	locale := frame.Locale
	title := h.resolver.ResolveOr(p.Title, locale, p.Slug)
	page := productPage{
		layout:         frame,
		Title:          title,
		Description:    h.resolver.Resolve(p.Description, locale),
		SEOTitle:       h.resolver.ResolveOr(p.SEOTitle, locale, title),
		SEODescription: h.resolver.Resolve(p.SEODescription, locale),
		ImagePath:      p.ImagePath,
	}
	for _, c := range categories {
		if c.ID == p.CategoryID {
			l := h.categoryLink(c, locale)
			page.Category = &l
			break
		}
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := h.categories.FindBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	frame, _, err := h.layout(ctx, "/categories/"+c.Slug)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	products, err := h.products.ListByCategory(ctx, c.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summaries := make([]productSummary, len(products))
	for i, p := range products {
		summaries[i] = h.productSummary(p, frame.Locale)
	}
	httputil.WriteJSON(w, http.StatusOK, categoryPage{
		layout:      frame,
		Title:       h.resolver.ResolveOr(c.Title, frame.Locale, c.Slug),
		Description: h.resolver.Resolve(c.Description, frame.Locale),
		Products:    summaries,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, sentinel.ErrNotFound) {
		httputil.WriteJSONError(w, http.StatusNotFound, httputil.CodeNotFound, "page not found")
		return
	}
	ctx := r.Context()
	h.logger.ErrorContext(ctx, "page render failed",
		"path", r.URL.Path,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}
