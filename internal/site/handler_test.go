package site

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapisite/internal/catalog"
	"yapisite/internal/gateway/localeprefix"
	"yapisite/internal/i18n"
	"yapisite/internal/platform/logger"
	"yapisite/internal/search"
	"yapisite/internal/settings"
	"yapisite/pkg/platform/httputil"
	"yapisite/pkg/testutil"
)

type brokenPages struct{}

func (brokenPages) Settings(context.Context) (settings.SiteSettings, error) {
	return settings.SiteSettings{}, errors.New("db down")
}

func (brokenPages) Categories(context.Context) ([]catalog.Category, error) {
	return nil, errors.New("db down")
}

func newRouter(t *testing.T, pages PageData) chi.Router {
	t.Helper()
	locales := i18n.MustLocaleSet("tr", "tr", "en")
	products := catalog.NewMemoryProductStore(catalog.SampleProducts()...)
	categories := catalog.NewMemoryCategoryStore(catalog.SampleCategories()...)
	if pages == nil {
		pages = settings.NewDirectReader(settings.NewMemoryStore(settings.SiteSettings{
			SiteName: i18n.Text("tr", "Yapı Sistemleri", "en", "Yapi Systems"),
			Tagline:  i18n.Text("tr", "Güvenli kalıp çözümleri"),
			Phone:    "+90 212 000 00 00",
		}), categories)
	}
	h := New(
		pages,
		products,
		categories,
		search.NewPaginator[catalog.Product]("product", products, locales.Supported(), nil),
		localeprefix.New(locales, localeprefix.Policy{}),
		i18n.NewResolver(locales),
		10,
		logger.Discard(),
	)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func get(t *testing.T, router http.Handler, path, locale string) map[string]any {
	t.Helper()
	req := testutil.NewRequest(t, http.MethodGet, path)
	if locale != "" {
		req = testutil.WithLocale(req, locale)
	}
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusOK(t, rr)
	return *testutil.UnmarshalResponse[map[string]any](t, rr)
}

func TestHomeResolvesForLocale(t *testing.T) {
	router := newRouter(t, nil)

	testutil.Given(t, "an english request", func(t *testing.T) {
		body := get(t, router, "/", "en")

		assert.Equal(t, "en", body["locale"])
		assert.Equal(t, "Yapi Systems", body["site_name"])
		assert.Equal(t, "Güvenli kalıp çözümleri", body["tagline"], "falls back to the default locale")
		assert.Equal(t, []any{
			map[string]any{"locale": "tr", "path": "/"},
			map[string]any{"locale": "en", "path": "/en"},
		}, body["alternates"])

		nav := body["navigation"].([]any)
		require.Len(t, nav, 3)
		assert.Equal(t, map[string]any{"title": "Aksesuarlar", "path": "/en/categories/aksesuarlar"}, nav[2])

		categories := body["categories"].([]any)
		require.Len(t, categories, 3)
		assert.Equal(t, "Column, wall and slab formwork", categories[0].(map[string]any)["description"])
	})

	testutil.Given(t, "no negotiated locale", func(t *testing.T) {
		body := get(t, router, "/", "")

		assert.Equal(t, "tr", body["locale"])
		assert.Equal(t, "Yapı Sistemleri", body["site_name"])
		nav := body["navigation"].([]any)
		assert.Equal(t, "/categories/kalip-sistemleri", nav[0].(map[string]any)["path"])
	})
}

func TestProductPage(t *testing.T) {
	router := newRouter(t, nil)

	body := get(t, router, "/products/kalip-yagi", "en")

	assert.Equal(t, "Kalıp Yağı", body["title"])
	assert.Equal(t, "Kalıp Yağı", body["seo_title"], "seo title falls back to the title")
	assert.Equal(t, map[string]any{"title": "Aksesuarlar", "path": "/en/categories/aksesuarlar"}, body["category"])
	assert.Equal(t, []any{
		map[string]any{"locale": "tr", "path": "/products/kalip-yagi"},
		map[string]any{"locale": "en", "path": "/en/products/kalip-yagi"},
	}, body["alternates"])
}

func TestCategoryPageListsProducts(t *testing.T) {
	router := newRouter(t, nil)

	body := get(t, router, "/categories/kalip-sistemleri", "tr")

	assert.Equal(t, "Kalıp Sistemleri", body["title"])
	products := body["products"].([]any)
	require.Len(t, products, 3)
	assert.Equal(t, "/products/kolon-kalibi", products[0].(map[string]any)["path"])
}

func TestProductSearch(t *testing.T) {
	router := newRouter(t, nil)

	body := get(t, router, "/products?q=kolon", "en")

	assert.Equal(t, "kolon", body["q"])
	assert.EqualValues(t, 2, body["total"])
	assert.EqualValues(t, 10, body["page_size"])
	items := body["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, map[string]any{"title": "Column Formwork", "path": "/en/products/kolon-kalibi"}, items[0])

	body = get(t, router, "/products?q=kolon&page=5", "en")
	assert.Empty(t, body["items"])
	assert.EqualValues(t, 2, body["total"])

	for _, q := range []string{"", "kolon"} {
		body = get(t, router, "/products?q="+q+"&page=922337203685477580", "en")
		assert.Empty(t, body["items"], "q=%q", q)
		assert.Positive(t, body["total"])
	}
}

func TestNotFound(t *testing.T) {
	router := newRouter(t, nil)

	for _, path := range []string{"/products/missing", "/categories/missing", "/no/such/page"} {
		t.Run(path, func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, path))
			testutil.AssertStatusAndError(t, rr, http.StatusNotFound, httputil.CodeNotFound)
		})
	}
}

func TestPageDataFailure(t *testing.T) {
	router := newRouter(t, brokenPages{})

	rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/"))

	testutil.AssertStatusAndError(t, rr, http.StatusInternalServerError, httputil.CodeInternal)
}
