package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"yapisite/internal/platform/config"
	"yapisite/internal/platform/logger"
	"yapisite/pkg/testutil"
)

// TestInMemorySite exercises the fully wired handler chain without a
// database or Redis. buildApp registers global metrics, so it runs once.
func TestInMemorySite(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD_HASH", string(hash))
	t.Setenv("SITE_CANONICAL_URL", "https://www.example.com")
	t.Setenv("YAPI_STATIC_DIR", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)
	a, err := buildApp(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	do := func(method, target string, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, target, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		} else {
			req = httptest.NewRequest(method, target, nil)
		}
		for _, c := range cookies {
			req.AddCookie(c)
		}
		return testutil.DoRequest(a.Handler, req)
	}

	t.Run("non-canonical host redirects", func(t *testing.T) {
		rr := do(http.MethodGet, "http://example.com/en/products?q=kolon", "")
		assert.Equal(t, http.StatusMovedPermanently, rr.Code)
		assert.Equal(t, "https://www.example.com/en/products?q=kolon", rr.Header().Get("Location"))
	})

	t.Run("public page in english", func(t *testing.T) {
		rr := do(http.MethodGet, "https://www.example.com/en/products/kolon-kalibi", "")
		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, "en", rr.Header().Get("Content-Language"))
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
		testutil.AssertJSONContains(t, rr, "title", "Column Formwork")
	})

	t.Run("health is infrastructure", func(t *testing.T) {
		rr := do(http.MethodGet, "https://www.example.com/healthz", "")
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("admin under a locale prefix is not admin", func(t *testing.T) {
		rr := do(http.MethodGet, "https://www.example.com/en/admin", "")
		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})

	testutil.Given(t, "an administrator without a session", func(t *testing.T) {
		rr := do(http.MethodGet, "https://www.example.com/admin/products", "")
		testutil.AssertRedirect(t, rr, http.StatusFound, "/admin/login?from=/admin/products")

		var session *http.Cookie
		testutil.When(t, "they log in", func(t *testing.T) {
			form := url.Values{"email": {"admin@example.com"}, "password": {"s3cret"}, "from": {"/admin/products"}}
			rr := do(http.MethodPost, "https://www.example.com/admin/login", form.Encode())
			testutil.AssertRedirect(t, rr, http.StatusSeeOther, "/admin/products")
			for _, c := range rr.Result().Cookies() {
				if c.Name == cfg.Session.CookieName {
					session = c
				}
			}
			require.NotNil(t, session)
			assert.True(t, session.Secure, "cookie is secure on https")
		})
		require.NotNil(t, session)

		testutil.Then(t, "admin routes accept the session", func(t *testing.T) {
			rr := do(http.MethodGet, "https://www.example.com/admin/products?q=kolon", "", session)
			testutil.AssertStatusOK(t, rr)
			testutil.AssertJSONContains(t, rr, "total", float64(2))

			rr = do(http.MethodPost, "https://www.example.com/admin/cache/invalidate", "", session)
			testutil.AssertStatus(t, rr, http.StatusNoContent)
		})

		testutil.When(t, "they log out", func(t *testing.T) {
			rr := do(http.MethodPost, "https://www.example.com/admin/logout", "", session)
			testutil.AssertRedirect(t, rr, http.StatusSeeOther, "/admin/login")
		})

		testutil.Then(t, "the revoked session is sent back to login", func(t *testing.T) {
			rr := do(http.MethodGet, "https://www.example.com/admin", "", session)
			assert.Equal(t, http.StatusFound, rr.Code)
		})
	})

	testutil.Given(t, "repeated wrong passwords", func(t *testing.T) {
		form := url.Values{"email": {"admin@example.com"}, "password": {"wrong"}}
		for range cfg.Session.LoginAttempts {
			do(http.MethodPost, "https://www.example.com/admin/login", form.Encode())
		}

		form.Set("password", "s3cret")
		rr := do(http.MethodPost, "https://www.example.com/admin/login", form.Encode())
		testutil.AssertRedirect(t, rr, http.StatusSeeOther, "/admin/login?error=locked")
	})
}
