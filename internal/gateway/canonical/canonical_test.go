package canonical

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCanonicalizer(t *testing.T, policy SchemePolicy) *Canonicalizer {
	t.Helper()
	c, err := New("https://www.example.com", policy)
	require.NoError(t, err)
	return c
}

func TestCanonicalizeRedirects(t *testing.T) {
	c := newCanonicalizer(t, SchemePolicy{})

	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"bare domain over http", "http://example.com/x?y=1", "https://www.example.com/x?y=1"},
		{"www over http", "http://www.example.com/products", "https://www.example.com/products"},
		{"bare domain over https", "https://example.com/en/products?page=2", "https://www.example.com/en/products?page=2"},
		{"non-standard port", "https://www.example.com:8443/admin", "https://www.example.com/admin"},
		{"uppercase host but wrong scheme", "http://WWW.EXAMPLE.COM/", "https://www.example.com/"},
		{"escaped path kept", "http://example.com/urunler/k%C3%B6%C5%9Fe", "https://www.example.com/urunler/k%C3%B6%C5%9Fe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := c.Canonicalize(httptest.NewRequest(http.MethodGet, tt.target, nil))
			require.True(t, d.Redirect)
			assert.Equal(t, http.StatusMovedPermanently, d.Status)
			assert.Equal(t, tt.want, d.URL)
		})
	}
}

func TestCanonicalizePassThrough(t *testing.T) {
	c := newCanonicalizer(t, SchemePolicy{})

	for _, target := range []string{
		"https://www.example.com/x?y=1",
		"https://www.example.com:443/",
		"https://WWW.Example.com/products",
	} {
		d := c.Canonicalize(httptest.NewRequest(http.MethodGet, target, nil))
		assert.False(t, d.Redirect, target)
	}
}

func TestCanonicalizeIsIdempotent(t *testing.T) {
	c := newCanonicalizer(t, SchemePolicy{})

	first := c.Canonicalize(httptest.NewRequest(http.MethodGet, "http://example.com:8080/a/b?c=d", nil))
	require.True(t, first.Redirect)

	second := c.Canonicalize(httptest.NewRequest(http.MethodGet, first.URL, nil))
	assert.False(t, second.Redirect)
}

func TestCanonicalizeForwardedProto(t *testing.T) {
	behindProxy := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/x", nil)
		r.Host = "www.example.com"
		r.URL.Scheme = ""
		r.Header.Set("X-Forwarded-Proto", "https")
		return r
	}

	trusted := newCanonicalizer(t, SchemePolicy{TrustForwardedProto: true})
	assert.False(t, trusted.Canonicalize(behindProxy()).Redirect)

	untrusted := newCanonicalizer(t, SchemePolicy{})
	d := untrusted.Canonicalize(behindProxy())
	assert.True(t, d.Redirect, "header ignored without trust policy")
	assert.Equal(t, "https://www.example.com/x", d.URL)
}

func TestAbsoluteTargetDoesNotSetScheme(t *testing.T) {
	// A plain connection carrying "GET https://www.example.com/x HTTP/1.1".
	plain := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "https://www.example.com/x", nil)
		r.TLS = nil
		return r
	}

	assert.Equal(t, "http", RequestScheme(plain(), SchemePolicy{}))
	assert.Equal(t, "http", RequestScheme(plain(), SchemePolicy{TrustForwardedProto: true}))

	d := newCanonicalizer(t, SchemePolicy{}).Canonicalize(plain())
	require.True(t, d.Redirect)
	assert.Equal(t, "https://www.example.com/x", d.URL)
}

func TestCanonicalizeDisabled(t *testing.T) {
	c, err := New("", SchemePolicy{})
	require.NoError(t, err)
	assert.False(t, c.Enabled())
	assert.False(t, c.Canonicalize(httptest.NewRequest(http.MethodGet, "http://localhost:8080/", nil)).Redirect)
}

func TestNewRejectsInvalidURL(t *testing.T) {
	for _, raw := range []string{"ftp://example.com", "https://example.com:8443", "https://"} {
		_, err := New(raw, SchemePolicy{})
		assert.Error(t, err, raw)
	}
}
