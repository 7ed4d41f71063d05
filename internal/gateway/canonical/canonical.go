// Package canonical redirects requests that arrive on a non-canonical
// scheme, host or port to the single canonical origin.
package canonical

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Decision is the outcome of Canonicalize. The zero value passes through.
type Decision struct {
	Redirect bool
	URL      string
	Status   int
}

// SchemePolicy controls how the request scheme is resolved.
//
// TrustForwardedProto must be explicitly enabled for X-Forwarded-Proto to be
// considered, since the header is client-controlled without a trusted proxy.
type SchemePolicy struct {
	TrustForwardedProto bool
}

// Canonicalizer compares requests against one scheme+host combination.
type Canonicalizer struct {
	scheme string
	host   string
	policy SchemePolicy
}

// New parses canonicalURL ("https://www.example.com"). An empty URL returns a
// canonicalizer that always passes through.
func New(canonicalURL string, policy SchemePolicy) (*Canonicalizer, error) {
	c := &Canonicalizer{policy: policy}
	if strings.TrimSpace(canonicalURL) == "" {
		return c, nil
	}
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return nil, fmt.Errorf("parse canonical url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("canonical url %q: unsupported scheme", canonicalURL)
	}
	if u.Hostname() == "" || u.Port() != "" {
		return nil, fmt.Errorf("canonical url %q: host required, port not allowed", canonicalURL)
	}
	c.scheme = scheme
	c.host = strings.ToLower(u.Hostname())
	return c, nil
}

// Enabled reports whether a canonical origin is configured.
func (c *Canonicalizer) Enabled() bool {
	return c != nil && c.host != ""
}

// Canonicalize returns a 301 redirect to the canonical origin when the
// request's scheme, hostname or explicit port differ from it. Path and query
// are preserved. A port equal to the scheme default counts as canonical.
func (c *Canonicalizer) Canonicalize(r *http.Request) Decision {
	if !c.Enabled() || r == nil || r.URL == nil {
		return Decision{}
	}
	scheme := RequestScheme(r, c.policy)
	host, port := hostParts(r.Host)
	if host == "" {
		host, port = hostParts(r.URL.Host)
	}
	if scheme == c.scheme && host == c.host && (port == "" || port == defaultPort(scheme)) {
		return Decision{}
	}

	target := url.URL{
		Scheme:   c.scheme,
		Host:     c.host,
		Path:     r.URL.Path,
		RawPath:  r.URL.RawPath,
		RawQuery: r.URL.RawQuery,
	}
	if target.Path == "" {
		target.Path = "/"
		target.RawPath = ""
	}
	return Decision{Redirect: true, URL: target.String(), Status: http.StatusMovedPermanently}
}

// RequestScheme resolves "http" or "https" for r under policy. Only the
// connection state and, when trusted, X-Forwarded-Proto count; an absolute
// request-target is client supplied and ignored.
func RequestScheme(r *http.Request, policy SchemePolicy) string {
	if r == nil {
		return ""
	}
	if policy.TrustForwardedProto {
		forwarded := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto")))
		if i := strings.IndexByte(forwarded, ','); i >= 0 {
			forwarded = strings.TrimSpace(forwarded[:i])
		}
		if forwarded == "http" || forwarded == "https" {
			return forwarded
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func hostParts(rawHost string) (string, string) {
	rawHost = strings.TrimSpace(rawHost)
	if rawHost == "" {
		return "", ""
	}
	parsed, err := url.Parse("//" + rawHost)
	if err != nil {
		return "", ""
	}
	return strings.ToLower(strings.TrimSuffix(parsed.Hostname(), ".")), parsed.Port()
}

func defaultPort(scheme string) string {
	switch scheme {
	case "https":
		return "443"
	case "http":
		return "80"
	default:
		return ""
	}
}
