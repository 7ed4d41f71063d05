// Package localeprefix negotiates the request locale from the URL path.
//
// The default locale is served at unprefixed paths; every other supported
// locale is served under a "/<code>" prefix. Downstream handlers receive the
// de-prefixed path so routing is locale-independent.
package localeprefix

import (
	"net/http"
	"strings"

	"yapisite/internal/i18n"
)

// UnsupportedPolicy decides what happens to a first path segment that looks
// like a locale code but is not supported (e.g. "/fr/products").
type UnsupportedPolicy int

const (
	// Passthrough serves the literal path in the default locale.
	Passthrough UnsupportedPolicy = iota
	// RedirectUnsupported redirects to the path without the segment.
	RedirectUnsupported
	// NotFoundUnsupported answers 404.
	NotFoundUnsupported
)

// ParseUnsupportedPolicy maps a config value to a policy.
func ParseUnsupportedPolicy(s string) (UnsupportedPolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "passthrough":
		return Passthrough, true
	case "redirect":
		return RedirectUnsupported, true
	case "notfound":
		return NotFoundUnsupported, true
	default:
		return Passthrough, false
	}
}

// Policy holds the two configurable normalisation choices.
type Policy struct {
	// RedirectDefaultPrefix redirects "/<default>/x" to "/x" instead of
	// accepting it silently.
	RedirectDefaultPrefix bool
	Unsupported           UnsupportedPolicy
}

// Action is what the dispatcher should do with a negotiated public request.
type Action int

const (
	Continue Action = iota
	Redirect
	NotFound
)

// Result is the outcome of negotiation.
type Result struct {
	Locale i18n.Locale
	// Path is the locale-independent path handed to downstream routing.
	Path string
	// Prefix is the literal prefix stripped from the request path ("/en"), or "".
	Prefix   string
	Action   Action
	Location string
}

// Prefixed reports whether the request path carried a supported locale prefix.
func (r Result) Prefixed() bool { return r.Prefix != "" }

// Negotiator applies the prefix convention for a fixed locale set.
type Negotiator struct {
	locales i18n.LocaleSet
	policy  Policy
}

// New builds a negotiator.
func New(locales i18n.LocaleSet, policy Policy) *Negotiator {
	return &Negotiator{locales: locales, policy: policy}
}

// Locales returns the negotiator's locale set.
func (n *Negotiator) Locales() i18n.LocaleSet { return n.locales }

// Negotiate is NegotiatePath for r's path; redirect locations keep the query.
func (n *Negotiator) Negotiate(r *http.Request) Result {
	res := n.NegotiatePath(r.URL.Path)
	if res.Action == Redirect && r.URL.RawQuery != "" {
		res.Location += "?" + r.URL.RawQuery
	}
	return res
}

// NegotiatePath determines the locale for path.
//
// A first segment equal to a supported code selects that locale and is
// stripped. Anything else is the default locale with the path unchanged,
// subject to the configured redirect and unsupported-segment policies.
func (n *Negotiator) NegotiatePath(path string) Result {
	if path == "" {
		path = "/"
	}
	def := n.locales.Default()
	segment, rest := splitFirstSegment(path)

	if locale, ok := n.locales.Lookup(segment); ok {
		res := Result{Locale: locale, Path: rest, Prefix: "/" + segment}
		if locale == def && n.policy.RedirectDefaultPrefix {
			res.Action = Redirect
			res.Location = rest
		}
		return res
	}

	res := Result{Locale: def, Path: path}
	if i18n.LooksLikeLocale(segment) {
		switch n.policy.Unsupported {
		case RedirectUnsupported:
			res.Action = Redirect
			res.Location = rest
		case NotFoundUnsupported:
			res.Action = NotFound
		}
	}
	return res
}

// PathFor returns the URL path serving path in locale: unprefixed for the
// default locale, "/<code>" + path otherwise.
func (n *Negotiator) PathFor(locale i18n.Locale, path string) string {
	if path == "" {
		path = "/"
	}
	if locale == n.locales.Default() || !n.locales.Contains(string(locale)) {
		return path
	}
	if path == "/" {
		return "/" + string(locale)
	}
	return "/" + string(locale) + path
}

// Alternate is one language variant of a page.
type Alternate struct {
	Locale i18n.Locale `json:"locale"`
	Path   string      `json:"path"`
}

// Alternates lists path in every supported locale, default first.
func (n *Negotiator) Alternates(path string) []Alternate {
	supported := n.locales.Supported()
	out := make([]Alternate, 0, len(supported))
	for _, l := range supported {
		out = append(out, Alternate{Locale: l, Path: n.PathFor(l, path)})
	}
	return out
}

// splitFirstSegment splits "/en/products" into ("en", "/products").
// The remainder is never empty: "/en" and "/en/" both yield "/".
func splitFirstSegment(path string) (string, string) {
	trimmed := strings.TrimPrefix(path, "/")
	segment, rest, found := strings.Cut(trimmed, "/")
	if !found || rest == "" {
		return segment, "/"
	}
	return segment, "/" + rest
}
