// Package classify buckets request paths into infrastructure, administrative
// or public routes.
package classify

import "strings"

// RouteClass is the coarse category a request path belongs to.
type RouteClass int

const (
	Public RouteClass = iota
	Administrative
	Infrastructure
)

func (c RouteClass) String() string {
	switch c {
	case Infrastructure:
		return "infrastructure"
	case Administrative:
		return "administrative"
	default:
		return "public"
	}
}

// Classifier holds the fixed path prefixes. Prefixes are matched per path
// segment: "/api" matches "/api" and "/api/v1" but not "/apiary".
type Classifier struct {
	infra []string
	admin string
}

// New builds a classifier. Trailing slashes on prefixes are ignored.
func New(adminPrefix string, infraPrefixes ...string) *Classifier {
	infra := make([]string, 0, len(infraPrefixes))
	for _, p := range infraPrefixes {
		if p = trimPrefix(p); p != "" {
			infra = append(infra, p)
		}
	}
	return &Classifier{infra: infra, admin: trimPrefix(adminPrefix)}
}

// Classify is total: every path maps to exactly one class. Infrastructure
// prefixes win over the administrative prefix.
func (c *Classifier) Classify(path string) RouteClass {
	for _, p := range c.infra {
		if HasPathPrefix(path, p) {
			return Infrastructure
		}
	}
	if c.admin != "" && HasPathPrefix(path, c.admin) {
		return Administrative
	}
	return Public
}

// HasPathPrefix reports whether path equals prefix or continues it with "/".
func HasPathPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

func trimPrefix(p string) string {
	p = strings.TrimSpace(p)
	if p == "/" {
		return ""
	}
	return strings.TrimRight(p, "/")
}
