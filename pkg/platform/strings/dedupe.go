// Package strings cleans list-valued settings such as comma-separated
// environment variables.
package strings

import (
	"strings"
)

// Normalize trims every value, applies fold when non-nil, and drops empty
// values and repeats. The first occurrence keeps its position.
func Normalize(values []string, fold func(string) string) []string {
	if values == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold != nil {
			v = fold(v)
		}
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Trimmed is Normalize without folding.
func Trimmed(values []string) []string {
	return Normalize(values, nil)
}

// Lowered is Normalize with case folding, for locale codes and hosts.
func Lowered(values []string) []string {
	return Normalize(values, strings.ToLower)
}

// Paths is Normalize for URL path prefixes: a trailing slash is dropped so
// "/api/" and "/api" are the same prefix. The root path is kept as "/".
func Paths(values []string) []string {
	return Normalize(values, func(p string) string {
		if len(p) > 1 {
			return strings.TrimRight(p, "/")
		}
		return p
	})
}
