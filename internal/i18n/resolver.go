package i18n

// Resolve returns field[requested] when non-empty, otherwise the first
// non-empty value along chain, otherwise "". Absent and empty values are
// treated the same.
func Resolve(field LocalizedText, requested Locale, chain []Locale) string {
	if len(field) == 0 {
		return ""
	}
	if v := field[string(requested)]; v != "" {
		return v
	}
	for _, l := range chain {
		if v := field[string(l)]; v != "" {
			return v
		}
	}
	return ""
}

// Resolver binds Resolve to the site's configured fallback chain.
type Resolver struct {
	chain []Locale
}

// NewResolver builds a resolver whose chain is fallback (deduplicated, only
// supported locales) followed by the set's default locale when not already listed.
func NewResolver(set LocaleSet, fallback ...Locale) *Resolver {
	chain := make([]Locale, 0, len(fallback)+1)
	seen := make(map[Locale]bool, len(fallback)+1)
	for _, l := range fallback {
		if seen[l] || !set.Contains(string(l)) {
			continue
		}
		seen[l] = true
		chain = append(chain, l)
	}
	if def := set.Default(); !seen[def] {
		chain = append(chain, def)
	}
	return &Resolver{chain: chain}
}

// Chain returns the fallback order.
func (r *Resolver) Chain() []Locale {
	out := make([]Locale, len(r.chain))
	copy(out, r.chain)
	return out
}

// Resolve resolves field for locale using the configured chain.
func (r *Resolver) Resolve(field LocalizedText, locale Locale) string {
	return Resolve(field, locale, r.chain)
}

// ResolveOr is Resolve with a caller-supplied placeholder for empty results.
func (r *Resolver) ResolveOr(field LocalizedText, locale Locale, placeholder string) string {
	if v := r.Resolve(field, locale); v != "" {
		return v
	}
	return placeholder
}
