// Package i18n holds the site's closed locale set and the locale-keyed text
// value object every content entity embeds.
package i18n

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Locale is a supported display-language code such as "tr" or "en".
type Locale string

// String returns the locale code.
func (l Locale) String() string { return string(l) }

var (
	ErrNoLocales           = errors.New("at least one locale is required")
	ErrDefaultNotSupported = errors.New("default locale is not in the supported set")
)

// LocaleSet is the closed, deployment-time set of supported locales.
type LocaleSet struct {
	supported []Locale
	def       Locale
}

// NewLocaleSet validates codes with x/text/language and builds the set.
// The default locale is always reported first by Supported.
func NewLocaleSet(defaultCode string, codes []string) (LocaleSet, error) {
	def := normalize(defaultCode)
	seen := make(map[Locale]bool, len(codes))
	supported := make([]Locale, 0, len(codes))
	for _, raw := range codes {
		code := normalize(raw)
		if code == "" {
			continue
		}
		if _, err := language.Parse(string(code)); err != nil {
			return LocaleSet{}, fmt.Errorf("locale %q: %w", raw, err)
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		supported = append(supported, code)
	}
	if len(supported) == 0 {
		return LocaleSet{}, ErrNoLocales
	}
	if !seen[def] {
		return LocaleSet{}, fmt.Errorf("%w: %q", ErrDefaultNotSupported, defaultCode)
	}

	ordered := make([]Locale, 0, len(supported))
	ordered = append(ordered, def)
	for _, l := range supported {
		if l != def {
			ordered = append(ordered, l)
		}
	}
	return LocaleSet{supported: ordered, def: def}, nil
}

// MustLocaleSet is NewLocaleSet for fixed sets in tests and examples.
func MustLocaleSet(defaultCode string, codes ...string) LocaleSet {
	set, err := NewLocaleSet(defaultCode, codes)
	if err != nil {
		panic(err)
	}
	return set
}

// Default returns the unprefixed locale.
func (s LocaleSet) Default() Locale { return s.def }

// Supported returns all locales, default first.
func (s LocaleSet) Supported() []Locale { return slices.Clone(s.supported) }

// Alternates returns every supported locale except the default.
func (s LocaleSet) Alternates() []Locale {
	if len(s.supported) == 0 {
		return nil
	}
	return slices.Clone(s.supported[1:])
}

// Codes returns the supported codes as plain strings, default first.
func (s LocaleSet) Codes() []string {
	codes := make([]string, len(s.supported))
	for i, l := range s.supported {
		codes[i] = string(l)
	}
	return codes
}

// Lookup reports whether code is exactly one of the supported locale codes.
func (s LocaleSet) Lookup(code string) (Locale, bool) {
	for _, l := range s.supported {
		if string(l) == code {
			return l, true
		}
	}
	return "", false
}

// Contains reports whether code is a supported locale.
func (s LocaleSet) Contains(code string) bool {
	_, ok := s.Lookup(code)
	return ok
}

// Normalize returns the supported locale for code, or the default locale.
func (s LocaleSet) Normalize(code string) Locale {
	if l, ok := s.Lookup(normalize(code).String()); ok {
		return l
	}
	return s.def
}

// LooksLikeLocale reports whether a path segment is shaped like a two-letter
// ISO 639-1 language code known to x/text, e.g. "fr" but not "xx" or "blog".
func LooksLikeLocale(segment string) bool {
	if len(segment) != 2 {
		return false
	}
	for i := 0; i < len(segment); i++ {
		if segment[i] < 'a' || segment[i] > 'z' {
			return false
		}
	}
	_, err := language.ParseBase(segment)
	return err == nil
}

func normalize(code string) Locale {
	return Locale(strings.ToLower(strings.TrimSpace(code)))
}
