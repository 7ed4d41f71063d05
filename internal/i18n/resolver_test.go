package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var siteLocales = MustLocaleSet("tr", "tr", "en")

func TestResolve(t *testing.T) {
	chain := []Locale{"tr"}

	tests := []struct {
		name      string
		field     LocalizedText
		requested Locale
		want      string
	}{
		{"requested locale present", Text("tr", "Kolon", "en", "Column"), "en", "Column"},
		{"default locale requested", Text("tr", "Kolon", "en", "Column"), "tr", "Kolon"},
		{"requested missing falls back to default", Text("tr", "Kolon"), "en", "Kolon"},
		{"requested empty falls back to default", Text("tr", "Kolon", "en", ""), "en", "Kolon"},
		{"nil field", nil, "en", ""},
		{"empty field", LocalizedText{}, "tr", ""},
		{"all values empty", Text("tr", "", "en", ""), "en", ""},
		{"only alternate present, default requested", Text("en", "Column"), "tr", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.field, tt.requested, chain))
		})
	}
}

func TestResolveChainOrder(t *testing.T) {
	field := Text("de", "Säule", "tr", "Kolon")

	assert.Equal(t, "Säule", Resolve(field, "en", []Locale{"de", "tr"}))
	assert.Equal(t, "Kolon", Resolve(field, "en", []Locale{"tr", "de"}))
	assert.Equal(t, "", Resolve(field, "en", nil))
}

func TestResolverAppendsDefault(t *testing.T) {
	r := NewResolver(siteLocales)
	assert.Equal(t, []Locale{"tr"}, r.Chain())

	r = NewResolver(siteLocales, "en", "fr", "en")
	assert.Equal(t, []Locale{"en", "tr"}, r.Chain(), "unsupported and duplicate locales are skipped")

	r = NewResolver(siteLocales, "tr", "en")
	assert.Equal(t, []Locale{"tr", "en"}, r.Chain(), "default already listed is not repeated")
}

func TestResolverResolveOr(t *testing.T) {
	r := NewResolver(siteLocales)

	assert.Equal(t, "Kolon", r.ResolveOr(Text("tr", "Kolon"), "en", "-"))
	assert.Equal(t, "-", r.ResolveOr(nil, "en", "-"))
}

func TestResolveMalformedStoredValue(t *testing.T) {
	r := NewResolver(siteLocales)

	for _, raw := range []string{`[1,2]`, `"Kolon"`, `42`, `not json`, `null`} {
		field := ParseLocalizedText([]byte(raw))
		require.Nil(t, field, raw)
		assert.Equal(t, "", r.Resolve(field, "en"), raw)
	}

	field := ParseLocalizedText([]byte(`{"tr": "Kolon", "en": 7}`))
	assert.Equal(t, "Kolon", r.Resolve(field, "en"), "non-string members are dropped")
}
