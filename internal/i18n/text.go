package i18n

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"maps"
)

// LocalizedText maps a locale code to a display string. Keys are not
// guaranteed to cover every supported locale and the map may be nil.
type LocalizedText map[string]string

// Text builds a LocalizedText from alternating locale/value pairs.
func Text(pairs ...string) LocalizedText {
	t := make(LocalizedText, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		t[pairs[i]] = pairs[i+1]
	}
	return t
}

// Get returns the value stored for locale, or "" when absent.
func (t LocalizedText) Get(locale Locale) string {
	if t == nil {
		return ""
	}
	return t[string(locale)]
}

// Clone returns an independent copy.
func (t LocalizedText) Clone() LocalizedText {
	if t == nil {
		return nil
	}
	return maps.Clone(t)
}

// ParseLocalizedText decodes a stored JSON object. Anything that is not a JSON
// object is treated as absent, and non-string members are dropped.
func ParseLocalizedText(raw []byte) LocalizedText {
	if len(raw) == 0 {
		return nil
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil || generic == nil {
		return nil
	}
	t := make(LocalizedText, len(generic))
	for k, v := range generic {
		if s, ok := v.(string); ok {
			t[k] = s
		}
	}
	return t
}

// UnmarshalJSON never fails on a malformed shape; it degrades to absent.
func (t *LocalizedText) UnmarshalJSON(data []byte) error {
	*t = ParseLocalizedText(data)
	return nil
}

// Scan implements sql.Scanner for json/jsonb columns.
func (t *LocalizedText) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = nil
	case []byte:
		*t = ParseLocalizedText(v)
	case string:
		*t = ParseLocalizedText([]byte(v))
	default:
		return fmt.Errorf("scan localized text: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer; nil is stored as an empty object.
func (t LocalizedText) Value() (driver.Value, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(map[string]string(t))
	if err != nil {
		return nil, fmt.Errorf("encode localized text: %w", err)
	}
	return b, nil
}
