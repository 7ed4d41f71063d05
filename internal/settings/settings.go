// Package settings serves the site-wide settings and the category list that
// every public page renders, behind an optional read-through cache.
package settings

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"yapisite/internal/catalog"
	"yapisite/internal/i18n"
)

// Links maps a social network name to its profile URL.
type Links map[string]string

func (l *Links) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan links: unsupported type %T", src)
	}
	var out Links
	if err := json.Unmarshal(raw, &out); err != nil {
		*l = nil
		return nil
	}
	*l = out
	return nil
}

func (l Links) Value() (driver.Value, error) {
	if l == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(l))
}

// SiteSettings is the single settings record.
type SiteSettings struct {
	SiteName    i18n.LocalizedText `json:"site_name"`
	Tagline     i18n.LocalizedText `json:"tagline"`
	FooterText  i18n.LocalizedText `json:"footer_text"`
	Phone       string             `json:"phone"`
	Email       string             `json:"email"`
	WhatsApp    string             `json:"whatsapp"`
	SocialLinks Links              `json:"social_links"`
}

// Store persists SiteSettings. Get returns the zero value when nothing has
// been saved yet.
type Store interface {
	Get(ctx context.Context) (SiteSettings, error)
	Save(ctx context.Context, s SiteSettings) error
}

// Reader is what page handlers use to fetch shared page data.
type Reader interface {
	Settings(ctx context.Context) (SiteSettings, error)
	Categories(ctx context.Context) ([]catalog.Category, error)
	Invalidate(ctx context.Context) error
}

// DirectReader reads straight from the stores.
type DirectReader struct {
	store      Store
	categories catalog.CategoryStore
}

func NewDirectReader(store Store, categories catalog.CategoryStore) *DirectReader {
	return &DirectReader{store: store, categories: categories}
}

func (r *DirectReader) Settings(ctx context.Context) (SiteSettings, error) {
	s, err := r.store.Get(ctx)
	if err != nil {
		return SiteSettings{}, fmt.Errorf("load settings: %w", err)
	}
	return s, nil
}

func (r *DirectReader) Categories(ctx context.Context) ([]catalog.Category, error) {
	c, err := r.categories.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	return c, nil
}

// Invalidate is a no-op; there is nothing cached.
func (r *DirectReader) Invalidate(context.Context) error { return nil }
