// Package catalog holds the product and category entities and their stores.
package catalog

import (
	"context"

	"yapisite/internal/i18n"
	"yapisite/internal/search"
)

// Category groups products on the public site.
type Category struct {
	ID          string             `json:"id"`
	Slug        string             `json:"slug"`
	Title       i18n.LocalizedText `json:"title"`
	Description i18n.LocalizedText `json:"description"`
	SortOrder   int                `json:"sort_order"`
}

func (c Category) EntityID() string { return c.ID }

// Product is one catalogue entry.
type Product struct {
	ID             string             `json:"id"`
	CategoryID     string             `json:"category_id,omitempty"`
	Slug           string             `json:"slug"`
	Title          i18n.LocalizedText `json:"title"`
	Description    i18n.LocalizedText `json:"description"`
	SEOTitle       i18n.LocalizedText `json:"seo_title"`
	SEODescription i18n.LocalizedText `json:"seo_description"`
	ImagePath      string             `json:"image_path,omitempty"`
	SortOrder      int                `json:"sort_order"`
}

func (p Product) EntityID() string { return p.ID }

// ProductStore is the product persistence port.
type ProductStore interface {
	search.Store[Product]
	FindBySlug(ctx context.Context, slug string) (Product, error)
	ListByCategory(ctx context.Context, categoryID string) ([]Product, error)
	Upsert(ctx context.Context, p Product) error
}

// CategoryStore is the category persistence port.
type CategoryStore interface {
	search.Store[Category]
	FindBySlug(ctx context.Context, slug string) (Category, error)
	All(ctx context.Context) ([]Category, error)
	Upsert(ctx context.Context, c Category) error
}
