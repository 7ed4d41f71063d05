package catalog

import (
	"context"
	"fmt"

	"yapisite/internal/i18n"
)

// SampleCategories and SampleProducts seed an empty catalogue for local
// development.
func SampleCategories() []Category {
	return []Category{
		{ID: "c1", Slug: "kalip-sistemleri", SortOrder: 1,
			Title:       i18n.Text("tr", "Kalıp Sistemleri", "en", "Formwork Systems"),
			Description: i18n.Text("tr", "Kolon, perde ve döşeme kalıpları", "en", "Column, wall and slab formwork")},
		{ID: "c2", Slug: "iskele-sistemleri", SortOrder: 2,
			Title: i18n.Text("tr", "İskele Sistemleri", "en", "Scaffolding Systems")},
		{ID: "c3", Slug: "aksesuarlar", SortOrder: 3,
			Title: i18n.Text("tr", "Aksesuarlar")},
	}
}

func SampleProducts() []Product {
	return []Product{
		{ID: "p1", CategoryID: "c1", Slug: "kolon-kalibi", SortOrder: 1,
			Title:       i18n.Text("tr", "Kolon Kalıbı", "en", "Column Formwork"),
			Description: i18n.Text("tr", "Ayarlanabilir çelik kolon kalıbı", "en", "Adjustable steel column formwork")},
		{ID: "p2", CategoryID: "c1", Slug: "perde-kalibi", SortOrder: 2,
			Title: i18n.Text("tr", "Perde Kalıbı", "en", "Wall Formwork")},
		{ID: "p3", CategoryID: "c1", Slug: "dairesel-kolon", SortOrder: 3,
			Title: i18n.Text("tr", "Dairesel Kolon Kalıbı", "en", "Circular Column Formwork")},
		{ID: "p4", CategoryID: "c2", Slug: "cephe-iskelesi", SortOrder: 4,
			Title: i18n.Text("tr", "Cephe İskelesi", "en", "Facade Scaffolding")},
		{ID: "p5", CategoryID: "c3", Slug: "kalip-yagi", SortOrder: 5,
			Title: i18n.Text("tr", "Kalıp Yağı")},
	}
}

// Seed writes the sample catalogue into the stores.
func Seed(ctx context.Context, categories CategoryStore, products ProductStore) error {
	for _, c := range SampleCategories() {
		if err := categories.Upsert(ctx, c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.ID, err)
		}
	}
	for _, p := range SampleProducts() {
		if err := products.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return nil
}
