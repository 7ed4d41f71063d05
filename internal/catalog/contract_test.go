package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapisite/internal/i18n"
	"yapisite/internal/search"
	"yapisite/pkg/platform/sentinel"
)

var bothLocales = []i18n.Locale{"tr", "en"}

func productIDs(items []Product) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

// runProductStoreContract checks the behaviour every ProductStore shares.
// The store must be empty.
func runProductStoreContract(t *testing.T, products ProductStore, categories CategoryStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, Seed(ctx, categories, products))
	require.NoError(t, products.Upsert(ctx, Product{
		ID: "p6", Slug: "yuzde-yuz", SortOrder: 0,
		Title: i18n.Text("tr", "Yüzde %100_Çelik"),
	}))

	t.Run("page ordered by sort order then id", func(t *testing.T) {
		items, total, err := products.FindPage(ctx, 0, 3)
		require.NoError(t, err)
		assert.Equal(t, 6, total)
		assert.Equal(t, []string{"p6", "p1", "p2"}, productIDs(items))

		items, total, err = products.FindPage(ctx, 10, 3)
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.Equal(t, 6, total)
	})

	t.Run("matching is case-insensitive across locales", func(t *testing.T) {
		ids, err := products.FindMatchingIDs(ctx, "KOLON", bothLocales)
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p3"}, ids)

		ids, err = products.FindMatchingIDs(ctx, "formwork", bothLocales)
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p2", "p3"}, ids)

		ids, err = products.FindMatchingIDs(ctx, "formwork", []i18n.Locale{"tr"})
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("like metacharacters are literal", func(t *testing.T) {
		ids, err := products.FindMatchingIDs(ctx, "%100_", bothLocales)
		require.NoError(t, err)
		assert.Equal(t, []string{"p6"}, ids)

		ids, err = products.FindMatchingIDs(ctx, "_", bothLocales)
		require.NoError(t, err)
		assert.Equal(t, []string{"p6"}, ids)
	})

	t.Run("find by ids", func(t *testing.T) {
		items, err := products.FindByIDs(ctx, []string{"p3", "p1", "missing"})
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p1", "p3"}, productIDs(items))
	})

	t.Run("find by slug", func(t *testing.T) {
		p, err := products.FindBySlug(ctx, "kolon-kalibi")
		require.NoError(t, err)
		assert.Equal(t, "Column Formwork", p.Title.Get("en"))
		assert.Equal(t, "c1", p.CategoryID)

		_, err = products.FindBySlug(ctx, "nope")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list by category", func(t *testing.T) {
		items, err := products.ListByCategory(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, []string{"p1", "p2", "p3"}, productIDs(items))
	})

	t.Run("paginator over the store", func(t *testing.T) {
		p := search.NewPaginator[Product]("product", products, bothLocales, nil)
		page, err := p.Search(ctx, "kolon", 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		assert.Equal(t, []string{"p1"}, productIDs(page.Items))

		page, err = p.Search(ctx, "kolon", 2, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"p3"}, productIDs(page.Items))
	})

	t.Run("categories", func(t *testing.T) {
		all, err := categories.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "c1", all[0].ID)

		c, err := categories.FindBySlug(ctx, "iskele-sistemleri")
		require.NoError(t, err)
		assert.Equal(t, "Scaffolding Systems", c.Title.Get("en"))

		ids, err := categories.FindMatchingIDs(ctx, "sistem", bothLocales)
		require.NoError(t, err)
		assert.Equal(t, []string{"c1", "c2"}, ids)

		_, err = categories.FindBySlug(ctx, "nope")
		require.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}
