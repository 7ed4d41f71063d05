package catalog

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapisite/internal/i18n"
)

func TestMemoryStores(t *testing.T) {
	runProductStoreContract(t, NewMemoryProductStore(), NewMemoryCategoryStore())
}

func TestMemoryUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryProductStore(Product{ID: "p1", Slug: "a", SortOrder: 2})
	require.NoError(t, store.Upsert(ctx, Product{ID: "p2", Slug: "b", SortOrder: 1}))
	require.NoError(t, store.Upsert(ctx, Product{ID: "p1", Slug: "a2", SortOrder: 0, Title: i18n.Text("tr", "Yeni")}))

	items, total, err := store.FindPage(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, []string{"p1", "p2"}, productIDs(items))
	assert.Equal(t, "a2", items[0].Slug)
}

func TestMemoryFindPageOutOfRange(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryProductStore(SampleProducts()...)

	for _, skip := range []int{-20, len(SampleProducts()), math.MaxInt - 5} {
		items, total, err := store.FindPage(ctx, skip, 20)
		require.NoError(t, err)
		assert.Empty(t, items, "skip=%d", skip)
		assert.Equal(t, len(SampleProducts()), total)
	}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%a\%b\_c\\%`, likePattern(`a%b_c\`))
}
