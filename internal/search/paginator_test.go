package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapisite/internal/i18n"
)

type item struct {
	id    string
	title i18n.LocalizedText
}

func (i item) EntityID() string { return i.id }

// sliceStore keeps items in their stable order and counts window loads.
type sliceStore struct {
	items       []item
	byIDsCalls  [][]string
	matchErr    error
	dropOnLoad  string
	loadReverse bool
}

func (s *sliceStore) FindPage(_ context.Context, skip, take int) ([]item, int, error) {
	if skip >= len(s.items) {
		return nil, len(s.items), nil
	}
	return slices.Clone(s.items[skip:min(skip+take, len(s.items))]), len(s.items), nil
}

func (s *sliceStore) FindMatchingIDs(_ context.Context, term string, locales []i18n.Locale) ([]string, error) {
	if s.matchErr != nil {
		return nil, s.matchErr
	}
	var ids []string
	for _, it := range s.items {
		if ContainsFold(it.title, term, locales) {
			ids = append(ids, it.id)
		}
	}
	return ids, nil
}

func (s *sliceStore) FindByIDs(_ context.Context, ids []string) ([]item, error) {
	s.byIDsCalls = append(s.byIDsCalls, slices.Clone(ids))
	var out []item
	for _, it := range s.items {
		if slices.Contains(ids, it.id) && it.id != s.dropOnLoad {
			out = append(out, it)
		}
	}
	if s.loadReverse {
		slices.Reverse(out)
	}
	return out, nil
}

var locales = []i18n.Locale{"tr", "en"}

// twelveProducts has exactly two titles containing "kolon".
func twelveProducts() []item {
	titles := [][2]string{
		{"Kolon Kalıbı", "Column Formwork"},
		{"Perde Kalıbı", "Wall Formwork"},
		{"Döşeme Sistemi", "Slab System"},
		{"Dairesel Kolon", "Circular Column"},
		{"İskele", "Scaffolding"},
		{"Tünel Kalıp", "Tunnel Formwork"},
		{"Merdiven", "Stair"},
		{"Korkuluk", "Guardrail"},
		{"Bağlantı Parçası", "Connector"},
		{"Kiriş", "Beam"},
		{"Platform", "Platform"},
		{"Kalıp Yağı", "Form Oil"},
	}
	items := make([]item, len(titles))
	for i, t := range titles {
		items[i] = item{id: fmt.Sprintf("p%02d", i+1), title: i18n.Text("tr", t[0], "en", t[1])}
	}
	return items
}

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func TestSearchKolonExample(t *testing.T) {
	store := &sliceStore{items: twelveProducts()}
	p := NewPaginator[item]("product", store, locales, nil)

	first, err := p.Search(context.Background(), "kolon", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p01", "p04"}, ids(first.Items))
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, 1, first.TotalPages)

	second, err := p.Search(context.Background(), "kolon", 2, 10)
	require.NoError(t, err)
	assert.Empty(t, second.Items)
	assert.NotNil(t, second.Items)
	assert.Equal(t, 2, second.Total)
}

func TestSearchPagesReproduceMatchOrder(t *testing.T) {
	store := &sliceStore{items: twelveProducts()}
	p := NewPaginator[item]("product", store, locales, nil)
	ctx := context.Background()

	for _, term := range []string{"", "a", "FORM", "kalıp", "zzz"} {
		want, err := store.FindMatchingIDs(ctx, term, locales)
		require.NoError(t, err)

		for _, size := range []int{1, 3, 5, 7, 12, 50} {
			var got []string
			sum := 0
			first, err := p.Search(ctx, term, 1, size)
			require.NoError(t, err)
			for page := 1; page <= first.TotalPages+1; page++ {
				res, err := p.Search(ctx, term, page, size)
				require.NoError(t, err)
				assert.Equal(t, len(want), res.Total, "term %q size %d", term, size)
				got = append(got, ids(res.Items)...)
				sum += len(res.Items)
			}
			assert.Equal(t, len(want), sum, "term %q size %d", term, size)
			if len(want) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, want, got, "term %q size %d", term, size)
			}
		}
	}
}

func TestSearchLoadsOnlyWindow(t *testing.T) {
	store := &sliceStore{items: twelveProducts(), loadReverse: true}
	p := NewPaginator[item]("product", store, locales, nil)

	res, err := p.Search(context.Background(), "a", 2, 2)
	require.NoError(t, err)

	all, _ := store.FindMatchingIDs(context.Background(), "a", locales)
	require.Len(t, store.byIDsCalls, 1)
	assert.Equal(t, all[2:4], store.byIDsCalls[0])
	assert.Equal(t, all[2:4], ids(res.Items), "results follow id order, not load order")
}

func TestSearchSkipsIDsDeletedBetweenPhases(t *testing.T) {
	store := &sliceStore{items: twelveProducts(), dropOnLoad: "p04"}
	p := NewPaginator[item]("product", store, locales, nil)

	res, err := p.Search(context.Background(), "kolon", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p01"}, ids(res.Items))
	assert.Equal(t, 2, res.Total)
}

func TestSearchNormalizesPaging(t *testing.T) {
	store := &sliceStore{items: twelveProducts()}
	p := NewPaginator[item]("product", store, locales, nil)

	res, err := p.Search(context.Background(), "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, DefaultPageSize, res.PageSize)
	assert.Len(t, res.Items, 12)
	assert.Equal(t, 12, res.Total)

	page, size := Normalize(-3, 1000)
	assert.Equal(t, 1, page)
	assert.Equal(t, MaxPageSize, size)

	page, size = Normalize(math.MaxInt, 20)
	assert.Equal(t, math.MaxInt/20, page)
	assert.Equal(t, 20, size)
}

func TestSearchHugePageIsPastTheEnd(t *testing.T) {
	store := &sliceStore{items: twelveProducts()}
	p := NewPaginator[item]("product", store, locales, nil)

	for _, term := range []string{"", "kolon"} {
		for _, page := range []int{math.MaxInt / 10, math.MaxInt} {
			t.Run(fmt.Sprintf("term=%q page=%d", term, page), func(t *testing.T) {
				res, err := p.Search(context.Background(), term, page, 20)
				require.NoError(t, err)
				assert.Empty(t, res.Items)
				assert.Positive(t, res.Total)
			})
		}
	}
}

func TestSearchPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	store := &sliceStore{items: twelveProducts(), matchErr: boom}
	p := NewPaginator[item]("product", store, locales, nil)

	_, err := p.Search(context.Background(), "kolon", 1, 10)
	require.ErrorIs(t, err, boom)
}

func TestContainsFold(t *testing.T) {
	text := i18n.Text("tr", "Kolon Kalıbı", "en", "Column Formwork")

	assert.True(t, ContainsFold(text, "KOLON", locales))
	assert.True(t, ContainsFold(text, "formwork", locales))
	assert.False(t, ContainsFold(text, "formwork", []i18n.Locale{"tr"}))
	assert.False(t, ContainsFold(nil, "kolon", locales))
	assert.True(t, ContainsFold(text, "", locales))
}
