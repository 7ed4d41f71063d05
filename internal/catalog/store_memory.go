package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"

	"yapisite/internal/i18n"
	"yapisite/internal/search"
	"yapisite/pkg/platform/sentinel"
)

// memoryTable keeps entities ordered by (sort order, id), the same order the
// Postgres stores use.
type memoryTable[T search.Entity] struct {
	mu        sync.RWMutex
	items     []T
	sortOrder func(T) int
	slug      func(T) string
	title     func(T) i18n.LocalizedText
}

func (t *memoryTable[T]) upsert(item T) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.items = slices.DeleteFunc(t.items, func(existing T) bool {
		return existing.EntityID() == item.EntityID()
	})
	t.items = append(t.items, item)
	slices.SortFunc(t.items, func(a, b T) int {
		return cmp.Or(cmp.Compare(t.sortOrder(a), t.sortOrder(b)), cmp.Compare(a.EntityID(), b.EntityID()))
	})
}

func (t *memoryTable[T]) findPage(skip, take int) ([]T, int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	total := len(t.items)
	if skip < 0 || skip >= total || take <= 0 {
		return nil, total
	}
	return slices.Clone(t.items[skip : skip+min(take, total-skip)]), total
}

func (t *memoryTable[T]) findMatchingIDs(term string, locales []i18n.Locale) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var ids []string
	for _, item := range t.items {
		if search.ContainsFold(t.title(item), term, locales) {
			ids = append(ids, item.EntityID())
		}
	}
	return ids
}

func (t *memoryTable[T]) findByIDs(ids []string) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []T
	for _, item := range t.items {
		if slices.Contains(ids, item.EntityID()) {
			out = append(out, item)
		}
	}
	return out
}

func (t *memoryTable[T]) findBySlug(slug string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, item := range t.items {
		if t.slug(item) == slug {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (t *memoryTable[T]) all() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.items)
}

// MemoryProductStore is the in-process ProductStore used without a database.
type MemoryProductStore struct {
	table *memoryTable[Product]
}

func NewMemoryProductStore(products ...Product) *MemoryProductStore {
	s := &MemoryProductStore{table: &memoryTable[Product]{
		sortOrder: func(p Product) int { return p.SortOrder },
		slug:      func(p Product) string { return p.Slug },
		title:     func(p Product) i18n.LocalizedText { return p.Title },
	}}
	for _, p := range products {
		s.table.upsert(p)
	}
	return s
}

func (s *MemoryProductStore) FindPage(_ context.Context, skip, take int) ([]Product, int, error) {
	items, total := s.table.findPage(skip, take)
	return items, total, nil
}

func (s *MemoryProductStore) FindMatchingIDs(_ context.Context, term string, locales []i18n.Locale) ([]string, error) {
	return s.table.findMatchingIDs(term, locales), nil
}

func (s *MemoryProductStore) FindByIDs(_ context.Context, ids []string) ([]Product, error) {
	return s.table.findByIDs(ids), nil
}

func (s *MemoryProductStore) FindBySlug(_ context.Context, slug string) (Product, error) {
	p, ok := s.table.findBySlug(slug)
	if !ok {
		return Product{}, fmt.Errorf("product %q: %w", slug, sentinel.ErrNotFound)
	}
	return p, nil
}

func (s *MemoryProductStore) ListByCategory(_ context.Context, categoryID string) ([]Product, error) {
	var out []Product
	for _, p := range s.table.all() {
		if p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryProductStore) Upsert(_ context.Context, p Product) error {
	s.table.upsert(p)
	return nil
}

// MemoryCategoryStore is the in-process CategoryStore used without a database.
type MemoryCategoryStore struct {
	table *memoryTable[Category]
}

func NewMemoryCategoryStore(categories ...Category) *MemoryCategoryStore {
	s := &MemoryCategoryStore{table: &memoryTable[Category]{
		sortOrder: func(c Category) int { return c.SortOrder },
		slug:      func(c Category) string { return c.Slug },
		title:     func(c Category) i18n.LocalizedText { return c.Title },
	}}
	for _, c := range categories {
		s.table.upsert(c)
	}
	return s
}

func (s *MemoryCategoryStore) FindPage(_ context.Context, skip, take int) ([]Category, int, error) {
	items, total := s.table.findPage(skip, take)
	return items, total, nil
}

func (s *MemoryCategoryStore) FindMatchingIDs(_ context.Context, term string, locales []i18n.Locale) ([]string, error) {
	return s.table.findMatchingIDs(term, locales), nil
}

func (s *MemoryCategoryStore) FindByIDs(_ context.Context, ids []string) ([]Category, error) {
	return s.table.findByIDs(ids), nil
}

func (s *MemoryCategoryStore) FindBySlug(_ context.Context, slug string) (Category, error) {
	c, ok := s.table.findBySlug(slug)
	if !ok {
		return Category{}, fmt.Errorf("category %q: %w", slug, sentinel.ErrNotFound)
	}
	return c, nil
}

func (s *MemoryCategoryStore) All(_ context.Context) ([]Category, error) {
	return s.table.all(), nil
}

func (s *MemoryCategoryStore) Upsert(_ context.Context, c Category) error {
	s.table.upsert(c)
	return nil
}
