// Package search implements keyed search pagination: a substring match over
// locale-keyed fields produces an ordered id list, and only the requested
// window of ids is then loaded.
package search

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"yapisite/internal/i18n"
	"yapisite/internal/platform/metrics"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Entity is anything with a stable identifier.
type Entity interface {
	EntityID() string
}

// Store is the query surface a Paginator needs. Both FindPage and
// FindMatchingIDs must use the same stable order.
type Store[T Entity] interface {
	// FindPage returns one window of the full set and the full set size.
	FindPage(ctx context.Context, skip, take int) ([]T, int, error)
	// FindMatchingIDs returns the ids of every entity whose localized title
	// contains term, case-insensitively, in any of locales.
	FindMatchingIDs(ctx context.Context, term string, locales []i18n.Locale) ([]string, error)
	// FindByIDs loads the given entities in any order.
	FindByIDs(ctx context.Context, ids []string) ([]T, error)
}

// Page is one page of results.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// Paginator runs searches against one entity store.
type Paginator[T Entity] struct {
	entity  string
	store   Store[T]
	locales []i18n.Locale
	metrics *metrics.Metrics
}

// NewPaginator builds a paginator. entity labels metrics ("product").
func NewPaginator[T Entity](entity string, store Store[T], locales []i18n.Locale, m *metrics.Metrics) *Paginator[T] {
	return &Paginator[T]{entity: entity, store: store, locales: locales, metrics: m}
}

// Normalize clamps page to at least 1 and pageSize to 1..MaxPageSize,
// substituting DefaultPageSize for non-positive sizes. page is capped so the
// offset of its first item fits in an int.
func Normalize(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	page = min(page, math.MaxInt/pageSize)
	return page, pageSize
}

// Search returns the requested page. An empty term lists everything.
// Pages past the end are empty with the total intact.
func (p *Paginator[T]) Search(ctx context.Context, term string, page, pageSize int) (Page[T], error) {
	page, pageSize = Normalize(page, pageSize)
	skip := (page - 1) * pageSize
	term = strings.TrimSpace(term)

	start := time.Now()
	mode := "list"
	if term != "" {
		mode = "match"
	}
	defer func() {
		p.metrics.ObserveSearch(p.entity, mode, time.Since(start).Seconds())
	}()

	if term == "" {
		items, total, err := p.store.FindPage(ctx, skip, pageSize)
		if err != nil {
			return Page[T]{}, fmt.Errorf("find %s page: %w", p.entity, err)
		}
		return newPage(items, total, page, pageSize), nil
	}

	ids, err := p.store.FindMatchingIDs(ctx, term, p.locales)
	if err != nil {
		return Page[T]{}, fmt.Errorf("find matching %s ids: %w", p.entity, err)
	}
	total := len(ids)
	if skip < 0 || skip >= total {
		return newPage[T](nil, total, page, pageSize), nil
	}
	window := ids[skip : skip+min(pageSize, total-skip)]

	loaded, err := p.store.FindByIDs(ctx, window)
	if err != nil {
		return Page[T]{}, fmt.Errorf("load %s window: %w", p.entity, err)
	}
	return newPage(orderByIDs(loaded, window), total, page, pageSize), nil
}

// orderByIDs returns items in ids order. Ids with no loaded item (deleted
// between the two phases) are skipped.
func orderByIDs[T Entity](items []T, ids []string) []T {
	byID := make(map[string]T, len(items))
	for _, item := range items {
		byID[item.EntityID()] = item
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

func newPage[T any](items []T, total, page, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// ContainsFold reports whether any of locales' values in text contains term
// under Unicode case folding. In-memory stores use it to mirror ILIKE.
func ContainsFold(text i18n.LocalizedText, term string, locales []i18n.Locale) bool {
	if term == "" {
		return true
	}
	folder := cases.Fold()
	needle := folder.String(term)
	for _, l := range locales {
		if v := text.Get(l); v != "" && strings.Contains(folder.String(v), needle) {
			return true
		}
	}
	return false
}
