package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"yapisite/internal/i18n"
	"yapisite/pkg/platform/sentinel"
	"yapisite/pkg/platform/tx"
)

type rowScanner interface {
	Scan(dest ...any) error
}

// likePattern escapes LIKE metacharacters in term and wraps it for a
// substring match with ESCAPE '\'.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}

func localeCodes(locales []i18n.Locale) []string {
	out := make([]string, len(locales))
	for i, l := range locales {
		out[i] = string(l)
	}
	return out
}

// matchingIDsQuery finds ids whose title has a value in one of the locales
// containing the pattern. Order matches the listing order.
func matchingIDsQuery(table string) string {
	return `
		SELECT t.id FROM ` + table + ` t
		WHERE EXISTS (
			SELECT 1 FROM jsonb_each_text(t.title) AS f(locale, value)
			WHERE f.locale = ANY($2::text[]) AND f.value ILIKE $1 ESCAPE '\'
		)
		ORDER BY t.sort_order, t.id
	`
}

func queryIDs(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func queryAll[T any](ctx context.Context, db *sql.DB, scan func(rowScanner) (T, error), query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func count(ctx context.Context, db *sql.DB, table string) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT count(*) FROM `+table).Scan(&n)
	return n, err
}

const productColumns = `id, COALESCE(category_id, ''), slug, title, description, seo_title, seo_description, image_path, sort_order`

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.CategoryID, &p.Slug, &p.Title, &p.Description,
		&p.SEOTitle, &p.SEODescription, &p.ImagePath, &p.SortOrder)
	return p, err
}

// PostgresProductStore persists products in PostgreSQL.
type PostgresProductStore struct {
	db *sql.DB
}

func NewPostgresProductStore(db *sql.DB) *PostgresProductStore {
	return &PostgresProductStore{db: db}
}

func (s *PostgresProductStore) FindPage(ctx context.Context, skip, take int) ([]Product, int, error) {
	total, err := count(ctx, s.db, "products")
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	items, err := queryAll(ctx, s.db, scanProduct,
		`SELECT `+productColumns+` FROM products ORDER BY sort_order, id LIMIT $1 OFFSET $2`, take, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return items, total, nil
}

func (s *PostgresProductStore) FindMatchingIDs(ctx context.Context, term string, locales []i18n.Locale) ([]string, error) {
	ids, err := queryIDs(ctx, s.db, matchingIDsQuery("products"), likePattern(term), pq.Array(localeCodes(locales)))
	if err != nil {
		return nil, fmt.Errorf("match products: %w", err)
	}
	return ids, nil
}

func (s *PostgresProductStore) FindByIDs(ctx context.Context, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	items, err := queryAll(ctx, s.db, scanProduct,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1::text[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load products by id: %w", err)
	}
	return items, nil
}

func (s *PostgresProductStore) FindBySlug(ctx context.Context, slug string) (Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, fmt.Errorf("product %q: %w", slug, sentinel.ErrNotFound)
	}
	if err != nil {
		return Product{}, fmt.Errorf("find product by slug: %w", err)
	}
	return p, nil
}

func (s *PostgresProductStore) ListByCategory(ctx context.Context, categoryID string) ([]Product, error) {
	items, err := queryAll(ctx, s.db, scanProduct,
		`SELECT `+productColumns+` FROM products WHERE category_id = $1 ORDER BY sort_order, id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	return items, nil
}

func (s *PostgresProductStore) Upsert(ctx context.Context, p Product) error {
	query := `
		INSERT INTO products (id, category_id, slug, title, description, seo_title, seo_description, image_path, sort_order)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			category_id = EXCLUDED.category_id,
			slug = EXCLUDED.slug,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			seo_title = EXCLUDED.seo_title,
			seo_description = EXCLUDED.seo_description,
			image_path = EXCLUDED.image_path,
			sort_order = EXCLUDED.sort_order
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, p.ID, p.CategoryID, p.Slug, p.Title, p.Description,
		p.SEOTitle, p.SEODescription, p.ImagePath, p.SortOrder)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

const categoryColumns = `id, slug, title, description, sort_order`

func scanCategory(row rowScanner) (Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.Slug, &c.Title, &c.Description, &c.SortOrder)
	return c, err
}

// PostgresCategoryStore persists categories in PostgreSQL.
type PostgresCategoryStore struct {
	db *sql.DB
}

func NewPostgresCategoryStore(db *sql.DB) *PostgresCategoryStore {
	return &PostgresCategoryStore{db: db}
}

func (s *PostgresCategoryStore) FindPage(ctx context.Context, skip, take int) ([]Category, int, error) {
	total, err := count(ctx, s.db, "categories")
	if err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}
	items, err := queryAll(ctx, s.db, scanCategory,
		`SELECT `+categoryColumns+` FROM categories ORDER BY sort_order, id LIMIT $1 OFFSET $2`, take, skip)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	return items, total, nil
}

func (s *PostgresCategoryStore) FindMatchingIDs(ctx context.Context, term string, locales []i18n.Locale) ([]string, error) {
	ids, err := queryIDs(ctx, s.db, matchingIDsQuery("categories"), likePattern(term), pq.Array(localeCodes(locales)))
	if err != nil {
		return nil, fmt.Errorf("match categories: %w", err)
	}
	return ids, nil
}

func (s *PostgresCategoryStore) FindByIDs(ctx context.Context, ids []string) ([]Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	items, err := queryAll(ctx, s.db, scanCategory,
		`SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1::text[])`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("load categories by id: %w", err)
	}
	return items, nil
}

func (s *PostgresCategoryStore) FindBySlug(ctx context.Context, slug string) (Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return Category{}, fmt.Errorf("category %q: %w", slug, sentinel.ErrNotFound)
	}
	if err != nil {
		return Category{}, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

func (s *PostgresCategoryStore) All(ctx context.Context) ([]Category, error) {
	items, err := queryAll(ctx, s.db, scanCategory,
		`SELECT `+categoryColumns+` FROM categories ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list all categories: %w", err)
	}
	return items, nil
}

func (s *PostgresCategoryStore) Upsert(ctx context.Context, c Category) error {
	query := `
		INSERT INTO categories (id, slug, title, description, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			sort_order = EXCLUDED.sort_order
	`
	if _, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, c.ID, c.Slug, c.Title, c.Description, c.SortOrder); err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}
