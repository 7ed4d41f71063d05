package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"yapisite/pkg/platform/tx"
)

// PostgresStore keeps settings in the single-row site_settings table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context) (SiteSettings, error) {
	var out SiteSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT site_name, tagline, footer_text, phone, email, whatsapp, social_links
		FROM site_settings WHERE id = 1
	`).Scan(&out.SiteName, &out.Tagline, &out.FooterText, &out.Phone, &out.Email, &out.WhatsApp, &out.SocialLinks)
	if errors.Is(err, sql.ErrNoRows) {
		return SiteSettings{}, nil
	}
	if err != nil {
		return SiteSettings{}, fmt.Errorf("get site settings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Save(ctx context.Context, in SiteSettings) error {
	query := `
		INSERT INTO site_settings (id, site_name, tagline, footer_text, phone, email, whatsapp, social_links, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (id) DO UPDATE SET
			site_name = EXCLUDED.site_name,
			tagline = EXCLUDED.tagline,
			footer_text = EXCLUDED.footer_text,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			whatsapp = EXCLUDED.whatsapp,
			social_links = EXCLUDED.social_links,
			updated_at = now()
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, in.SiteName, in.Tagline, in.FooterText,
		in.Phone, in.Email, in.WhatsApp, in.SocialLinks)
	if err != nil {
		return fmt.Errorf("save site settings: %w", err)
	}
	return nil
}

// MemoryStore is the in-process Store used without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	settings SiteSettings
}

func NewMemoryStore(initial SiteSettings) *MemoryStore {
	return &MemoryStore{settings: initial}
}

func (s *MemoryStore) Get(context.Context) (SiteSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *MemoryStore) Save(_ context.Context, in SiteSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = in
	return nil
}
