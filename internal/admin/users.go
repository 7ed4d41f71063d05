package admin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"yapisite/pkg/platform/sentinel"
	"yapisite/pkg/platform/tx"
)

// User is an administrative account.
type User struct {
	Email        string
	PasswordHash string
	Role         string
}

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MemoryUserStore holds accounts seeded from configuration.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryUserStore(users ...User) *MemoryUserStore {
	s := &MemoryUserStore{users: make(map[string]User, len(users))}
	for _, u := range users {
		u.Email = normalizeEmail(u.Email)
		s.users[u.Email] = u
	}
	return s
}

func (s *MemoryUserStore) FindByEmail(_ context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[normalizeEmail(email)]
	if !ok {
		return User{}, fmt.Errorf("admin user: %w", sentinel.ErrNotFound)
	}
	return u, nil
}

// PostgresUserStore reads accounts from the admin_users table.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUserStore(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) FindByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT email, password_hash, role FROM admin_users WHERE email = $1`, normalizeEmail(email),
	).Scan(&u.Email, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("admin user: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return User{}, fmt.Errorf("find admin user: %w", err)
	}
	return u, nil
}

// Upsert creates or replaces an account; used to bootstrap the configured
// administrator.
func (s *PostgresUserStore) Upsert(ctx context.Context, u User) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO admin_users (email, password_hash, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role
	`, normalizeEmail(u.Email), u.PasswordHash, u.Role)
	if err != nil {
		return fmt.Errorf("upsert admin user: %w", err)
	}
	return nil
}
