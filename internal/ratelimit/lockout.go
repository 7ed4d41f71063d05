// Package ratelimit locks out administrative logins after repeated attempts.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Store counts attempts per key within a fixed window that starts at the
// first attempt.
type Store interface {
	// Increment adds one to key and returns the new count together with the
	// time left until the window resets.
	Increment(ctx context.Context, key string, window time.Duration) (int, time.Duration, error)
	Clear(ctx context.Context, key string) error
}

// Config bounds login attempts.
type Config struct {
	AttemptsPerWindow int
	Window            time.Duration
}

// DefaultConfig allows 5 attempts per 15 minutes.
func DefaultConfig() Config {
	return Config{AttemptsPerWindow: 5, Window: 15 * time.Minute}
}

// Result is the outcome of Attempt.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Lockout applies Config to a Store.
type Lockout struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

type Option func(*Lockout)

func WithConfig(cfg Config) Option {
	return func(l *Lockout) {
		if cfg.AttemptsPerWindow > 0 && cfg.Window > 0 {
			l.cfg = cfg
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Lockout) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func New(store Store, opts ...Option) (*Lockout, error) {
	if store == nil {
		return nil, errors.New("lockout store is required")
	}
	l := &Lockout{store: store, cfg: DefaultConfig(), logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Key identifies one (account, client) pair so an attacker cannot lock an
// administrator out from every address.
func Key(identifier, ip string) string {
	return "lockout:" + strings.ToLower(strings.TrimSpace(identifier)) + ":" + ip
}

// Attempt reserves one login attempt before the credentials are checked.
// The counter is incremented first, so concurrent attempts each take a slot
// and at most AttemptsPerWindow of them are allowed per window. Clear after a
// successful login releases the reservations.
func (l *Lockout) Attempt(ctx context.Context, identifier, ip string) (Result, error) {
	count, left, err := l.store.Increment(ctx, Key(identifier, ip), l.cfg.Window)
	if err != nil {
		return Result{}, fmt.Errorf("record login attempt: %w", err)
	}
	if count > l.cfg.AttemptsPerWindow {
		if count == l.cfg.AttemptsPerWindow+1 {
			l.logger.WarnContext(ctx, "admin login locked out",
				"identifier", identifier,
				"client_ip", ip,
				"retry_after", left,
			)
		}
		return Result{Allowed: false, RetryAfter: left}, nil
	}
	return Result{Allowed: true, Remaining: l.cfg.AttemptsPerWindow - count}, nil
}

// Clear forgets the window after a successful login.
func (l *Lockout) Clear(ctx context.Context, identifier, ip string) error {
	if err := l.store.Clear(ctx, Key(identifier, ip)); err != nil {
		return fmt.Errorf("clear login failures: %w", err)
	}
	return nil
}
