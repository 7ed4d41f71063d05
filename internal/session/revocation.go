package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"yapisite/pkg/platform/sentinel"
)

var isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "yapisite_session_revocation_check_duration_ms",
	Help:    "Latency of session revocation checks in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const revokedKeyPrefix = "session:revoked:"

// RevocationList records logged-out session token ids until they expire.
type RevocationList interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

// RedisRevocationList shares revocations across instances.
type RedisRevocationList struct {
	client *redis.Client
	prefix string
}

// NewRedisRevocationList keys entries under keyPrefix + "session:revoked:".
func NewRedisRevocationList(client *redis.Client, keyPrefix string) *RedisRevocationList {
	return &RedisRevocationList{client: client, prefix: keyPrefix + revokedKeyPrefix}
}

// Revoke marks jti revoked for ttl.
func (l *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	if err := l.client.Set(ctx, l.prefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti is present. Redis failures are returned so
// the caller can fail closed.
func (l *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if jti == "" {
		return false, nil
	}
	err := l.client.Get(ctx, l.prefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	return true, nil
}

// MemoryRevocationList is the single-instance variant used when Redis is not
// configured.
type MemoryRevocationList struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{entries: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for id, exp := range l.entries {
		if !now.Before(exp) {
			delete(l.entries, id)
		}
	}
	l.entries[jti] = now.Add(ttl)
	return nil
}

func (l *MemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.entries[jti]
	if !ok {
		return false, nil
	}
	if !l.now().Before(exp) {
		delete(l.entries, jti)
		return false, nil
	}
	return true, nil
}
