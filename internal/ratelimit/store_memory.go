package ratelimit

import (
	"context"
	"sync"
	"time"

	"yapisite/pkg/requestcontext"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryStore keeps attempt windows in process. It is not shared between
// instances; use RedisStore when running more than one. Time is read from
// the request context.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]window
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]window)}
}

func (s *MemoryStore) Increment(ctx context.Context, key string, ttl time.Duration) (int, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := requestcontext.Now(ctx)
	w, ok := s.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = window{resetAt: now.Add(ttl)}
	}
	w.count++
	s.windows[key] = w
	return w.count, w.resetAt.Sub(now), nil
}

func (s *MemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}
