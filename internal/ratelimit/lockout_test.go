package ratelimit

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"yapisite/internal/platform/logger"
	"yapisite/pkg/requestcontext"
)

type LockoutSuite struct {
	suite.Suite
	store   *MemoryStore
	lockout *Lockout
	start   time.Time
}

func TestLockoutSuite(t *testing.T) {
	suite.Run(t, new(LockoutSuite))
}

func (s *LockoutSuite) SetupTest() {
	s.store = NewMemoryStore()
	var err error
	s.lockout, err = New(s.store,
		WithConfig(Config{AttemptsPerWindow: 3, Window: 10 * time.Minute}),
		WithLogger(logger.Discard()),
	)
	s.Require().NoError(err)
	s.start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *LockoutSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.start.Add(offset))
}

func (s *LockoutSuite) attempt(ctx context.Context, identifier string) Result {
	res, err := s.lockout.Attempt(ctx, identifier, "203.0.113.7")
	s.Require().NoError(err)
	return res
}

func (s *LockoutSuite) TestAllowsUpToLimit() {
	ctx := s.at(0)
	for want := 2; want >= 0; want-- {
		res := s.attempt(ctx, "admin@example.com")
		s.True(res.Allowed)
		s.Equal(want, res.Remaining)
	}
}

func (s *LockoutSuite) TestRefusesPastLimit() {
	for range 3 {
		s.attempt(s.at(0), "admin@example.com")
	}

	res := s.attempt(s.at(time.Minute), "ADMIN@example.com ")
	s.False(res.Allowed, "identifier is matched case-insensitively")
	s.Equal(9*time.Minute, res.RetryAfter)
}

func (s *LockoutSuite) TestOtherClientsAreNotLocked() {
	for range 4 {
		s.attempt(s.at(0), "admin@example.com")
	}

	res, err := s.lockout.Attempt(s.at(0), "admin@example.com", "198.51.100.1")
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *LockoutSuite) TestWindowExpires() {
	for range 4 {
		s.attempt(s.at(0), "admin@example.com")
	}

	res := s.attempt(s.at(10*time.Minute), "admin@example.com")
	s.True(res.Allowed)
	s.Equal(2, res.Remaining)
}

func (s *LockoutSuite) TestRefusedAttemptsDoNotExtendWindow() {
	for range 3 {
		s.attempt(s.at(0), "admin@example.com")
	}
	s.False(s.attempt(s.at(9*time.Minute), "admin@example.com").Allowed)

	s.True(s.attempt(s.at(10*time.Minute), "admin@example.com").Allowed)
}

func (s *LockoutSuite) TestClearResets() {
	for range 4 {
		s.attempt(s.at(0), "admin@example.com")
	}
	s.Require().NoError(s.lockout.Clear(s.at(0), "admin@example.com", "203.0.113.7"))

	s.True(s.attempt(s.at(0), "admin@example.com").Allowed)
}

// Attempts in flight together each reserve a slot, so no more than the
// limit get through however the credential checks interleave.
func (s *LockoutSuite) TestConcurrentAttemptsAreBounded() {
	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
	)
	release := make(chan struct{})
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-release
			res, err := s.lockout.Attempt(s.at(0), "admin@example.com", "203.0.113.7")
			if err == nil && res.Allowed {
				allowed.Add(1)
			}
		}()
	}
	close(release)
	wg.Wait()

	s.Equal(int32(3), allowed.Load())
}

type brokenStore struct{}

func (brokenStore) Increment(context.Context, string, time.Duration) (int, time.Duration, error) {
	return 0, 0, errors.New("store down")
}

func (brokenStore) Clear(context.Context, string) error { return errors.New("store down") }

func (s *LockoutSuite) TestStoreErrorsAreWrapped() {
	l, err := New(brokenStore{})
	s.Require().NoError(err)

	_, err = l.Attempt(context.Background(), "a", "b")
	s.ErrorContains(err, "record login attempt")
	s.ErrorContains(l.Clear(context.Background(), "a", "b"), "clear login failures")
}

func (s *LockoutSuite) TestNewRequiresStore() {
	_, err := New(nil)
	s.Error(err)
}
