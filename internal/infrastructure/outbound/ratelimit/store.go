package ratelimit

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
)

var _ ports.RateLimiter = (*TokenBucketStore)(nil)

type limiterEntry struct {
	limiter  *rate.Limiter
	rate     float64
	burst    int
	lastUsed time.Time
}

// TokenBucketStore keeps one token bucket per submitter key so a single
// technician cannot flood the test log with duplicate entries.
type TokenBucketStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	ttl      time.Duration
	clock    ports.Clock
	stop     chan struct{}
	stopOnce sync.Once
}

// NewTokenBucketStore creates a new store with the given TTL for inactive limiters.
// It starts a background goroutine that evicts stale entries every TTL interval.
// Call Stop to terminate the eviction goroutine.
func NewTokenBucketStore(ttl time.Duration, clock ports.Clock) *TokenBucketStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	s := &TokenBucketStore{
		limiters: make(map[string]*limiterEntry),
		ttl:      ttl,
		clock:    clock,
		stop:     make(chan struct{}),
	}
	go s.evictLoop()
	return s
}

// Stop terminates the background eviction goroutine. It is safe to call twice.
func (s *TokenBucketStore) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *TokenBucketStore) evictLoop() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Evict()
		case <-s.stop:
			return
		}
	}
}

// SubmissionKey builds the limiter key for a log submission. Technician
// initials are compared case-insensitively.
func SubmissionKey(technician string) string {
	return "tech:" + strings.ToUpper(strings.TrimSpace(technician))
}

// Allow checks if a submission for the given key is within limits.
func (s *TokenBucketStore) Allow(_ context.Context, key string, r float64, burst int) bool {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(r), burst),
			rate:    r,
			burst:   burst,
		}
		s.limiters[key] = entry
	} else if entry.rate != r || entry.burst != burst {
		// Config reloaded with new limits.
		entry.limiter.SetLimitAt(now, rate.Limit(r))
		entry.limiter.SetBurstAt(now, burst)
		entry.rate = r
		entry.burst = burst
	}

	entry.lastUsed = now
	return entry.limiter.AllowN(now, 1)
}

// Evict removes inactive entries older than the TTL.
func (s *TokenBucketStore) Evict() {
	cutoff := s.clock.Now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, entry := range s.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(s.limiters, key)
		}
	}
}

// Len returns the number of active limiters.
func (s *TokenBucketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.limiters)
}
