package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
	"github.com/sophialabs/testlabadvisor/internal/domain/testlog"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
)

var _ ports.Logger = (*NoopLogger)(nil)

// NoopLogger discards all log output.
type NoopLogger struct{}

func (l *NoopLogger) Info(string, ...any)  {}
func (l *NoopLogger) Warn(string, ...any)  {}
func (l *NoopLogger) Error(string, ...any) {}
func (l *NoopLogger) Debug(string, ...any) {}

var _ ports.Clock = (*FixedClock)(nil)

// FixedClock returns a fixed time and never sleeps.
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }
func (c *FixedClock) SleepContext(context.Context, time.Duration) error {
	return nil
}

var _ ports.Clock = (*ManualClock)(nil)

// ManualClock only moves when Advance is called. SleepContext advances the
// clock instead of blocking.
type ManualClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewManualClock creates a clock starting at t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{t: t}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func (c *ManualClock) SleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	return nil
}

var _ ports.RateLimiter = (*StubRateLimiter)(nil)

// StubRateLimiter returns a configurable Allow result.
type StubRateLimiter struct {
	AllowAll bool
}

func (r *StubRateLimiter) Allow(context.Context, string, float64, int) bool {
	return r.AllowAll
}

var _ ports.Metrics = (*NoopMetrics)(nil)

// NoopMetrics discards all observations.
type NoopMetrics struct{}

func (NoopMetrics) SearchServed(string)       {}
func (NoopMetrics) LookupServed(string)       {}
func (NoopMetrics) LogAppended(string)        {}
func (NoopMetrics) DatasetLoaded(int, string) {}

var _ advisory.Generator = (*StubGenerator)(nil)

// StubGenerator returns a configurable advice and records the last request.
type StubGenerator struct {
	Advice advisory.Advice
	Err    error
	Last   advisory.Request
}

func (g *StubGenerator) Generate(_ context.Context, req advisory.Request) (advisory.Advice, error) {
	g.Last = req
	return g.Advice, g.Err
}

var _ testlog.Sink = (*MemorySink)(nil)

// MemorySink keeps appended entries in memory. Err, when set, is returned
// from Append instead of storing the entry.
type MemorySink struct {
	mu      sync.Mutex
	Entries []testlog.Entry
	Err     error
}

func (s *MemorySink) Append(_ context.Context, e testlog.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Entries = append(s.Entries, e)
	return nil
}

func (s *MemorySink) Recent(_ context.Context, n int) ([]testlog.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 {
		return []testlog.Entry{}, nil
	}
	start := max(len(s.Entries)-n, 0)
	out := make([]testlog.Entry, len(s.Entries)-start)
	copy(out, s.Entries[start:])
	return out, nil
}
