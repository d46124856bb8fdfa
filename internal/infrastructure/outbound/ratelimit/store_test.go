package ratelimit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sophialabs/testlabadvisor/internal/infrastructure/outbound/ratelimit"
	"github.com/sophialabs/testlabadvisor/internal/testutil"
)

func newStore(ttl time.Duration) (*ratelimit.TokenBucketStore, *testutil.ManualClock) {
	clk := testutil.NewManualClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	return ratelimit.NewTokenBucketStore(ttl, clk), clk
}

func TestTokenBucketStore_AllowWithinBurst(t *testing.T) {
	store, _ := newStore(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	for i := range 3 {
		if !store.Allow(ctx, "tech:JD", 1, 3) {
			t.Errorf("submission %d should be allowed within burst", i+1)
		}
	}
}

func TestTokenBucketStore_DeniedOverBurst(t *testing.T) {
	store, _ := newStore(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	for range 5 {
		store.Allow(ctx, "tech:JD", 1, 5)
	}

	if store.Allow(ctx, "tech:JD", 1, 5) {
		t.Error("submission over burst should be denied")
	}
}

func TestTokenBucketStore_Refills(t *testing.T) {
	store, clk := newStore(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	if !store.Allow(ctx, "tech:JD", 0.5, 1) {
		t.Fatal("first submission should be allowed")
	}
	if store.Allow(ctx, "tech:JD", 0.5, 1) {
		t.Fatal("immediate resubmission should be denied")
	}

	clk.Advance(2 * time.Second)
	if !store.Allow(ctx, "tech:JD", 0.5, 1) {
		t.Error("expected a token after refill interval")
	}
}

func TestTokenBucketStore_PerKeyIsolation(t *testing.T) {
	store, _ := newStore(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	for range 2 {
		store.Allow(ctx, "tech:JD", 1, 2)
	}

	if !store.Allow(ctx, "tech:AB", 1, 2) {
		t.Error("AB should be allowed (separate from JD)")
	}
}

func TestTokenBucketStore_Evict(t *testing.T) {
	store, clk := newStore(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	store.Allow(ctx, "old", 1, 1)
	clk.Advance(2 * time.Minute)
	store.Allow(ctx, "fresh", 1, 1)
	store.Evict()

	if store.Len() != 1 {
		t.Errorf("expected 1 after eviction, got %d", store.Len())
	}
}

func TestTokenBucketStore_UpdatedParams(t *testing.T) {
	store, clk := newStore(time.Minute)
	defer store.Stop()
	ctx := context.Background()

	store.Allow(ctx, "reload-key", 1, 2)
	store.Allow(ctx, "reload-key", 10, 20)
	if store.Len() != 1 {
		t.Fatalf("expected 1 limiter after param update, got %d", store.Len())
	}

	for store.Allow(ctx, "reload-key", 10, 20) {
		// drain
	}
	clk.Advance(200 * time.Millisecond)

	if !store.Allow(ctx, "reload-key", 10, 20) {
		t.Error("expected token available after rate increase")
	}
}

func TestTokenBucketStore_StopTwice(t *testing.T) {
	store, _ := newStore(time.Minute)
	store.Stop()
	store.Stop()
}

func TestSubmissionKey(t *testing.T) {
	if ratelimit.SubmissionKey(" jd ") != ratelimit.SubmissionKey("JD") {
		t.Error("technician keys should be case-insensitive")
	}
}

func TestTokenBucketStore_Concurrent(t *testing.T) {
	store, _ := newStore(time.Minute)
	defer store.Stop()
	ctx := context.Background()
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Allow(ctx, "concurrent", 100, 100)
		}()
	}

	wg.Wait()

	if store.Len() != 1 {
		t.Errorf("expected 1 limiter, got %d", store.Len())
	}
}
