package ratelimit

import (
	"errors"
	"testing"
	"time"
)

func newTestLimiter(max int, window time.Duration) (*Limiter, *time.Time) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := New(max, window)
	l.now = func() time.Time { return now }
	l.resetAt = now.Add(window)
	return l, &now
}

func TestLimiterAllowsUpToQuota(t *testing.T) {
	l, _ := newTestLimiter(20, time.Minute)

	for i := 0; i < 20; i++ {
		if err := l.Allow(); err != nil {
			t.Fatalf("request %d rejected: %v", i+1, err)
		}
	}

	err := l.Allow()
	if err == nil {
		t.Fatal("request 21 should be rejected")
	}
	var rlErr *Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected *ratelimit.Error, got %T", err)
	}
	if rlErr.RetryAfter != 60 {
		t.Fatalf("expected retry after 60s, got %d", rlErr.RetryAfter)
	}
}

func TestLimiterResetsAfterWindow(t *testing.T) {
	l, now := newTestLimiter(2, time.Minute)

	for i := 0; i < 2; i++ {
		if err := l.Allow(); err != nil {
			t.Fatalf("request %d rejected: %v", i+1, err)
		}
	}
	if err := l.Allow(); err == nil {
		t.Fatal("expected rejection in exhausted window")
	}

	// Move past the window boundary; the rejected call now succeeds.
	*now = now.Add(61 * time.Second)
	if err := l.Allow(); err != nil {
		t.Fatalf("request after window reset rejected: %v", err)
	}
}

func TestLimiterWindowSlidesFromFirstUse(t *testing.T) {
	l, now := newTestLimiter(5, time.Minute)

	*now = now.Add(90 * time.Second) // well past the initial window
	if err := l.Allow(); err != nil {
		t.Fatalf("allow failed: %v", err)
	}

	// New window starts at now, not at the old boundary.
	st := l.Snapshot()
	want := now.Add(time.Minute)
	if !st.ResetAt.Equal(want) {
		t.Fatalf("expected window reset at %v, got %v", want, st.ResetAt)
	}
	if st.Requests != 1 {
		t.Fatalf("expected 1 request in new window, got %d", st.Requests)
	}
}

func TestLimiterRetryAfterRoundsUp(t *testing.T) {
	l, now := newTestLimiter(1, time.Minute)

	if err := l.Allow(); err != nil {
		t.Fatalf("allow failed: %v", err)
	}
	*now = now.Add(59*time.Second + 500*time.Millisecond)

	err := l.Allow()
	var rlErr *Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected *ratelimit.Error, got %v", err)
	}
	if rlErr.RetryAfter != 1 {
		t.Fatalf("expected retry after ceil(0.5s)=1, got %d", rlErr.RetryAfter)
	}
}
