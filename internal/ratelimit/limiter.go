package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Defaults match the provider's free-tier quota.
const (
	DefaultMaxRequests = 20
	DefaultWindow      = 60 * time.Second
)

// Error reports an exhausted window and how long to wait before retrying.
type Error struct {
	RetryAfter int // seconds
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %ds", e.RetryAfter)
}

// Limiter is a fixed-window request governor. The window is not aligned to
// wall-clock boundaries: when a window expires, the next one starts at the
// time of the first check after expiry. That admits a burst of up to
// 2*maxRequests around a boundary, which is an accepted tradeoff of the
// fixed-window scheme.
type Limiter struct {
	mu          sync.Mutex
	requests    int
	resetAt     time.Time
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// New creates a limiter allowing maxRequests per window.
func New(maxRequests int, window time.Duration) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	l := &Limiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
	l.resetAt = l.now().Add(window)
	return l
}

// Allow consumes one request slot from the current window. It returns a
// *Error with a retry-after hint when the window is exhausted. Check and
// increment happen under one lock so concurrent callers cannot overshoot
// the quota.
func (l *Limiter) Allow() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if !now.Before(l.resetAt) {
		l.requests = 0
		l.resetAt = now.Add(l.window)
	}

	if l.requests >= l.maxRequests {
		wait := l.resetAt.Sub(now)
		return &Error{RetryAfter: int(math.Ceil(wait.Seconds()))}
	}

	l.requests++
	return nil
}

// State is a snapshot of the limiter for status reporting.
type State struct {
	Requests    int       `json:"requests"`
	ResetAt     time.Time `json:"reset_at"`
	MaxRequests int       `json:"max_requests"`
}

// Snapshot returns the current window state.
func (l *Limiter) Snapshot() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{
		Requests:    l.requests,
		ResetAt:     l.resetAt,
		MaxRequests: l.maxRequests,
	}
}
