package cleanup

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakePruner struct {
	mu     sync.Mutex
	calls  int
	maxAge time.Duration
	err    error
}

func (f *fakePruner) DeleteOlderThan(maxAge time.Duration) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.maxAge = maxAge
	return 3, f.err
}

func (f *fakePruner) snapshot() (int, time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, f.maxAge
}

func TestSchedulerRunsInitialPrune(t *testing.T) {
	pruner := &fakePruner{}
	s := NewScheduler(pruner, 60, 24)

	s.Start()
	defer s.Stop()

	calls, maxAge := pruner.snapshot()
	if calls != 1 {
		t.Fatalf("expected initial prune, got %d calls", calls)
	}
	if maxAge != 24*time.Hour {
		t.Fatalf("expected max age 24h, got %v", maxAge)
	}
}

func TestSchedulerSurvivesPruneError(t *testing.T) {
	pruner := &fakePruner{err: errors.New("database locked")}
	s := NewScheduler(pruner, 60, 24)

	s.Start() // must not panic
	s.Stop()
}
