package cleanup

import (
	"log"
	"time"
)

// Pruner removes terminal jobs older than the given age and reports how
// many were deleted.
type Pruner interface {
	DeleteOlderThan(maxAge time.Duration) (int, error)
}

// Scheduler periodically prunes old finished jobs from storage.
type Scheduler struct {
	store           Pruner
	intervalMinutes int
	maxAgeHours     int
	stopChan        chan struct{}
}

// NewScheduler creates a retention scheduler.
func NewScheduler(store Pruner, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		store:           store,
		intervalMinutes: intervalMinutes,
		maxAgeHours:     maxAgeHours,
		stopChan:        make(chan struct{}),
	}
}

// Start begins the retention loop. An initial prune runs immediately.
func (s *Scheduler) Start() {
	log.Println("Running initial job retention pass...")
	s.prune()

	ticker := time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)

	go func() {
		for {
			select {
			case <-ticker.C:
				s.prune()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	log.Printf("Retention scheduler started (interval: %dm, max age: %dh)",
		s.intervalMinutes, s.maxAgeHours)
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	log.Println("Retention scheduler stopped")
}

func (s *Scheduler) prune() {
	maxAge := time.Duration(s.maxAgeHours) * time.Hour
	deleted, err := s.store.DeleteOlderThan(maxAge)
	if err != nil {
		log.Printf("Error during retention pass: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Retention pass complete: %d old jobs removed", deleted)
	}
}
