package order

import (
	"sync"
	"time"
)

// Scheduler arms one-shot callbacks for payment expiry. Re-arming the same
// order replaces the previous timer.
type Scheduler interface {
	ScheduleAt(orderID string, at time.Time, fn func())
	Stop()
}

type timerScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewScheduler() Scheduler {
	return &timerScheduler{
		timers: make(map[string]*time.Timer),
	}
}

func (s *timerScheduler) ScheduleAt(orderID string, at time.Time, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.timers[orderID]; ok {
		existing.Stop()
	}

	// time.AfterFunc fires immediately for a non-positive duration, which
	// handles windows that already elapsed while the process was down.
	s.timers[orderID] = time.AfterFunc(time.Until(at), func() {
		s.mu.Lock()
		delete(s.timers, orderID)
		s.mu.Unlock()
		fn()
	})
}

func (s *timerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
