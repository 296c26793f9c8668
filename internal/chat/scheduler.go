package chat

import (
	"sync"
	"time"
)

// TaskScheduler runs delayed cleanup tasks keyed by room id. Scheduling the
// same key again replaces the pending task. Implementations must tolerate
// Cancel on unknown keys; tasks are expected to re-validate state when they
// fire rather than trust a snapshot taken at schedule time.
type TaskScheduler interface {
	Schedule(key string, delay time.Duration, fn func())
	Cancel(key string)
	Stop()
}

type timerScheduler struct {
	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

// NewScheduler returns a TaskScheduler backed by one time.Timer per key.
func NewScheduler() TaskScheduler {
	return &timerScheduler{timers: make(map[string]*time.Timer)}
}

func (s *timerScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		stopped := s.stopped
		s.mu.Unlock()
		if !stopped {
			fn()
		}
	})
}

func (s *timerScheduler) Cancel(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
		delete(s.timers, key)
	}
}

func (s *timerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}
