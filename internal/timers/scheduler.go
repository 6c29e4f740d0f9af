// Package timers runs one question deadline per room.
package timers

import (
	"sync"
	"time"

	"payoffquiz/internal/logger"
)

type entry struct {
	gen   uint64
	timer Timer
}

// Scheduler keeps at most one armed timer per room code. A callback runs at
// most once, and never after the timer was re-armed or canceled.
type Scheduler struct {
	clock Clock

	mu     sync.Mutex
	gen    uint64
	timers map[string]*entry
}

func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = Real()
	}
	return &Scheduler{
		clock:  clock,
		timers: make(map[string]*entry),
	}
}

// Arm replaces any timer armed for code with one that calls fn after d.
func (s *Scheduler) Arm(code string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.timers[code]; ok {
		prev.timer.Stop()
	}
	s.gen++
	gen := s.gen
	e := &entry{gen: gen}
	e.timer = s.clock.AfterFunc(d, func() {
		// Stop can lose the race against a timer that already started
		// firing; the generation check catches that.
		s.mu.Lock()
		cur, ok := s.timers[code]
		if !ok || cur.gen != gen {
			s.mu.Unlock()
			return
		}
		delete(s.timers, code)
		s.mu.Unlock()
		fn()
	})
	s.timers[code] = e

	log := logger.Component("timers")
	log.Debug().Str("room", code).Dur("after", d).Msg("armed")
}

// Cancel drops the timer armed for code. Canceling an unknown, fired or
// already canceled timer is a no-op.
func (s *Scheduler) Cancel(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.timers[code]; ok {
		e.timer.Stop()
		delete(s.timers, code)
	}
}

// Armed reports whether code has a timer waiting to fire.
func (s *Scheduler) Armed(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[code]
	return ok
}

// Stop cancels every timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for code, e := range s.timers {
		e.timer.Stop()
		delete(s.timers, code)
	}
}
