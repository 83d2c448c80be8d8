// Package uitest provides test doubles for the ui package.
package uitest

import (
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/admitcard-query/internal/ui"
)

// ManualScheduler is a ui.Scheduler whose clock only moves on Advance.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	s       *ManualScheduler
	seq     int
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

// NewManualScheduler returns a scheduler at virtual time zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// AfterFunc implements ui.Scheduler.
func (s *ManualScheduler) AfterFunc(d time.Duration, f func()) ui.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, seq: s.seq, at: s.now + d, fn: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward by d and runs every timer that came due, in
// deadline order, on the calling goroutine.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTimer
	remaining := s.timers[:0]
	for _, t := range s.timers {
		switch {
		case t.stopped:
		case t.at <= s.now:
			t.fired = true
			due = append(due, t)
		default:
			remaining = append(remaining, t)
		}
	}
	s.timers = remaining
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at == due[j].at {
			return due[i].seq < due[j].seq
		}
		return due[i].at < due[j].at
	})
	for _, t := range due {
		t.fn()
	}
}

// Pending returns the number of timers not yet fired or stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Now returns the virtual time elapsed since creation.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}
