// SPDX-License-Identifier: MIT
package controller

import (
	"sync"
	"time"
)

// ManualScheduler is a virtual clock. Callbacks fire only inside Advance,
// on the caller's goroutine, in deadline order.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*manualTimer
}

var _ Scheduler = (*ManualScheduler)(nil)

type manualTimer struct {
	s       *ManualScheduler
	at      time.Duration
	period  time.Duration
	seq     int
	fn      func()
	stopped bool
}

// NewManualScheduler returns a clock at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Now returns the virtual time elapsed since creation.
func (s *ManualScheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// AfterFunc implements Scheduler.
func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return s.add(d, 0, fn)
}

// Every implements Scheduler.
func (s *ManualScheduler) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		panic("controller: non-positive interval")
	}
	return s.add(d, d, fn)
}

func (s *ManualScheduler) add(d, period time.Duration, fn func()) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &manualTimer{s: s, at: s.now + max(d, 0), period: period, seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// Pending returns the number of timers that have not fired or been stopped.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Advance moves the clock forward by d, firing every timer that falls due,
// including ones scheduled by callbacks during the advance.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		t := s.next(target)
		if t == nil {
			break
		}
		t.fn()
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
}

// next pops the earliest due timer, rescheduling periodic ones.
func (s *ManualScheduler) next(target time.Duration) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, t := range s.timers {
		if t.at > target {
			continue
		}
		if idx < 0 || t.at < s.timers[idx].at || (t.at == s.timers[idx].at && t.seq < s.timers[idx].seq) {
			idx = i
		}
	}
	if idx < 0 {
		return nil
	}
	t := s.timers[idx]
	s.now = t.at
	if t.period > 0 {
		t.at += t.period
		s.seq++
		t.seq = s.seq
	} else {
		s.timers = append(s.timers[:idx], s.timers[idx+1:]...)
	}
	return t
}

func (t *manualTimer) Stop() bool {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	for i, other := range s.timers {
		if other == t {
			s.timers = append(s.timers[:i], s.timers[i+1:]...)
			return true
		}
	}
	return false
}
