// SPDX-License-Identifier: MIT
package controller

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLoopStopped is returned when posting to a stopped Loop.
var ErrLoopStopped = errors.New("controller: loop stopped")

// Timer is a pending scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped it before it fired.
	Stop() bool
}

// Scheduler runs delayed and periodic callbacks. Implementations must run
// every callback on the goroutine that owns the controller.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Loop serialises work onto one goroutine. Timers fire on the runtime's
// timer goroutines and post their callbacks here, so controller code never
// runs concurrently with itself.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

var _ Scheduler = (*Loop)(nil)

// NewLoop creates a loop with room for queue pending tasks.
func NewLoop(queue int) *Loop {
	return &Loop{
		tasks: make(chan func(), queue),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run processes tasks until Stop. It must be called exactly once.
func (l *Loop) Run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.quit:
			return
		}
	}
}

// Stop ends Run and waits for the task in progress to finish. Tasks still
// queued are dropped.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}

// Post queues fn without waiting for it.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.quit:
		return ErrLoopStopped
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.quit:
		return ErrLoopStopped
	}
}

// Call runs fn on the loop and waits for it, or for ctx to end.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.quit:
		return ErrLoopStopped
	}
}

// AfterFunc implements Scheduler.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, func() { _ = l.Post(fn) })
}

// Every implements Scheduler.
func (l *Loop) Every(d time.Duration, fn func()) Timer {
	t := &tickTimer{stop: make(chan struct{})}
	ticker := time.NewTicker(d)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if l.Post(fn) != nil {
					return
				}
			case <-t.stop:
				return
			case <-l.quit:
				return
			}
		}
	}()
	return t
}

type tickTimer struct {
	stop chan struct{}
	once sync.Once
}

func (t *tickTimer) Stop() bool {
	stopped := false
	t.once.Do(func() {
		close(t.stop)
		stopped = true
	})
	return stopped
}
