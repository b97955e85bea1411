// Package sched provides the single-threaded scheduler the session engine runs on.
//
// Every engine callback (poll cycles, countdown ticks, hold timers, reveal
// delays, completions of blocking work) is executed by exactly one goroutine,
// so engine state needs no locking. Loop is the wall-clock implementation and
// Virtual is a manually advanced clock for tests.
package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Cancel stops a scheduled callback. Calling it more than once is a no-op.
type Cancel func()

// Scheduler runs callbacks one at a time.
type Scheduler interface {
	// Now returns the scheduler's current time.
	Now() time.Time
	// Schedule runs fn on the scheduler after delay.
	Schedule(delay time.Duration, fn func()) Cancel
	// Go runs work off the scheduler and then runs then on it.
	Go(work func(), then func())
}

// Loop is a wall-clock Scheduler. Callbacks are delivered either to an
// internal queue drained by Run, or to a caller supplied sink (for example a
// Bubble Tea program) which must execute them sequentially.
type Loop struct {
	sink  func(func())
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop returns a Loop whose callbacks are executed by Run.
func NewLoop() *Loop {
	l := &Loop{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	l.sink = l.enqueue
	return l
}

// NewLoopWithSink returns a Loop that hands every callback to sink.
func NewLoopWithSink(sink func(func())) *Loop {
	return &Loop{sink: sink, done: make(chan struct{})}
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post queues fn for execution on the loop.
func (l *Loop) Post(fn func()) {
	l.sink(fn)
}

// Schedule implements Scheduler.
func (l *Loop) Schedule(delay time.Duration, fn func()) Cancel {
	var cancelled atomic.Bool
	t := time.AfterFunc(delay, func() {
		l.Post(func() {
			if cancelled.Load() {
				return
			}
			fn()
		})
	})
	return func() {
		cancelled.Store(true)
		t.Stop()
	}
}

// Go implements Scheduler.
func (l *Loop) Go(work func(), then func()) {
	go func() {
		work()
		l.Post(then)
	}()
}

// Run executes queued callbacks until ctx is done. It is only needed for
// loops created with NewLoop.
func (l *Loop) Run(ctx context.Context) error {
	defer l.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Close stops accepting callbacks. Pending callbacks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

func (l *Loop) enqueue(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
	}
}
