package sched

import (
	"sort"
	"time"
)

// Virtual is a deterministic Scheduler whose clock only moves on Advance.
// Go runs work and then synchronously.
type Virtual struct {
	now    time.Time
	seq    int
	timers []*virtualTimer
}

type virtualTimer struct {
	at        time.Time
	seq       int
	fn        func()
	cancelled bool
}

// NewVirtual returns a virtual clock starting at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now implements Scheduler.
func (v *Virtual) Now() time.Time {
	return v.now
}

// Schedule implements Scheduler.
func (v *Virtual) Schedule(delay time.Duration, fn func()) Cancel {
	if delay < 0 {
		delay = 0
	}
	v.seq++
	t := &virtualTimer{at: v.now.Add(delay), seq: v.seq, fn: fn}
	v.timers = append(v.timers, t)
	return func() { t.cancelled = true }
}

// Go implements Scheduler.
func (v *Virtual) Go(work func(), then func()) {
	work()
	then()
}

// Advance moves the clock forward by d, running every timer that falls due
// in order of deadline, including timers scheduled by those callbacks.
func (v *Virtual) Advance(d time.Duration) {
	target := v.now.Add(d)
	for {
		next := v.popDue(target)
		if next == nil {
			break
		}
		v.now = next.at
		next.fn()
	}
	v.now = target
}

// Pending returns the number of live timers.
func (v *Virtual) Pending() int {
	n := 0
	for _, t := range v.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

func (v *Virtual) popDue(target time.Time) *virtualTimer {
	live := v.timers[:0]
	for _, t := range v.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	v.timers = live
	if len(v.timers) == 0 {
		return nil
	}
	sort.SliceStable(v.timers, func(i, j int) bool {
		if v.timers[i].at.Equal(v.timers[j].at) {
			return v.timers[i].seq < v.timers[j].seq
		}
		return v.timers[i].at.Before(v.timers[j].at)
	})
	first := v.timers[0]
	if first.at.After(target) {
		return nil
	}
	v.timers = v.timers[1:]
	return first
}
