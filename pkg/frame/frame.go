// Package frame provides the cooperative frame scheduler that paces
// rendering and animation.
//
// A [Loop] plays the role of a browser's animation-frame queue. Callbacks are
// requested for "the next frame" and run when the owning goroutine calls
// [Loop.Tick]. A Loop is not safe for concurrent use: each view is driven by
// exactly one goroutine, which both requests and ticks.
//
// Each tick runs the callbacks that were pending when it started, in request
// order. Callbacks requested while a tick runs wait for the next one, so an
// animation that re-requests itself advances one step per tick.
package frame

import "time"

// Handle identifies a requested callback. The zero Handle is never issued.
type Handle uint64

// Callback is invoked with the frame time.
type Callback func(now time.Time)

// Scheduler requests and cancels frame callbacks.
type Scheduler interface {
	Request(fn Callback) Handle
	Cancel(h Handle)
}

type task struct {
	h  Handle
	fn Callback
}

// Loop is a manually ticked [Scheduler].
type Loop struct {
	last    Handle
	queue   []task
	live    map[Handle]struct{}
	stopped bool
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{live: make(map[Handle]struct{})}
}

// Request schedules fn for the next tick. After [Loop.Stop] it returns the
// zero Handle and fn never runs.
func (l *Loop) Request(fn Callback) Handle {
	if l.stopped || fn == nil {
		return 0
	}
	l.last++
	h := l.last
	l.queue = append(l.queue, task{h: h, fn: fn})
	l.live[h] = struct{}{}
	return h
}

// Cancel drops a pending callback. Cancelling a handle that already ran, was
// already cancelled or is zero does nothing.
func (l *Loop) Cancel(h Handle) {
	delete(l.live, h)
}

// IsPending reports whether h is still waiting to run.
func (l *Loop) IsPending(h Handle) bool {
	_, ok := l.live[h]
	return ok
}

// Pending returns the number of callbacks waiting to run.
func (l *Loop) Pending() int { return len(l.live) }

// Tick runs the callbacks pending at the start of the tick and returns how
// many ran.
func (l *Loop) Tick(now time.Time) int {
	batch := l.queue
	l.queue = nil
	ran := 0
	for _, t := range batch {
		if _, ok := l.live[t.h]; !ok {
			continue
		}
		delete(l.live, t.h)
		t.fn(now)
		ran++
	}
	// Drop cancelled entries so the queue does not grow without bound.
	if len(l.live) == 0 {
		l.queue = l.queue[:0]
	}
	return ran
}

// Settle ticks until nothing is pending, advancing the frame time by step
// from start, and gives up after max ticks. It returns the frame time of the
// last tick, which is start when nothing was pending.
func (l *Loop) Settle(start time.Time, step time.Duration, max int) time.Time {
	now := start
	for i := 0; i < max && l.Pending() > 0; i++ {
		now = now.Add(step)
		l.Tick(now)
	}
	return now
}

// Stop cancels every pending callback and refuses new requests.
func (l *Loop) Stop() {
	l.stopped = true
	l.queue = nil
	clear(l.live)
}

// Stopped reports whether [Loop.Stop] was called.
func (l *Loop) Stopped() bool { return l.stopped }
