package zone

import (
	"container/heap"
	"time"
)

// Timer is a delayed or periodic callback registered with a Scheduler.
// Timers scheduled through a tracker's inner context are pending macrotasks of
// that tracker until they fire (one-shot) or are canceled.
type Timer struct {
	fn       func()
	delay    time.Duration
	periodic bool

	deadline time.Time
	seq      uint64

	// position in the scheduler heap, -1 when not queued
	index int

	canceled bool
	done     bool

	// side effect run once when the timer leaves its owner's pending set
	release func(*Timer)

	sched *Scheduler
}

func (t *Timer) Duration() time.Duration { return t.delay }

func (t *Timer) Periodic() bool { return t.periodic }

func (t *Timer) Deadline() time.Time { return t.deadline }

// Canceled reports whether Cancel was called before the timer finished.
func (t *Timer) Canceled() bool { return t.canceled }

// Cancel removes the timer from the scheduler and from its owner's pending set.
// Canceling a fired or already canceled timer is a no-op.
func (t *Timer) Cancel() {
	if t.canceled || t.done {
		return
	}
	t.canceled = true

	t.sched.removeTimer(t)
	t.finish()
}

func (t *Timer) finish() {
	t.done = true
	if t.release != nil {
		release := t.release
		t.release = nil
		release(t)
	}
}

// timerHeap orders timers by deadline, then by scheduling order.
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline.Equal(h[j].deadline) {
		return h[i].seq < h[j].seq
	}
	return h[i].deadline.Before(h[j].deadline)
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

func (h *timerHeap) peek() *Timer {
	if len(*h) == 0 {
		return nil
	}
	return (*h)[0]
}

func (h *timerHeap) remove(t *Timer) {
	if t.index < 0 || t.index >= len(*h) || (*h)[t.index] != t {
		return
	}
	heap.Remove(h, t.index)
}
