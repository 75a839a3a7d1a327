package zone

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
)

// minInterval bounds periodic timers so a zero interval cannot starve the loop.
const minInterval = time.Millisecond

// Scheduler is a single-threaded cooperative task queue: a FIFO of microtasks
// and a deadline-ordered heap of timers. Microtasks always run before the next
// timer fires.
//
// Everything except Submit and Dispatch must be called from the goroutine that
// drives the scheduler (the one calling Run, Advance or RunMicrotasks).
type Scheduler struct {
	clock Clock

	microtasks []func()
	timers     timerHeap
	seq        uint64

	mu       sync.Mutex
	external []func()
	wake     chan struct{}

	// goroutine id of the running loop, 0 when Run is not active
	loop atomic.Int64

	onPanic func(any)
}

func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock()
	}

	return &Scheduler{
		clock:      clock,
		microtasks: make([]func(), 0),
		wake:       make(chan struct{}, 1),
	}
}

func (s *Scheduler) Clock() Clock { return s.clock }

// OnPanic sets the handler for panics escaping untracked tasks.
// Without a handler such panics propagate to the driver of the scheduler.
func (s *Scheduler) OnPanic(fn func(any)) { s.onPanic = fn }

// PendingMicrotasks returns the number of queued microtasks.
func (s *Scheduler) PendingMicrotasks() int { return len(s.microtasks) }

// PendingTimers returns the number of queued timers.
func (s *Scheduler) PendingTimers() int { return len(s.timers) }

func (s *Scheduler) enqueueMicrotask(fn func()) {
	s.microtasks = append(s.microtasks, fn)
}

func (s *Scheduler) addTimer(fn func(), delay time.Duration, periodic bool) *Timer {
	if delay < 0 {
		delay = 0
	}
	if periodic && delay < minInterval {
		delay = minInterval
	}

	s.seq++
	t := &Timer{
		fn:       fn,
		delay:    delay,
		periodic: periodic,
		deadline: s.clock.Now().Add(delay),
		seq:      s.seq,
		index:    -1,
		sched:    s,
	}
	heap.Push(&s.timers, t)

	return t
}

func (s *Scheduler) removeTimer(t *Timer) {
	s.timers.remove(t)
}

// RunMicrotasks drains the microtask queue, including microtasks queued while
// draining. It returns how many ran.
func (s *Scheduler) RunMicrotasks() int {
	n := 0
	for len(s.microtasks) > 0 {
		task := s.microtasks[0]
		s.microtasks[0] = nil
		s.microtasks = s.microtasks[1:]

		s.invoke(task)
		n++
	}

	return n
}

// Advance moves a FakeClock forward by d, firing every timer that comes due in
// deadline order and draining microtasks after each one.
func (s *Scheduler) Advance(d time.Duration) {
	fc, ok := s.clock.(*FakeClock)
	if !ok {
		panic(ErrNotFakeClock)
	}
	target := fc.Now().Add(d)

	s.RunMicrotasks()
	for {
		t := s.timers.peek()
		if t == nil || t.deadline.After(target) {
			break
		}

		heap.Pop(&s.timers)
		fc.Set(t.deadline)
		s.fire(t)
		s.RunMicrotasks()
	}

	fc.Set(target)
}

func (s *Scheduler) runDue() {
	for {
		t := s.timers.peek()
		if t == nil || t.deadline.After(s.clock.Now()) {
			return
		}

		heap.Pop(&s.timers)
		s.fire(t)
		s.RunMicrotasks()
	}
}

func (s *Scheduler) fire(t *Timer) {
	if t.periodic {
		s.seq++
		t.seq = s.seq
		t.deadline = t.deadline.Add(t.delay)
		heap.Push(&s.timers, t)
	} else {
		defer t.finish()
	}

	s.invoke(t.fn)
}

func (s *Scheduler) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if s.onPanic == nil {
				panic(r)
			}
			s.onPanic(r)
		}
	}()

	fn()
}

// Submit queues fn as a macrotask. It is safe to call from any goroutine and
// wakes a running loop.
func (s *Scheduler) Submit(fn func()) {
	s.mu.Lock()
	s.external = append(s.external, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Dispatch runs fn right away when called from the loop goroutine or when no
// loop is running, and submits it to the loop otherwise.
func (s *Scheduler) Dispatch(fn func()) {
	if gid := s.loop.Load(); gid != 0 && gid != goid.Get() {
		s.Submit(fn)
		return
	}

	fn()
}

// OnLoop reports whether the caller is the goroutine running Run.
func (s *Scheduler) OnLoop() bool {
	return s.loop.Load() == goid.Get()
}

func (s *Scheduler) runExternal() bool {
	s.mu.Lock()
	tasks := s.external
	s.external = nil
	s.mu.Unlock()

	for _, task := range tasks {
		s.invoke(task)
		s.RunMicrotasks()
	}

	return len(tasks) > 0
}

func (s *Scheduler) hasExternal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.external) > 0
}

// Run drives the scheduler on the calling goroutine until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.loop.CompareAndSwap(0, goid.Get()) {
		return ErrLoopRunning
	}
	defer s.loop.Store(0)

	for {
		s.runExternal()
		s.RunMicrotasks()
		s.runDue()

		if err := ctx.Err(); err != nil {
			return err
		}
		if s.hasExternal() || len(s.microtasks) > 0 {
			continue
		}

		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		if next := s.timers.peek(); next != nil {
			wait := next.deadline.Sub(s.clock.Now())
			if wait <= 0 {
				continue
			}
			timer = time.NewTimer(wait)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
		case <-s.wake:
		case <-timerC:
		}

		if timer != nil {
			timer.Stop()
		}
	}
}
