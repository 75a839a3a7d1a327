package zone

import (
	"cmp"
	"slices"
	"time"

	"github.com/AnatoleLucet/turn/internal/logging"
	"github.com/charmbracelet/log"
)

type Options struct {
	// EnableLongStackTrace chains the scheduling stacks of tasks so errors
	// report where the failing work was queued from. Costly, diagnostic only.
	EnableLongStackTrace bool

	// Logger receives turn boundaries at debug level and intercepted errors.
	// Defaults to a discarding logger.
	Logger *log.Logger

	// Scheduler to run on. When nil a new one is created on Clock.
	Scheduler *Scheduler
	Clock     Clock
}

// State is the turn state of a tracker.
type State int

const (
	StateStable State = iota
	StateInTurn
	StateDrainingMicrotasks
)

func (s State) String() string {
	switch s {
	case StateStable:
		return "stable"
	case StateInTurn:
		return "in-turn"
	case StateDrainingMicrotasks:
		return "draining-microtasks"
	default:
		return "unknown"
	}
}

// TurnEvent is emitted on turn boundaries. Turn numbers start at 1.
type TurnEvent struct {
	Turn uint64
}

// ErrorEvent reports an error raised inside the inner context.
// Traces holds the stack at the failure, followed by the scheduling chain of
// the failing task when long stack traces are enabled.
type ErrorEvent struct {
	Err    error
	Traces []Snapshot
	Turn   uint64
}

// Tracker tracks the work running in its inner context and emits turn
// boundaries. A turn starts when tracked code begins executing while the
// tracker is stable and ends once nesting is back to zero and no tracked
// microtask is pending.
//
// A Tracker is not safe for concurrent use: all calls must come from the
// goroutine driving its scheduler.
type Tracker struct {
	sched *Scheduler
	inner *Context
	outer *Context

	// depth of tracked synchronous executions on the stack
	nesting int

	pendingMicrotasks    int
	pendingTimers        map[*Timer]struct{}
	hasPendingMacrotasks bool

	stable       bool
	running      bool
	emittingDone bool
	disposed     bool
	turn         uint64

	longTraces bool
	log        *log.Logger

	onTurnStart      Emitter[TurnEvent]
	onMicrotaskEmpty Emitter[TurnEvent]
	onTurnDone       Emitter[TurnEvent]
	onError          Emitter[ErrorEvent]
}

func New(opts Options) *Tracker {
	sched := opts.Scheduler
	if sched == nil {
		sched = NewScheduler(opts.Clock)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	t := &Tracker{
		sched:         sched,
		pendingTimers: make(map[*Timer]struct{}),
		stable:        true,
		longTraces:    opts.EnableLongStackTrace,
		log:           logger,
	}
	t.inner = &Context{name: "inner", sched: sched, tracker: t}
	t.outer = &Context{name: "outer", sched: sched}

	return t
}

// Inner returns the tracked context.
func (t *Tracker) Inner() *Context { return t.inner }

// Outer returns the untracked context sharing the tracker's scheduler.
func (t *Tracker) Outer() *Context { return t.outer }

func (t *Tracker) Scheduler() *Scheduler { return t.sched }

func (t *Tracker) OnTurnStart() *Emitter[TurnEvent] { return &t.onTurnStart }

// OnMicrotaskEmpty fires each time the tracked microtask queue drains while no
// tracked code runs. It can fire several times within one turn.
func (t *Tracker) OnMicrotaskEmpty() *Emitter[TurnEvent] { return &t.onMicrotaskEmpty }

// OnTurnDone fires once per turn, from the outer context.
func (t *Tracker) OnTurnDone() *Emitter[TurnEvent] { return &t.onTurnDone }

func (t *Tracker) OnError() *Emitter[ErrorEvent] { return &t.onError }

// Run executes fn in the inner context. Panics propagate to the caller once
// the tracker's bookkeeping has been restored.
func (t *Tracker) Run(fn func()) {
	t.enter()
	defer t.leave()

	t.inner.enter(t.currentTrace(), fn)
}

// RunGuarded executes fn in the inner context and reports a returned error or
// a panic through OnError instead of the caller.
func (t *Tracker) RunGuarded(fn func() error) {
	trace := t.currentTrace()

	t.enter()
	defer t.leave()
	defer t.recoverTask(trace)

	var err error
	t.inner.enter(trace, func() { err = fn() })

	if err != nil {
		t.handleError(err, t.traces(trace, 0))
	}
}

// RunOutside executes fn in the outer context. Nothing fn schedules through
// the outer context is counted by the tracker.
func (t *Tracker) RunOutside(fn func()) {
	t.outer.enter(nil, fn)
}

// Dispatch runs fn on the scheduler's goroutine, see Scheduler.Dispatch.
func (t *Tracker) Dispatch(fn func()) { t.sched.Dispatch(fn) }

// Dispose stops turn event delivery. Bookkeeping carries on silently and
// errors are still reported. Calling Dispose again is a no-op.
func (t *Tracker) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true

	t.log.Debug("zone disposed", "turn", t.turn)
}

func (t *Tracker) Disposed() bool { return t.disposed }

// IsInInnerZone reports whether the calling goroutine is executing inside this
// tracker's inner context.
func (t *Tracker) IsInInnerZone() bool {
	f := currentFrame()
	return f != nil && f.ctx == t.inner
}

// IsStable reports whether no turn is in progress and no tracked microtask is
// waiting to run.
func (t *Tracker) IsStable() bool {
	return t.stable && t.nesting == 0 && t.pendingMicrotasks == 0 && !t.emittingDone
}

// IsTurnRunning reports whether a turn-start was emitted without its turn-done yet.
func (t *Tracker) IsTurnRunning() bool { return t.running }

func (t *Tracker) HasPendingMicrotasks() bool { return t.pendingMicrotasks > 0 }

func (t *Tracker) HasPendingMacrotasks() bool { return t.hasPendingMacrotasks }

func (t *Tracker) State() State {
	switch {
	case t.nesting > 0:
		return StateInTurn
	case t.IsStable():
		return StateStable
	default:
		return StateDrainingMicrotasks
	}
}

func (t *Tracker) Nesting() int { return t.nesting }

// Turn returns the number of the current or last turn.
func (t *Tracker) Turn() uint64 { return t.turn }

// PendingTimers returns the tracked timers in scheduling order.
func (t *Tracker) PendingTimers() []*Timer {
	timers := make([]*Timer, 0, len(t.pendingTimers))
	for tm := range t.pendingTimers {
		timers = append(timers, tm)
	}
	slices.SortFunc(timers, func(a, b *Timer) int { return cmp.Compare(a.seq, b.seq) })

	return timers
}

func (t *Tracker) enter() {
	t.nesting++
	if t.stable {
		t.stable = false
		t.startTurn()
	}
}

func (t *Tracker) leave() {
	t.nesting--
	t.checkStable()
}

func (t *Tracker) startTurn() {
	t.running = true
	t.turn++
	t.log.Debug("turn start", "turn", t.turn)

	if !t.disposed {
		t.onTurnStart.emit(TurnEvent{Turn: t.turn})
	}
}

func (t *Tracker) checkStable() {
	if t.nesting != 0 || t.pendingMicrotasks != 0 || t.stable || t.emittingDone {
		return
	}

	// runs even when a microtask-empty handler panics, so the turn still closes
	defer func() {
		// handlers may have queued more microtasks, the turn goes on until they drain
		if t.pendingMicrotasks == 0 {
			t.emitTurnDone()
		}
	}()

	t.emitMicrotaskEmpty()
}

func (t *Tracker) emitMicrotaskEmpty() {
	t.nesting++
	defer func() { t.nesting-- }()

	if t.disposed {
		return
	}
	t.inner.enter(nil, func() { t.onMicrotaskEmpty.emit(TurnEvent{Turn: t.turn}) })
}

func (t *Tracker) emitTurnDone() {
	t.emittingDone = true
	defer func() {
		t.emittingDone = false
		t.stable = true
		t.running = false

		// work queued by turn-done handlers belongs to a fresh turn
		if t.pendingMicrotasks > 0 {
			t.stable = false
			t.startTurn()
		}
	}()

	t.log.Debug("turn done", "turn", t.turn)
	if t.disposed {
		return
	}
	t.RunOutside(func() { t.onTurnDone.emit(TurnEvent{Turn: t.turn}) })
}

func (t *Tracker) scheduleMicrotask(fn func()) {
	trace := t.newTaskTrace()
	t.pendingMicrotasks++

	t.sched.enqueueMicrotask(func() {
		t.invokeTask(trace, fn, func() {
			t.pendingMicrotasks--
			if t.pendingMicrotasks == 0 {
				t.checkStable()
			}
		})
	})
}

func (t *Tracker) scheduleTimer(fn func(), d time.Duration, periodic bool) *Timer {
	trace := t.newTaskTrace()

	var tm *Timer
	tm = t.sched.addTimer(func() {
		t.invokeTask(trace, fn, func() {
			if !tm.periodic {
				tm.finish()
			}
		})
	}, d, periodic)

	tm.release = t.releaseTimer
	t.pendingTimers[tm] = struct{}{}
	t.updateMacrotasks()

	return tm
}

func (t *Tracker) releaseTimer(tm *Timer) {
	delete(t.pendingTimers, tm)
	t.updateMacrotasks()
}

func (t *Tracker) updateMacrotasks() {
	has := len(t.pendingTimers) > 0
	if has == t.hasPendingMacrotasks {
		return
	}

	t.hasPendingMacrotasks = has
	t.log.Debug("macrotasks pending changed", "pending", has)
}

func (t *Tracker) invokeTask(trace *taskTrace, fn, after func()) {
	t.enter()
	defer t.leave()
	defer after()
	defer t.recoverTask(trace)

	t.inner.enter(trace, fn)
}

func (t *Tracker) recoverTask(trace *taskTrace) {
	if r := recover(); r != nil {
		t.handleError(asError(r), t.traces(trace, 1))
	}
}

func (t *Tracker) handleError(err error, traces []Snapshot) {
	t.log.Error("uncaught error in zone", "err", err, "turn", t.turn)
	t.onError.emit(ErrorEvent{Err: err, Traces: traces, Turn: t.turn})
}

func (t *Tracker) traces(trace *taskTrace, skip int) []Snapshot {
	traces := []Snapshot{captureSnapshot(skip + 1)}
	if t.longTraces && trace != nil {
		traces = append(traces, trace.chain...)
	}
	return traces
}

func (t *Tracker) currentTrace() *taskTrace {
	if !t.longTraces {
		return nil
	}
	if f := currentFrame(); f != nil {
		return f.trace
	}
	return nil
}

func (t *Tracker) newTaskTrace() *taskTrace {
	if !t.longTraces {
		return nil
	}
	return newTaskTrace(t.currentTrace(), 2)
}
