package zone

import (
	"sync"
	"time"

	"github.com/petermattis/goid"
)

// Context is an execution context that work is scheduled into explicitly.
// A tracker's inner context counts its tasks towards the tracker's turn state;
// its outer context shares the scheduler but is invisible to the tracker.
type Context struct {
	name    string
	sched   *Scheduler
	tracker *Tracker
}

func (c *Context) Name() string { return c.name }

// Tracked reports whether tasks scheduled here are counted by a tracker.
func (c *Context) Tracked() bool { return c.tracker != nil }

func (c *Context) Scheduler() *Scheduler { return c.sched }

// ScheduleMicrotask queues fn to run after the current synchronous work unwinds.
func (c *Context) ScheduleMicrotask(fn func()) {
	if c.tracker != nil {
		c.tracker.scheduleMicrotask(fn)
		return
	}

	c.sched.enqueueMicrotask(func() { c.enter(nil, fn) })
}

// SetTimeout runs fn once after d.
func (c *Context) SetTimeout(fn func(), d time.Duration) *Timer {
	if c.tracker != nil {
		return c.tracker.scheduleTimer(fn, d, false)
	}

	return c.sched.addTimer(func() { c.enter(nil, fn) }, d, false)
}

// SetInterval runs fn every d until the returned timer is canceled.
func (c *Context) SetInterval(fn func(), d time.Duration) *Timer {
	if c.tracker != nil {
		return c.tracker.scheduleTimer(fn, d, true)
	}

	return c.sched.addTimer(func() { c.enter(nil, fn) }, d, true)
}

// frames holds the context executing on each goroutine.
var frames sync.Map // goroutine id -> *frame

type frame struct {
	ctx   *Context
	trace *taskTrace
}

func currentFrame() *frame {
	if f, ok := frames.Load(goid.Get()); ok {
		return f.(*frame)
	}
	return nil
}

// Current returns the context executing on the calling goroutine, or nil when
// the goroutine is not running inside any context.
func Current() *Context {
	if f := currentFrame(); f != nil {
		return f.ctx
	}
	return nil
}

func (c *Context) enter(trace *taskTrace, fn func()) {
	gid := goid.Get()

	prev, had := frames.Load(gid)
	frames.Store(gid, &frame{ctx: c, trace: trace})
	defer func() {
		if had {
			frames.Store(gid, prev)
		} else {
			frames.Delete(gid)
		}
	}()

	fn()
}
