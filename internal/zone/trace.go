package zone

import (
	"fmt"
	"runtime"
	"strings"
)

const (
	maxTraceFrames = 32

	// LongTraceLimit caps how many scheduling snapshots a long trace keeps.
	LongTraceLimit = 10
)

// Frame is one resolved call site.
type Frame struct {
	Function string
	File     string
	Line     int
}

// Snapshot is a stack captured at one point in time.
type Snapshot struct {
	Frames []Frame
}

func (s Snapshot) String() string {
	var b strings.Builder
	for _, f := range s.Frames {
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
	}
	return b.String()
}

func captureSnapshot(skip int) Snapshot {
	var pcs [maxTraceFrames]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return Snapshot{}
	}

	frames := runtime.CallersFrames(pcs[:n])
	snap := Snapshot{Frames: make([]Frame, 0, n)}
	for {
		f, more := frames.Next()
		snap.Frames = append(snap.Frames, Frame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}

	return snap
}

// taskTrace is the chain of scheduling snapshots leading to a task, newest
// first. Only built when long stack traces are enabled.
type taskTrace struct {
	chain []Snapshot
}

func newTaskTrace(parent *taskTrace, skip int) *taskTrace {
	own := captureSnapshot(skip + 1)

	chain := make([]Snapshot, 0, LongTraceLimit)
	chain = append(chain, own)
	if parent != nil {
		rest := parent.chain
		if len(rest) > LongTraceLimit-1 {
			rest = rest[:LongTraceLimit-1]
		}
		chain = append(chain, rest...)
	}

	return &taskTrace{chain: chain}
}

// FormatTraces renders snapshots separated the way chained async traces are
// usually printed.
func FormatTraces(traces []Snapshot) string {
	parts := make([]string, len(traces))
	for i, s := range traces {
		parts[i] = s.String()
	}
	return strings.Join(parts, "----- scheduled from -----\n")
}
