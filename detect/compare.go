package detect

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"reflect"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var ErrIncompatibleTypes = errors.New("detect: comparison between incompatible types")

// ComparisonError is reported by DebugNotIdentical when an input changes its
// dynamic type between two checks.
type ComparisonError struct {
	Input        string
	PreviousType string
	CurrentType  string
}

func (e *ComparisonError) Error() string {
	return fmt.Sprintf("detect: input %q compared %s against %s", e.Input, e.PreviousType, e.CurrentType)
}

func (e *ComparisonError) Is(target error) bool {
	return target == ErrIncompatibleTypes
}

var diagnostics atomic.Pointer[func(error)]

// SetDiagnostics replaces the hook receiving debug comparison reports and
// returns a function restoring the previous one. A nil hook restores the
// default, which logs a warning.
func SetDiagnostics(fn func(error)) (restore func()) {
	var next *func(error)
	if fn != nil {
		next = &fn
	}

	prev := diagnostics.Swap(next)
	return func() { diagnostics.Store(prev) }
}

func report(err error) {
	if fn := diagnostics.Load(); fn != nil {
		(*fn)(err)
		return
	}
	log.Warn("change detection diagnostic", "err", err)
}

// LooseIdentical is the release comparison: values of the same dynamic type
// compared with ==, NaN equal to itself, and reference identity for slices,
// maps and channels. Function values never compare identical.
func LooseIdentical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	if va.Comparable() && vb.Comparable() {
		return a == b || (isNaN(va) && isNaN(vb))
	}

	switch va.Kind() {
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map, reflect.Chan:
		return va.Pointer() == vb.Pointer()
	default:
		return false
	}
}

// DebugNotIdentical is the development comparison. It reports whether the
// input changed and, when the two values disagree on their dynamic type,
// sends a *ComparisonError to the diagnostics hook.
func DebugNotIdentical(input string, previous, current any) bool {
	changed := !LooseIdentical(previous, current)

	if changed && previous != nil && current != nil {
		pt, ct := reflect.TypeOf(previous), reflect.TypeOf(current)
		if pt != ct {
			report(&ComparisonError{Input: input, PreviousType: pt.String(), CurrentType: ct.String()})
		}
	}

	return changed
}

func isNaN(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(v.Float())
	case reflect.Complex64, reflect.Complex128:
		return cmplx.IsNaN(v.Complex())
	default:
		return false
	}
}
