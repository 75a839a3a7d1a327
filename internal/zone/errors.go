package zone

import (
	"errors"
	"fmt"
)

var (
	ErrLoopRunning  = errors.New("zone: scheduler loop already running")
	ErrNotFakeClock = errors.New("zone: Advance requires a FakeClock")
)

// PanicError carries a recovered panic value that was not itself an error.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("zone: panic: %v", e.Value)
}

func asError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &PanicError{Value: r}
}
