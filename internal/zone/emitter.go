package zone

import "slices"

// Emitter delivers values synchronously to its subscribers, in subscription
// order. Subscribing or unsubscribing during an emission affects the next one.
type Emitter[T any] struct {
	subs []*subscription[T]
}

type subscription[T any] struct {
	fn func(T)
}

// Subscribe registers fn and returns a function removing it.
func (e *Emitter[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	sub := &subscription[T]{fn: fn}
	e.subs = append(e.subs, sub)

	return func() {
		if i := slices.Index(e.subs, sub); i >= 0 {
			e.subs = slices.Delete(slices.Clone(e.subs), i, i+1)
		}
	}
}

// Len returns the number of subscribers.
func (e *Emitter[T]) Len() int { return len(e.subs) }

func (e *Emitter[T]) emit(v T) {
	for _, sub := range e.subs {
		sub.fn(v)
	}
}
