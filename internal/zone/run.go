package zone

// Run executes fn inside t's inner context and returns its result.
func Run[R any](t *Tracker, fn func() R) R {
	var result R
	t.Run(func() { result = fn() })
	return result
}

func RunUnary[A, R any](t *Tracker, fn func(A) R, a A) R {
	var result R
	t.Run(func() { result = fn(a) })
	return result
}

func RunBinary[A, B, R any](t *Tracker, fn func(A, B) R, a A, b B) R {
	var result R
	t.Run(func() { result = fn(a, b) })
	return result
}

// RunOutside executes fn in t's outer context and returns its result.
func RunOutside[R any](t *Tracker, fn func() R) R {
	var result R
	t.RunOutside(func() { result = fn() })
	return result
}
