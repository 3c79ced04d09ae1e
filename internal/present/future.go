package present

import "github.com/cockroachdb/errors"

// Future signals the completion of previously submitted GPU work.
type Future interface {
	// Wait blocks until the work has completed.
	Wait() error
	// Ready reports whether the work has completed without blocking.
	Ready() bool
}

type completed struct{}

func (completed) Wait() error { return nil }
func (completed) Ready() bool { return true }

// Now returns a future that has already completed. It stands in for the
// in-flight frame whenever a frame is dropped.
func Now() Future {
	return completed{}
}

type joined struct {
	a, b Future
}

// Join returns a future that completes once both a and b have completed.
// Completed or nil operands are elided.
func Join(a, b Future) Future {
	switch {
	case isDone(a) && isDone(b):
		return Now()
	case isDone(a):
		return b
	case isDone(b):
		return a
	}
	return joined{a: a, b: b}
}

func isDone(f Future) bool {
	if f == nil {
		return true
	}
	_, ok := f.(completed)
	return ok
}

func (j joined) Wait() error {
	errA := j.a.Wait()
	errB := j.b.Wait()
	return errors.CombineErrors(errA, errB)
}

func (j joined) Ready() bool {
	return j.a.Ready() && j.b.Ready()
}

// Flatten returns the non-completed leaves of f in join order. Backends use
// it to turn a dependency tree into wait lists.
func Flatten(f Future) []Future {
	if isDone(f) {
		return nil
	}
	if j, ok := f.(joined); ok {
		return append(Flatten(j.a), Flatten(j.b)...)
	}
	return []Future{f}
}
