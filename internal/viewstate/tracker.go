// Package viewstate tracks the loading state of a dashboard panel.
package viewstate

import "sync"

// Phase is where a panel's fetch currently stands.
type Phase int

const (
	NotRequested Phase = iota
	InFlight
	Resolved
)

func (p Phase) String() string {
	switch p {
	case NotRequested:
		return "not-requested"
	case InFlight:
		return "in-flight"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// Token identifies one fetch. Only the token returned by the latest Begin
// may resolve the tracker.
type Token uint64

// Snapshot is a consistent read of a Tracker.
type Snapshot[T any] struct {
	Phase Phase
	Value T
	Err   error
}

// Loading reports whether a fetch is outstanding.
func (s Snapshot[T]) Loading() bool { return s.Phase == InFlight }

// Failed reports whether the last fetch resolved with an error.
func (s Snapshot[T]) Failed() bool { return s.Phase == Resolved && s.Err != nil }

// Tracker holds the tri-state result of a panel fetch. A zero Tracker is
// ready to use and starts NotRequested.
type Tracker[T any] struct {
	mu      sync.Mutex
	current Token
	phase   Phase
	value   T
	err     error
}

// Begin starts a new fetch and returns its token. Any earlier token
// becomes stale. The previous value is kept until the new one resolves.
func (t *Tracker[T]) Begin() Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current++
	t.phase = InFlight
	return t.current
}

// Resolve records the outcome of the fetch identified by tok. It returns
// false and changes nothing when tok is stale or the tracker is not waiting.
func (t *Tracker[T]) Resolve(tok Token, v T, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tok != t.current || t.phase != InFlight {
		return false
	}
	t.phase = Resolved
	if err != nil {
		var zero T
		t.value, t.err = zero, err
		return true
	}
	t.value, t.err = v, nil
	return true
}

// Reset drops any value and invalidates outstanding fetches. Used when the
// identity behind the panel changes.
func (t *Tracker[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	t.current++
	t.phase = NotRequested
	t.value, t.err = zero, nil
}

// Update replaces a resolved value in place, e.g. after a successful write.
// It is a no-op unless the tracker holds a value.
func (t *Tracker[T]) Update(fn func(T) T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase != Resolved || t.err != nil {
		return false
	}
	t.value = fn(t.value)
	return true
}

func (t *Tracker[T]) Snapshot() Snapshot[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot[T]{Phase: t.phase, Value: t.value, Err: t.err}
}
