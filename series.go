package robotloop

import (
	"fmt"
	"sync"
	"time"
)

// seriesElement is one retained slot of a Series.
type seriesElement[T any] struct {
	value       T
	timestampMS float64
	index       TimeIndex
}

// Series is a bounded history of at most capacity elements, keyed by a
// monotonically increasing TimeIndex. It is the synchronization substrate
// between a single producer and any number of readers: a read for an index
// that has not been produced yet blocks until it is, the series shuts down,
// or an optional timeout elapses.
//
// Algorithm: a ring buffer of capacity H keyed by index mod H, protected by
// one mutex and one condition variable. Append assigns the next index under
// lock, stores the element and its timestamp, and broadcasts to wake
// waiting readers. Eviction is implicit — an append simply overwrites the
// slot H indices behind it.
//
// Exactly one goroutine may call Append on a given Series at a time. Any
// number of goroutines may call the read methods concurrently.
type Series[T any] struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf       []seriesElement[T]
	nextIndex TimeIndex
	produced  bool
	shutdown  bool
}

// NewSeries creates a Series retaining at most capacity elements.
func NewSeries[T any](capacity int) *Series[T] {
	if capacity <= 0 {
		panic("robotloop: series capacity must be positive")
	}
	s := &Series[T]{
		buf: make([]seriesElement[T], capacity),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Capacity returns H, the maximum number of retained elements.
func (s *Series[T]) Capacity() int {
	return len(s.buf)
}

// Append assigns the next index to value, stamps it with the current
// wall-clock time, and wakes any reader blocked waiting for it. It fails
// with ErrShuttingDown if the series has already been signaled to shut
// down.
func (s *Series[T]) Append(value T) (TimeIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return 0, ErrShuttingDown
	}

	idx := s.nextIndex
	s.buf[int64(idx)%int64(len(s.buf))] = seriesElement[T]{
		value:       value,
		timestampMS: nowMS(),
		index:       idx,
	}
	s.nextIndex++
	s.produced = true
	s.cond.Broadcast()

	return idx, nil
}

// Get returns the element at index i, blocking indefinitely until it is
// produced or the series shuts down. It fails with ErrEvicted if i has
// already fallen out of the retained window.
func (s *Series[T]) Get(i TimeIndex) (T, error) {
	return s.getWithDeadline(i, time.Time{}, false)
}

// GetWithTimeout is like Get but gives up and returns ErrTimeout once
// timeout elapses without i becoming available.
func (s *Series[T]) GetWithTimeout(i TimeIndex, timeout time.Duration) (T, error) {
	return s.getWithDeadline(i, time.Now().Add(timeout), true)
}

// TryGet is the non-blocking form of Get: it returns ErrNotYetProduced
// immediately if i has not been appended yet, rather than waiting for it.
func (s *Series[T]) TryGet(i TimeIndex) (T, error) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown {
		return zero, ErrShuttingDown
	}
	if i >= s.nextIndex {
		return zero, ErrNotYetProduced
	}
	if i < s.oldestRetainedLocked() {
		return zero, ErrEvicted
	}
	return s.buf[int64(i)%int64(len(s.buf))].value, nil
}

// WaitForTimeIndex blocks until an element with index >= i exists, timeout
// elapses, or the series shuts down, and reports whether i became
// available. It does not itself return the element or distinguish an
// evicted index from a live one — callers that need the value should
// follow up with Get/TryGet.
func (s *Series[T]) WaitForTimeIndex(i TimeIndex, timeout time.Duration) bool {
	return s.waitLocked(i, time.Now().Add(timeout), true) == nil
}

// WaitForTimeIndexForever behaves like WaitForTimeIndex but never times
// out; it only returns once i has been produced or the series has shut
// down. The returned bool reports which of those happened.
func (s *Series[T]) WaitForTimeIndexForever(i TimeIndex) bool {
	return s.waitLocked(i, time.Time{}, false) == nil
}

// NewestIndex returns the index of the most recently appended element. The
// second return value is false before any element has been appended.
func (s *Series[T]) NewestIndex() (TimeIndex, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.produced {
		return 0, false
	}
	return s.nextIndex - 1, true
}

// NewestElement returns the value of the most recently appended element.
// It fails with ErrEmpty if nothing has been appended yet.
func (s *Series[T]) NewestElement() (T, error) {
	var zero T

	idx, ok := s.NewestIndex()
	if !ok {
		return zero, ErrEmpty
	}
	return s.TryGet(idx)
}

// TimestampMS returns the wall-clock time, in milliseconds, at which the
// element at index i was appended.
func (s *Series[T]) TimestampMS(i TimeIndex) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i >= s.nextIndex {
		return 0, ErrNotYetProduced
	}
	if i < s.oldestRetainedLocked() {
		return 0, ErrEvicted
	}
	return s.buf[int64(i)%int64(len(s.buf))].timestampMS, nil
}

// Shutdown signals the series to stop accepting appends and wakes every
// reader blocked on a future index. It is idempotent.
func (s *Series[T]) Shutdown() {
	s.mu.Lock()
	s.shutdown = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// IsShutdown reports whether Shutdown has been called.
func (s *Series[T]) IsShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

func (s *Series[T]) getWithDeadline(i TimeIndex, deadline time.Time, hasDeadline bool) (T, error) {
	var zero T

	if i < 0 {
		return zero, fmt.Errorf("robotloop: negative time index %d", i)
	}
	if err := s.waitLocked(i, deadline, hasDeadline); err != nil {
		return zero, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i < s.oldestRetainedLocked() {
		return zero, ErrEvicted
	}
	return s.buf[int64(i)%int64(len(s.buf))].value, nil
}

// waitLocked blocks until index i has been produced, the series shuts
// down, or (if hasDeadline) deadline passes. It does not check eviction —
// callers needing the value re-check the window themselves after this
// returns, since more appends may have landed between unlocking here and
// re-locking there.
func (s *Series[T]) waitLocked(i TimeIndex, deadline time.Time, hasDeadline bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var timer *time.Timer
	if hasDeadline {
		d := time.Until(deadline)
		if d < 0 {
			d = 0
		}
		// sync.Cond has no timed wait; a one-shot timer that re-broadcasts
		// lets every waiter re-check its own deadline after being woken.
		timer = time.AfterFunc(d, func() {
			s.mu.Lock()
			s.cond.Broadcast()
			s.mu.Unlock()
		})
		defer timer.Stop()
	}

	for {
		if s.shutdown {
			return ErrShuttingDown
		}
		if i < s.nextIndex {
			return nil
		}
		if hasDeadline && !time.Now().Before(deadline) {
			return ErrTimeout
		}
		s.cond.Wait()
	}
}

// oldestRetainedLocked returns the oldest index still retained in the
// buffer. Callers must hold s.mu.
func (s *Series[T]) oldestRetainedLocked() TimeIndex {
	h := TimeIndex(len(s.buf))
	if s.nextIndex <= h {
		return 0
	}
	return s.nextIndex - h
}

func nowMS() float64 {
	return float64(time.Now().UnixNano()) / 1e6
}
