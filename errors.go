package robotloop

import "errors"

// Sentinel errors returned by Series and the types built on top of it.
var (
	// ErrShuttingDown is returned by Append and the blocking read methods
	// once a series has been signaled to shut down.
	ErrShuttingDown = errors.New("robotloop: series is shutting down")

	// ErrEvicted is returned when the requested time index fell out of the
	// retained window (older than newest_index - H + 1).
	ErrEvicted = errors.New("robotloop: time index has been evicted")

	// ErrEmpty is returned by NewestElement before any element has been
	// appended.
	ErrEmpty = errors.New("robotloop: series has no elements yet")

	// ErrNotYetProduced is returned by the non-blocking read form when the
	// requested index has not been appended yet.
	ErrNotYetProduced = errors.New("robotloop: time index has not been produced yet")

	// ErrTimeout is returned by the blocking read forms that accept a
	// timeout once it elapses without the index becoming available.
	ErrTimeout = errors.New("robotloop: timed out waiting for time index")
)
