package robotloop

// Driver is the abstract hardware contract a Backend consumes. Every
// method is synchronous and is called from the backend's own goroutine
// only — a Driver is exclusively owned by its Backend for the lifetime of
// the loop.
type Driver[Action, Observation any] interface {
	// Initialize performs one-shot setup. It may block. It is called
	// directly by Backend.Initialize, before the loop goroutine makes any
	// use of the driver, and any error it returns is propagated to the
	// caller rather than swallowed.
	Initialize() error

	// GetLatestObservation returns a non-destructive read of the most
	// recent sensor snapshot. It must return quickly relative to the loop
	// period.
	GetLatestObservation() Observation

	// ApplyAction sends desired to the hardware and returns the action
	// actually applied, which may differ from desired due to clamping or
	// other safety limits.
	ApplyAction(desired Action) Action

	// GetError returns a non-empty string to report a fatal condition for
	// the current tick. An empty string means no error.
	GetError() string

	// Shutdown places the hardware in a safe state. It is called exactly
	// once, when the backend loop exits.
	Shutdown() error
}
