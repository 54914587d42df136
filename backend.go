package robotloop

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// State is one of the backend loop's lifecycle stages.
type State int32

const (
	StateStarting State = iota
	StateAwaitingFirstAction
	StateRunning
	StateDraining
	StateStopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateAwaitingFirstAction:
		return "awaiting_first_action"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ExitReason distinguishes why the backend loop drained, for callers that
// want to branch on a clean stop without pattern-matching Status error
// strings. It is purely additive: the underlying Status values appended to
// the bundle are unaffected by this.
type ExitReason int32

const (
	ExitNone ExitReason = iota
	ExitFirstActionTimeout
	ExitMaxActionsReached
	ExitDeadlineMissed
	ExitDriverError
	ExitShutdownRequested
)

// String implements fmt.Stringer.
func (r ExitReason) String() string {
	switch r {
	case ExitNone:
		return "none"
	case ExitFirstActionTimeout:
		return "first_action_timeout"
	case ExitMaxActionsReached:
		return "max_actions_reached"
	case ExitDeadlineMissed:
		return "deadline_missed"
	case ExitDriverError:
		return "driver_error"
	case ExitShutdownRequested:
		return "shutdown_requested"
	default:
		return "unknown"
	}
}

const (
	backendErrFirstActionTimeout = "First action was not provided in time"
	backendErrMaxActionsReached  = "Maximum number of actions reached."
	backendErrDeadlineMissed     = "Next action was not provided in time"

	// shutdownPollInterval is how often the loop re-checks for a shutdown
	// request while it would otherwise block waiting on a future index.
	shutdownPollInterval = 100 * time.Millisecond

	// NoFirstActionTimeout disables the first-action deadline check. It is
	// negative so it is distinguishable from the zero-duration boundary
	// case, where the backend fails at its first deadline check if no
	// action has arrived by then.
	NoFirstActionTimeout time.Duration = -1
)

// Options configures a Backend. The zero value is not directly usable as
// real-time mode vs. blocking mode needs an explicit choice; use
// DefaultOptions as a starting point.
type Options struct {
	// RealTimeMode enables deadline checking: if the next desired action
	// is not available when a tick starts, the backend repeats the
	// previous action (up to MaxActionRepetitions) or fails. If false, the
	// backend blocks indefinitely for each action instead.
	RealTimeMode bool

	// FirstActionTimeout bounds how long the backend waits, after
	// starting, for the user to append the first desired action (index
	// 0). Zero is a meaningful boundary value, not a sentinel; use
	// NoFirstActionTimeout to disable the check entirely. The deadline is
	// checked after each shutdown-poll interval (100ms) spent waiting, so
	// an action appended within the first interval is accepted even with a
	// zero timeout, and a non-zero timeout fires at the first check past it.
	FirstActionTimeout time.Duration

	// MaxNumberOfActions, if non-zero, causes the backend to stop cleanly
	// (modeled as a BackendError status, see ExitMaxActionsReached) once
	// that many ticks have been reached.
	MaxNumberOfActions uint32
}

// DefaultOptions returns the backend's default construction parameters:
// real-time mode enabled, no first-action timeout, no action limit.
func DefaultOptions() Options {
	return Options{
		RealTimeMode:       true,
		FirstActionTimeout: NoFirstActionTimeout,
		MaxNumberOfActions: 0,
	}
}

// Backend is the real-time-scheduled state machine that couples a Driver
// to a RobotData bundle. Construction spawns its own goroutine and marks
// the loop running; Close (or RequestShutdown + WaitUntilTerminated)
// requests a cooperative stop and waits for the goroutine to exit.
// Re-initialization is not supported — construct a new Backend to restart.
type Backend[Action, Observation any] struct {
	driver Driver[Action, Observation]
	data   *RobotData[Action, Observation]

	realTimeMode        bool
	firstActionTimeout  time.Duration
	maxNumberOfActions  uint32
	maxActionRepetitions atomic.Uint32

	shutdownRequested atomic.Bool
	state             atomic.Int32
	loopRunning       atomic.Bool
	exitReason        atomic.Int32
	tickCount         atomic.Int64
	lastTickNanos     atomic.Int64

	sessionID  string
	lastTiming atomic.Value // TickTimings
	done       chan struct{}
}

// TickTimings breaks a single tick down by phase, the same checkpoints the
// original backend loop instruments internally before logging percentile
// statistics: how long it took to read the observation, publish it, run the
// real-time-mode deadline check, fetch the desired action once it is
// available, apply it, and publish the applied action. It does not include
// time spent blocked waiting for a desired action to arrive — that is
// external latency, not loop work.
type TickTimings struct {
	GetObservation    time.Duration
	AppendObservation time.Duration
	CheckDeadline     time.Duration
	GetAction         time.Duration
	ApplyAction       time.Duration
	AppendApplied     time.Duration
}

// NewBackend constructs a Backend and immediately starts its loop
// goroutine. Call Initialize before appending any desired action so the
// driver has a chance to perform one-shot setup.
func NewBackend[Action, Observation any](driver Driver[Action, Observation], data *RobotData[Action, Observation], opts Options) *Backend[Action, Observation] {
	installSignalLatch()

	b := &Backend[Action, Observation]{
		driver:             driver,
		data:               data,
		realTimeMode:       opts.RealTimeMode,
		firstActionTimeout: opts.FirstActionTimeout,
		maxNumberOfActions: opts.MaxNumberOfActions,
		sessionID:          uuid.New().String(),
		done:               make(chan struct{}),
	}
	b.state.Store(int32(StateStarting))
	b.loopRunning.Store(true)

	go b.run()

	return b
}

// Initialize delegates to the driver's own Initialize. It is a direct,
// synchronous call from the caller's goroutine — any error is returned
// as-is, not swallowed.
func (b *Backend[Action, Observation]) Initialize() error {
	return b.driver.Initialize()
}

// SetMaxActionRepetitions configures how many times the backend repeats
// the previous desired action, in real-time mode, before it gives up and
// reports a deadline miss. The default is 0 (no repetition).
func (b *Backend[Action, Observation]) SetMaxActionRepetitions(n uint32) {
	b.maxActionRepetitions.Store(n)
}

// MaxActionRepetitions returns the currently configured repetition limit.
func (b *Backend[Action, Observation]) MaxActionRepetitions() uint32 {
	return b.maxActionRepetitions.Load()
}

// RequestShutdown asks the loop to stop at its next opportunity. It is
// idempotent and safe to call from any goroutine.
func (b *Backend[Action, Observation]) RequestShutdown() {
	b.shutdownRequested.Store(true)
}

// WaitUntilTerminated blocks until the loop goroutine has exited and the
// driver's Shutdown has returned.
func (b *Backend[Action, Observation]) WaitUntilTerminated() {
	<-b.done
}

// Close requests shutdown and waits for termination, for use with defer.
func (b *Backend[Action, Observation]) Close() error {
	b.RequestShutdown()
	b.WaitUntilTerminated()
	return nil
}

// State returns the loop's current lifecycle stage.
func (b *Backend[Action, Observation]) State() State {
	return State(b.state.Load())
}

// LoopRunning reports whether the loop goroutine is still running.
func (b *Backend[Action, Observation]) LoopRunning() bool {
	return b.loopRunning.Load()
}

// ExitReason reports why the loop drained. It is ExitNone while the loop
// is still running.
func (b *Backend[Action, Observation]) ExitReason() ExitReason {
	return ExitReason(b.exitReason.Load())
}

// Stats is a snapshot of the backend's tick-timing instrumentation.
type Stats struct {
	TickCount        int64
	LastTickDuration time.Duration
	LastTickTimings  TickTimings
}

// Stats returns a snapshot of the backend's own operational counters.
func (b *Backend[Action, Observation]) Stats() Stats {
	timings, _ := b.lastTiming.Load().(TickTimings)
	return Stats{
		TickCount:        b.tickCount.Load(),
		LastTickDuration: time.Duration(b.lastTickNanos.Load()),
		LastTickTimings:  timings,
	}
}

func (b *Backend[Action, Observation]) hasShutdownRequest() bool {
	return b.shutdownRequested.Load() || Interrupted()
}

func (b *Backend[Action, Observation]) setState(s State) {
	b.state.Store(int32(s))
}

// run is the backend's control loop. It owns the driver exclusively for
// its entire lifetime.
func (b *Backend[Action, Observation]) run() {
	start := time.Now()
	b.setState(StateAwaitingFirstAction)

	for {
		if b.hasShutdownRequest() {
			b.drain(ExitShutdownRequested)
			return
		}
		if b.data.DesiredAction.WaitForTimeIndex(0, shutdownPollInterval) {
			break
		}
		if b.firstActionTimeout >= 0 && time.Since(start) >= b.firstActionTimeout {
			status := Status{}
			status.SetError(ErrorBackend, backendErrFirstActionTimeout)
			b.data.Status.Append(status)
			slog.Error("robotloop: first action was not provided in time",
				"session", b.sessionID, "timeout", b.firstActionTimeout)
			b.drain(ExitFirstActionTimeout)
			return
		}
	}

	b.setState(StateRunning)
	b.runTicks()
}

func (b *Backend[Action, Observation]) runTicks() {
	for t := TimeIndex(0); ; t++ {
		if b.hasShutdownRequest() {
			b.drain(ExitShutdownRequested)
			return
		}

		tickStart := time.Now()
		status := Status{}
		var timings TickTimings

		if b.maxNumberOfActions > 0 && t >= TimeIndex(b.maxNumberOfActions) {
			// Semantically a clean stop, represented as an error so there
			// is a single exit path through Draining.
			status.SetError(ErrorBackend, backendErrMaxActionsReached)
		}

		phase := time.Now()
		observation := b.driver.GetLatestObservation()
		timings.GetObservation = time.Since(phase)

		phase = time.Now()
		b.data.Observation.Append(observation)
		timings.AppendObservation = time.Since(phase)

		if b.realTimeMode {
			phase = time.Now()
			b.checkDeadline(t, &status)
			timings.CheckDeadline = time.Since(phase)
		}

		if msg := b.driver.GetError(); msg != "" {
			status.SetError(ErrorDriver, msg)
		}

		b.data.Status.Append(status)
		b.recordTick(t, tickStart)

		if !status.OK() {
			slog.Error("robotloop: tick failed, draining",
				"session", b.sessionID, "tick", int64(t),
				"error_kind", status.ErrorStatus.String(), "error", status.ErrorMessage)
			b.drain(exitReasonFor(status))
			return
		}

		if b.hasShutdownRequest() {
			b.drain(ExitShutdownRequested)
			return
		}
		for !b.data.DesiredAction.WaitForTimeIndex(t, shutdownPollInterval) {
			if b.hasShutdownRequest() {
				b.drain(ExitShutdownRequested)
				return
			}
		}

		phase = time.Now()
		desired, err := b.data.DesiredAction.Get(t)
		timings.GetAction = time.Since(phase)
		if err != nil {
			// Reachable if the series shut down concurrently, or if index t
			// was already evicted because more than H desired actions were
			// appended ahead of the loop.
			b.drain(ExitShutdownRequested)
			return
		}

		phase = time.Now()
		applied := b.driver.ApplyAction(desired)
		timings.ApplyAction = time.Since(phase)

		phase = time.Now()
		b.data.AppliedAction.Append(applied)
		timings.AppendApplied = time.Since(phase)

		b.lastTiming.Store(timings)
	}
}

// checkDeadline implements the real-time-mode repetition/error policy: if
// no new desired action is in place for tick t, either repeat the most
// recent one (up to the configured limit) or fail the tick.
func (b *Backend[Action, Observation]) checkDeadline(t TimeIndex, status *Status) {
	newest, ok := b.data.DesiredAction.NewestIndex()
	if ok && newest >= t {
		return
	}

	var repetitions uint32
	if t > 0 {
		if prev, err := b.data.Status.TryGet(t - 1); err == nil {
			repetitions = prev.ActionRepetitions
		}
	}

	if repetitions < b.maxActionRepetitions.Load() {
		if previous, err := b.data.DesiredAction.NewestElement(); err == nil {
			b.data.DesiredAction.Append(previous)
		}
		status.ActionRepetitions = repetitions + 1
		return
	}

	status.SetError(ErrorBackend, backendErrDeadlineMissed)
}

func exitReasonFor(status Status) ExitReason {
	switch {
	case status.ErrorStatus == ErrorDriver:
		return ExitDriverError
	case status.ErrorMessage == backendErrMaxActionsReached:
		return ExitMaxActionsReached
	default:
		return ExitDeadlineMissed
	}
}

// recordTick updates the lightweight tick counters when tick t commits its
// status and, every 5000 ticks, logs the phase breakdown of the most recently
// completed tick. The breakdown itself is stored by runTicks only once a tick
// has published its applied action, so every phase in it is populated.
func (b *Backend[Action, Observation]) recordTick(t TimeIndex, tickStart time.Time) {
	elapsed := time.Since(tickStart)
	count := b.tickCount.Add(1)
	b.lastTickNanos.Store(int64(elapsed))

	if t > 0 && int64(t)%5000 == 0 {
		timings, _ := b.lastTiming.Load().(TickTimings)
		slog.Info("robotloop: tick statistics",
			"session", b.sessionID, "tick", int64(t), "ticks_recorded", count,
			"last_tick_duration", elapsed,
			"get_observation", timings.GetObservation, "append_observation", timings.AppendObservation,
			"check_deadline", timings.CheckDeadline, "get_action", timings.GetAction,
			"apply_action", timings.ApplyAction, "append_applied", timings.AppendApplied)
	}
}

// drain runs the Draining -> Stopped transition: it calls the driver's
// Shutdown exactly once, then marks the loop no longer running and wakes
// anyone blocked in WaitUntilTerminated.
func (b *Backend[Action, Observation]) drain(reason ExitReason) {
	b.setState(StateDraining)
	b.exitReason.Store(int32(reason))

	if err := b.driver.Shutdown(); err != nil {
		slog.Error("robotloop: driver shutdown returned an error",
			"session", b.sessionID, "error", err)
	}

	b.setState(StateStopped)
	b.loopRunning.Store(false)
	close(b.done)
}
