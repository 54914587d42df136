package robotloop

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// monitoredDriver wraps a Driver with a background watchdog enforcing two
// independent timing constraints on action execution: how long a single
// ApplyAction call may take, and how long may elapse between the end of
// one action and the start of the next. Violating either shuts the
// wrapped driver down and reports the violation through GetError.
//
// The watchdog reuses Series[bool] as its own internal bookkeeping — two
// 1000-element logs of action-start/action-end events — rather than a
// bespoke notification mechanism, the same way the rest of this package
// uses Series as its synchronization primitive.
type monitoredDriver[Action, Observation any] struct {
	inner Driver[Action, Observation]

	maxActionDuration      time.Duration
	maxInterActionDuration time.Duration

	actionStart *Series[bool]
	actionEnd   *Series[bool]

	mu           sync.Mutex
	isShutdown   bool
	shutdownOnce sync.Once

	watchdogError atomic.Value // string
	done          chan struct{}
}

// MonitorDriver wraps inner with a watchdog that shuts it down if an
// action takes longer than maxActionDuration to execute, or if more than
// maxInterActionDuration elapses between actions. If either duration is
// zero or negative, no watchdog goroutine is started — equivalent to using
// inner directly — since there would be nothing for it to ever enforce.
func MonitorDriver[Action, Observation any](inner Driver[Action, Observation], maxActionDuration, maxInterActionDuration time.Duration) Driver[Action, Observation] {
	d := &monitoredDriver[Action, Observation]{
		inner:                  inner,
		maxActionDuration:      maxActionDuration,
		maxInterActionDuration: maxInterActionDuration,
		actionStart:            NewSeries[bool](1000),
		actionEnd:              NewSeries[bool](1000),
		done:                   make(chan struct{}),
	}

	if maxActionDuration > 0 && maxInterActionDuration > 0 {
		go d.watch()
	} else {
		close(d.done)
		slog.Warn("robotloop: MonitorDriver created with a non-finite timeout; the monitoring loop is not started")
	}

	return d
}

func (d *monitoredDriver[Action, Observation]) Initialize() error {
	return d.inner.Initialize()
}

func (d *monitoredDriver[Action, Observation]) GetLatestObservation() Observation {
	return d.inner.GetLatestObservation()
}

func (d *monitoredDriver[Action, Observation]) ApplyAction(desired Action) Action {
	if d.isShutdownNow() {
		return desired
	}
	d.actionStart.Append(true)
	applied := d.inner.ApplyAction(desired)
	d.actionEnd.Append(true)
	return applied
}

func (d *monitoredDriver[Action, Observation]) GetError() string {
	if msg := d.inner.GetError(); msg != "" {
		return msg
	}
	if v := d.watchdogError.Load(); v != nil {
		return v.(string)
	}
	return ""
}

func (d *monitoredDriver[Action, Observation]) Shutdown() error {
	var err error
	d.shutdownOnce.Do(func() {
		d.mu.Lock()
		d.isShutdown = true
		d.mu.Unlock()
		d.actionStart.Shutdown()
		d.actionEnd.Shutdown()
		err = d.inner.Shutdown()
	})
	return err
}

func (d *monitoredDriver[Action, Observation]) isShutdownNow() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isShutdown
}

// watch monitors the timing of action execution and shuts the driver down
// immediately if either constraint is violated.
func (d *monitoredDriver[Action, Observation]) watch() {
	defer close(d.done)

	for !d.isShutdownNow() && !d.actionStart.WaitForTimeIndex(0, shutdownPollInterval) {
	}
	if d.isShutdownNow() {
		return
	}

	for t := TimeIndex(0); !d.isShutdownNow(); t++ {
		if !d.actionEnd.WaitForTimeIndex(t, d.maxActionDuration) {
			d.reportAndShutdown("action did not end on time, shutting down")
			return
		}
		if !d.actionStart.WaitForTimeIndex(t+1, d.maxInterActionDuration) {
			d.reportAndShutdown("action did not start on time, shutting down")
			return
		}
	}
}

func (d *monitoredDriver[Action, Observation]) reportAndShutdown(message string) {
	d.watchdogError.Store(message)
	if err := d.Shutdown(); err != nil {
		slog.Error("robotloop: watchdog-triggered shutdown failed", "error", err)
	}
}
