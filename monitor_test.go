package robotloop

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// slowDriver is a Driver whose ApplyAction call takes applyDelay to return,
// for exercising the watchdog's timing checks.
type slowDriver struct {
	applyDelay time.Duration

	errMu      sync.Mutex
	errMessage string

	shutdownCalls atomic.Int32
	initCalls     atomic.Int32
}

func (d *slowDriver) Initialize() error {
	d.initCalls.Add(1)
	return nil
}

func (d *slowDriver) GetLatestObservation() int { return 0 }

func (d *slowDriver) ApplyAction(desired int) int {
	time.Sleep(d.applyDelay)
	return desired
}

func (d *slowDriver) GetError() string {
	d.errMu.Lock()
	defer d.errMu.Unlock()
	return d.errMessage
}

func (d *slowDriver) SetError(msg string) {
	d.errMu.Lock()
	d.errMessage = msg
	d.errMu.Unlock()
}

func (d *slowDriver) Shutdown() error {
	d.shutdownCalls.Add(1)
	return nil
}

func TestMonitorDriverPassesThroughNormalOperation(t *testing.T) {
	inner := &slowDriver{applyDelay: time.Millisecond}
	driver := MonitorDriver[int, int](inner, 100*time.Millisecond, 100*time.Millisecond)

	if err := driver.Initialize(); err != nil || inner.initCalls.Load() != 1 {
		t.Fatalf("Initialize() = %v, inner calls = %d", err, inner.initCalls.Load())
	}

	for i := 0; i < 5; i++ {
		if got := driver.ApplyAction(i); got != i {
			t.Errorf("ApplyAction(%d) = %d, want %d", i, got, i)
		}
		time.Sleep(5 * time.Millisecond)
	}

	if msg := driver.GetError(); msg != "" {
		t.Errorf("GetError() = %q, want \"\" under normal operation", msg)
	}
	if inner.shutdownCalls.Load() != 0 {
		t.Error("watchdog shut the driver down despite timely actions")
	}
}

func TestMonitorDriverShutsDownOnSlowAction(t *testing.T) {
	inner := &slowDriver{applyDelay: 150 * time.Millisecond}
	driver := MonitorDriver[int, int](inner, 20*time.Millisecond, time.Second)

	go driver.ApplyAction(1)

	time.Sleep(250 * time.Millisecond)

	msg := driver.GetError()
	if msg == "" || !strings.Contains(msg, "did not end on time") {
		t.Errorf("GetError() = %q, want a did-not-end-on-time violation", msg)
	}
	if inner.shutdownCalls.Load() != 1 {
		t.Errorf("inner.Shutdown called %d times, want exactly 1", inner.shutdownCalls.Load())
	}
}

func TestMonitorDriverShutsDownOnInterActionGap(t *testing.T) {
	inner := &slowDriver{applyDelay: time.Millisecond}
	driver := MonitorDriver[int, int](inner, time.Second, 20*time.Millisecond)

	driver.ApplyAction(1)
	time.Sleep(150 * time.Millisecond)

	msg := driver.GetError()
	if msg == "" || !strings.Contains(msg, "did not start on time") {
		t.Errorf("GetError() = %q, want a did-not-start-on-time violation", msg)
	}
	if inner.shutdownCalls.Load() != 1 {
		t.Errorf("inner.Shutdown called %d times, want exactly 1", inner.shutdownCalls.Load())
	}
}

func TestMonitorDriverWithZeroTimeoutsSkipsWatchdog(t *testing.T) {
	inner := &slowDriver{applyDelay: 50 * time.Millisecond}
	driver := MonitorDriver[int, int](inner, 0, 0)

	driver.ApplyAction(1)
	time.Sleep(100 * time.Millisecond)

	if msg := driver.GetError(); msg != "" {
		t.Errorf("GetError() = %q, want \"\" with the watchdog disabled", msg)
	}
	if inner.shutdownCalls.Load() != 0 {
		t.Error("watchdog shut the driver down despite being disabled")
	}
}

// TestMonitorDriverShutdownAfterWatchdogTripCallsInnerOnce mirrors the
// sequence a real backend follows after a watchdog trip: the watchdog
// goroutine shuts the wrapped driver down on its own, and the backend's own
// drain() later calls the (same, outer) Shutdown() again when it reacts to
// the reported error. Only the first call may reach the inner driver.
func TestMonitorDriverShutdownAfterWatchdogTripCallsInnerOnce(t *testing.T) {
	inner := &slowDriver{applyDelay: 150 * time.Millisecond}
	driver := MonitorDriver[int, int](inner, 20*time.Millisecond, time.Second)

	go driver.ApplyAction(1)
	time.Sleep(250 * time.Millisecond)

	if inner.shutdownCalls.Load() != 1 {
		t.Fatalf("inner.Shutdown called %d times after the watchdog trip, want exactly 1", inner.shutdownCalls.Load())
	}

	if err := driver.Shutdown(); err != nil {
		t.Errorf("second Shutdown() = %v, want nil", err)
	}
	if inner.shutdownCalls.Load() != 1 {
		t.Errorf("inner.Shutdown called %d times after a second outer Shutdown(), want still exactly 1", inner.shutdownCalls.Load())
	}
}

func TestMonitorDriverForwardsInnerDriverError(t *testing.T) {
	inner := &slowDriver{applyDelay: time.Millisecond}
	driver := MonitorDriver[int, int](inner, time.Second, time.Second)

	inner.SetError("sensor offline")

	if msg := driver.GetError(); msg != "sensor offline" {
		t.Errorf("GetError() = %q, want the inner driver's error forwarded unchanged", msg)
	}
}
