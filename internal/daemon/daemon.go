// Package daemon wires a Backend, a Frontend, and a simulated driver into
// a long-running service: it owns the process-level lifecycle (startup,
// health reporting, graceful shutdown) that a bare Backend does not concern
// itself with.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/e7canasta/robotloop"
	"github.com/e7canasta/robotloop/config"
	"github.com/e7canasta/robotloop/examples/simdriver"
)

// Daemon is the process-level orchestrator for a single backend loop: from
// an already loaded configuration it constructs the driver and bundle, keeps the loop
// continuously supplied with a desired action, and exposes health state
// over HTTP.
type Daemon struct {
	cfg *config.Config

	driver  *simdriver.Driver
	data    *robotloop.RobotData[simdriver.JointAction, simdriver.JointObservation]
	backend *robotloop.Backend[simdriver.JointAction, simdriver.JointObservation]
	front   *robotloop.Frontend[simdriver.JointAction, simdriver.JointObservation]

	numJoints int

	mu        sync.RWMutex
	started   time.Time
	isRunning bool
	wg        sync.WaitGroup
}

// New constructs a Daemon from cfg. It does not start anything yet; call
// Run to start the feeder loop and StartHealthServer for the HTTP endpoint.
func New(cfg *config.Config) (*Daemon, error) {
	const numJoints = 3

	driver := simdriver.New(numJoints, 10*time.Millisecond)
	data := robotloop.NewRobotData[simdriver.JointAction, simdriver.JointObservation](cfg.Backend.HistoryLength)

	var baseDriver robotloop.Driver[simdriver.JointAction, simdriver.JointObservation] = driver
	if cfg.Watchdog.MaxActionDurationMS > 0 {
		baseDriver = robotloop.MonitorDriver[simdriver.JointAction, simdriver.JointObservation](
			driver, cfg.Watchdog.MaxActionDuration(), cfg.Watchdog.MaxInterActionDuration())
	}

	backend := robotloop.NewBackend[simdriver.JointAction, simdriver.JointObservation](baseDriver, data, robotloop.Options{
		RealTimeMode:       cfg.Backend.RealTimeMode,
		FirstActionTimeout: cfg.Backend.FirstActionTimeout(),
		MaxNumberOfActions: cfg.Backend.MaxNumberOfActions,
	})
	backend.SetMaxActionRepetitions(cfg.Backend.MaxActionRepetitions)

	if err := backend.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize driver: %w", err)
	}

	return &Daemon{
		cfg:       cfg,
		driver:    driver,
		data:      data,
		backend:   backend,
		front:     robotloop.NewFrontend(data),
		numJoints: numJoints,
	}, nil
}

// Run keeps the backend continuously supplied with a hold-position desired
// action until ctx is cancelled or the backend stops on its own (driver
// error, max actions reached, and so on).
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	d.isRunning = true
	d.started = time.Now()
	d.mu.Unlock()

	slog.Info("robotloop daemon starting", "instance_id", d.cfg.InstanceID)

	hold := simdriver.ZeroAction(d.numJoints)

	for {
		select {
		case <-ctx.Done():
			slog.Info("robotloop daemon run loop exiting: context cancelled")
			return nil
		default:
		}

		if !d.backend.LoopRunning() {
			slog.Warn("robotloop daemon run loop exiting: backend stopped",
				"exit_reason", d.backend.ExitReason())
			return nil
		}

		if _, err := d.front.AppendDesiredAction(hold); err != nil {
			slog.Info("robotloop daemon run loop exiting: bundle shut down", "error", err)
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}
}

// Shutdown stops the backend loop and waits up to ctx's deadline for it to
// finish.
func (d *Daemon) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.isRunning {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	slog.Info("shutting down robotloop daemon")

	doneCh := make(chan error, 1)
	go func() { doneCh <- d.backend.Close() }()

	select {
	case err := <-doneCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return fmt.Errorf("shutdown timed out waiting for backend to drain")
	}

	d.mu.Lock()
	d.isRunning = false
	uptime := time.Since(d.started)
	d.mu.Unlock()

	slog.Info("robotloop daemon shutdown complete", "uptime", uptime)
	return nil
}

// ShutdownTimeout returns the configured graceful shutdown budget.
func (d *Daemon) ShutdownTimeout() time.Duration {
	return d.cfg.ShutdownTimeout()
}
