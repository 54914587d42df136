package daemon

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// HealthStatus is the daemon's health snapshot.
type HealthStatus struct {
	Status        string  `json:"status"` // "healthy" or "unhealthy"
	UptimeSeconds int64   `json:"uptime_seconds"`
	BackendState  string  `json:"backend_state"`
	ExitReason    string  `json:"exit_reason"`
	TickCount     int64   `json:"tick_count"`
	LastTickMS    float64 `json:"last_tick_ms"`
}

// HealthCheck returns the current health status of the daemon.
func (d *Daemon) HealthCheck() HealthStatus {
	d.mu.RLock()
	started := d.started
	d.mu.RUnlock()

	stats := d.backend.Stats()
	status := HealthStatus{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(started).Seconds()),
		BackendState:  d.backend.State().String(),
		ExitReason:    d.backend.ExitReason().String(),
		TickCount:     stats.TickCount,
		LastTickMS:    float64(stats.LastTickDuration) / float64(time.Millisecond),
	}

	if !d.backend.LoopRunning() {
		status.Status = "unhealthy"
	}

	return status
}

// LivenessHandler handles /health (simple liveness check): 200 if the
// process can execute this code at all.
func (d *Daemon) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"status": "alive",
		"uptime": int64(time.Since(d.started).Seconds()),
	})
}

// ReadinessHandler handles /readiness: 200 unless the backend loop has
// stopped.
func (d *Daemon) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := d.HealthCheck()
	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(health)
}

// MetricsHandler handles /metrics with a minimal Prometheus-text rendering
// of the backend's tick counters.
func (d *Daemon) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	stats := d.backend.Stats()

	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "robotloop_tick_count{instance=%q} %d\n", d.cfg.InstanceID, stats.TickCount)
	fmt.Fprintf(w, "robotloop_last_tick_ms{instance=%q} %f\n", d.cfg.InstanceID, float64(stats.LastTickDuration)/float64(time.Millisecond))
}

// StartHealthServer starts the HTTP health check server on port, in its
// own goroutine, and returns immediately.
func (d *Daemon) StartHealthServer(port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", d.LivenessHandler)
	mux.HandleFunc("/readiness", d.ReadinessHandler)
	mux.HandleFunc("/metrics", d.MetricsHandler)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("starting health check server", "port", port,
		"endpoints", []string{"/health", "/readiness", "/metrics"})

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health check server failed", "error", err)
		}
	}()

	return nil
}
