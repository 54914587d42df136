// Package config loads the YAML configuration for a robotloop daemon.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/e7canasta/robotloop"
)

// Config is the complete daemon configuration.
type Config struct {
	InstanceID string `yaml:"instance_id"`

	Backend BackendConfig `yaml:"backend"`
	Watchdog WatchdogConfig `yaml:"watchdog"`

	HealthPort       string        `yaml:"health_port"`
	ShutdownTimeoutS int           `yaml:"shutdown_timeout_s"`
}

// BackendConfig mirrors robotloop.Options plus the history length every
// series in the bundle is created with.
type BackendConfig struct {
	HistoryLength int    `yaml:"history_length"`
	RealTimeMode  bool   `yaml:"real_time_mode"`
	// FirstActionTimeoutMS is milliseconds; 0 is the meaningful "fail at
	// the first deadline check if no action has arrived" boundary. A negative
	// value (the package default) disables the first-action deadline
	// entirely, matching robotloop.NoFirstActionTimeout.
	FirstActionTimeoutMS int    `yaml:"first_action_timeout_ms"`
	MaxNumberOfActions   uint32 `yaml:"max_number_of_actions"`
	MaxActionRepetitions uint32 `yaml:"max_action_repetitions"`
}

// WatchdogConfig configures the optional MonitorDriver wrapper. Both fields
// left at zero disable the watchdog entirely; Validate rejects a config that
// sets only one of them.
type WatchdogConfig struct {
	MaxActionDurationMS      int `yaml:"max_action_duration_ms"`
	MaxInterActionDurationMS int `yaml:"max_inter_action_duration_ms"`
}

// FirstActionTimeout returns the configured first-action timeout as a
// time.Duration. A negative FirstActionTimeoutMS disables the deadline
// (robotloop.NoFirstActionTimeout); zero means fail at the backend's first
// deadline check if no action has been appended by then.
func (b BackendConfig) FirstActionTimeout() time.Duration {
	if b.FirstActionTimeoutMS < 0 {
		return robotloop.NoFirstActionTimeout
	}
	return time.Duration(b.FirstActionTimeoutMS) * time.Millisecond
}

// MaxActionDuration returns the configured per-action timing limit.
func (w WatchdogConfig) MaxActionDuration() time.Duration {
	return time.Duration(w.MaxActionDurationMS) * time.Millisecond
}

// MaxInterActionDuration returns the configured inter-action timing limit.
func (w WatchdogConfig) MaxInterActionDuration() time.Duration {
	return time.Duration(w.MaxInterActionDurationMS) * time.Millisecond
}

// ShutdownTimeout returns the configured graceful-shutdown budget, with a
// five second default when unset.
func (c Config) ShutdownTimeout() time.Duration {
	if c.ShutdownTimeoutS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ShutdownTimeoutS) * time.Second
}

// Load reads and parses a YAML configuration file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file overrides a field.
func Default() Config {
	return Config{
		HealthPort: "8080",
		Backend: BackendConfig{
			HistoryLength:        1000,
			RealTimeMode:         true,
			FirstActionTimeoutMS: -1,
		},
	}
}
