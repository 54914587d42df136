package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks a loaded Config for internal consistency, filling in a
// couple of defaults along the way the same way the rest of this package
// does: validation and defaulting are one pass, not two.
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.Backend.HistoryLength <= 0 {
		cfg.Backend.HistoryLength = 1000
	}

	if cfg.Watchdog.MaxActionDurationMS < 0 || cfg.Watchdog.MaxInterActionDurationMS < 0 {
		return fmt.Errorf("watchdog durations must not be negative")
	}
	if (cfg.Watchdog.MaxActionDurationMS == 0) != (cfg.Watchdog.MaxInterActionDurationMS == 0) {
		return fmt.Errorf("watchdog.max_action_duration_ms and watchdog.max_inter_action_duration_ms must be set together")
	}

	if cfg.HealthPort == "" {
		cfg.HealthPort = "8080"
	}

	return nil
}
