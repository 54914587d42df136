package config

import (
	"testing"

	"github.com/e7canasta/robotloop"
)

func TestValidateRejectsMissingInstanceID(t *testing.T) {
	cfg := Default()
	if err := Validate(&cfg); err == nil {
		t.Error("Validate() = nil, want an error for a missing instance_id")
	}
}

func TestValidateRejectsMalformedInstanceID(t *testing.T) {
	cfg := Default()
	cfg.InstanceID = "Not Valid!"
	if err := Validate(&cfg); err == nil {
		t.Error("Validate() = nil, want an error for an instance_id with spaces/uppercase")
	}
}

func TestValidateFillsHistoryLengthDefault(t *testing.T) {
	cfg := Default()
	cfg.InstanceID = "sim-arm-01"
	cfg.Backend.HistoryLength = 0

	if err := Validate(&cfg); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}
	if cfg.Backend.HistoryLength != 1000 {
		t.Errorf("Backend.HistoryLength = %d, want the 1000 default", cfg.Backend.HistoryLength)
	}
}

func TestValidateRejectsOneSidedWatchdogConfig(t *testing.T) {
	cfg := Default()
	cfg.InstanceID = "sim-arm-01"
	cfg.Watchdog.MaxActionDurationMS = 50

	if err := Validate(&cfg); err == nil {
		t.Error("Validate() = nil, want an error when only one watchdog duration is set")
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := Default()
	cfg.InstanceID = "sim-arm-01"
	cfg.Watchdog.MaxActionDurationMS = 50
	cfg.Watchdog.MaxInterActionDurationMS = 200

	if err := Validate(&cfg); err != nil {
		t.Errorf("Validate() failed on a well-formed config: %v", err)
	}
}

func TestBackendConfigFirstActionTimeoutConvertsMillisecondsToDuration(t *testing.T) {
	b := BackendConfig{FirstActionTimeoutMS: 1500}
	if got := b.FirstActionTimeout(); got.Milliseconds() != 1500 {
		t.Errorf("FirstActionTimeout() = %v, want 1500ms", got)
	}
}

func TestBackendConfigFirstActionTimeoutZeroIsTheImmediateBoundary(t *testing.T) {
	b := BackendConfig{FirstActionTimeoutMS: 0}
	if got := b.FirstActionTimeout(); got != 0 {
		t.Errorf("FirstActionTimeout() = %v, want a literal zero duration, not disabled", got)
	}
}

func TestBackendConfigFirstActionTimeoutNegativeDisablesTheDeadline(t *testing.T) {
	b := BackendConfig{FirstActionTimeoutMS: -1}
	if got := b.FirstActionTimeout(); got != robotloop.NoFirstActionTimeout {
		t.Errorf("FirstActionTimeout() = %v, want NoFirstActionTimeout", got)
	}
}

func TestDefaultConfigDisablesFirstActionTimeout(t *testing.T) {
	cfg := Default()
	if got := cfg.Backend.FirstActionTimeout(); got != robotloop.NoFirstActionTimeout {
		t.Errorf("Default().Backend.FirstActionTimeout() = %v, want NoFirstActionTimeout", got)
	}
}
