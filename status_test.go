package robotloop

import "testing"

func TestStatusOKOnZeroValue(t *testing.T) {
	var s Status
	if !s.OK() {
		t.Error("zero-value Status.OK() = false, want true")
	}
}

func TestStatusSetErrorIsFirstWins(t *testing.T) {
	var s Status
	s.SetError(ErrorDriver, "overheat")
	s.SetError(ErrorBackend, "deadline missed")

	if s.ErrorStatus != ErrorDriver || s.ErrorMessage != "overheat" {
		t.Errorf("Status = %+v, want the first SetError call to stick", s)
	}
	if s.OK() {
		t.Error("OK() = true after SetError, want false")
	}
}
