package robotloop

// ErrorKind classifies the outcome of a single backend tick.
type ErrorKind int

const (
	// ErrorNone means the tick succeeded.
	ErrorNone ErrorKind = iota
	// ErrorBackend means a timing or lifecycle violation originated in the
	// backend loop itself (deadline miss, first-action timeout, max
	// actions reached).
	ErrorBackend
	// ErrorDriver means the error was forwarded from Driver.GetError.
	ErrorDriver
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case ErrorNone:
		return "none"
	case ErrorBackend:
		return "backend_error"
	case ErrorDriver:
		return "driver_error"
	default:
		return "unknown"
	}
}

// Status is the per-tick outcome appended to a RobotData's Status series.
// At most one of ErrorBackend/ErrorDriver is ever set on a given Status:
// SetError is idempotent-first-wins, so a later call is ignored once an
// error has already been recorded.
type Status struct {
	ErrorStatus       ErrorKind
	ErrorMessage      string
	ActionRepetitions uint32
}

// SetError records an error on the status. If an error has already been
// set, the call is ignored — first error wins within a tick.
func (s *Status) SetError(kind ErrorKind, message string) {
	if s.ErrorStatus != ErrorNone {
		return
	}
	s.ErrorStatus = kind
	s.ErrorMessage = message
}

// OK reports whether the tick succeeded (no error recorded).
func (s Status) OK() bool {
	return s.ErrorStatus == ErrorNone
}
