package robotloop

// RobotData is the four-series bundle shared between a Backend and any
// number of Frontends. DesiredAction, AppliedAction, Observation, and
// Status all share the same retained history length H; the backend loop
// maintains the invariant that at the end of tick t, all four series have
// an element at index t whenever the loop runs that tick to completion.
//
// DesiredAction is the only series written from outside the backend
// goroutine — Observation, AppliedAction, and Status are written
// exclusively by the backend loop.
type RobotData[Action, Observation any] struct {
	DesiredAction *Series[Action]
	AppliedAction *Series[Action]
	Observation   *Series[Observation]
	Status        *Series[Status]

	// H is the history length every series in this bundle was created
	// with.
	H int
}

// NewRobotData creates a bundle of four series, each retaining up to h
// elements.
func NewRobotData[Action, Observation any](h int) *RobotData[Action, Observation] {
	return &RobotData[Action, Observation]{
		DesiredAction: NewSeries[Action](h),
		AppliedAction: NewSeries[Action](h),
		Observation:   NewSeries[Observation](h),
		Status:        NewSeries[Status](h),
		H:             h,
	}
}

// Shutdown shuts down all four series, waking any reader blocked on a
// future index in any of them.
func (d *RobotData[Action, Observation]) Shutdown() {
	d.DesiredAction.Shutdown()
	d.AppliedAction.Shutdown()
	d.Observation.Shutdown()
	d.Status.Shutdown()
}
