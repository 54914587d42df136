package robotloop

// Frontend is the index-addressed read/write façade over a RobotData
// bundle. It holds no state of its own beyond a reference to the bundle,
// so any number of frontends may coexist safely.
type Frontend[Action, Observation any] struct {
	data *RobotData[Action, Observation]
}

// NewFrontend wraps data in a Frontend façade.
func NewFrontend[Action, Observation any](data *RobotData[Action, Observation]) *Frontend[Action, Observation] {
	return &Frontend[Action, Observation]{data: data}
}

// AppendDesiredAction appends a to the desired_action series and returns
// the index it was assigned.
func (f *Frontend[Action, Observation]) AppendDesiredAction(a Action) (TimeIndex, error) {
	return f.data.DesiredAction.Append(a)
}

// GetDesiredAction blocks for index t to exist and returns its value.
func (f *Frontend[Action, Observation]) GetDesiredAction(t TimeIndex) (Action, error) {
	return f.data.DesiredAction.Get(t)
}

// GetAppliedAction blocks for index t to exist and returns its value.
func (f *Frontend[Action, Observation]) GetAppliedAction(t TimeIndex) (Action, error) {
	return f.data.AppliedAction.Get(t)
}

// GetObservation blocks for index t to exist and returns its value.
func (f *Frontend[Action, Observation]) GetObservation(t TimeIndex) (Observation, error) {
	return f.data.Observation.Get(t)
}

// GetStatus blocks for index t to exist and returns its value.
func (f *Frontend[Action, Observation]) GetStatus(t TimeIndex) (Status, error) {
	return f.data.Status.Get(t)
}

// GetTimestampMS returns the wall-clock time, in milliseconds, at which
// tick t was committed (status[t] is the tick's commit point, see
// WaitUntilTimeIndex).
func (f *Frontend[Action, Observation]) GetTimestampMS(t TimeIndex) (float64, error) {
	return f.data.Status.TimestampMS(t)
}

// WaitUntilTimeIndex blocks until status[t] has been committed by the
// backend loop. The loop appends status[t] after observation[t] (and after
// any repeated desired_action[t]), so both are visible once this returns;
// applied_action[t] is appended only after status[t] and may not be visible
// yet.
func (f *Frontend[Action, Observation]) WaitUntilTimeIndex(t TimeIndex) {
	f.data.Status.WaitForTimeIndexForever(t)
}

// GetCurrentTimeIndex returns the newest committed index in the status
// series. The second return value is false before the first tick commits.
func (f *Frontend[Action, Observation]) GetCurrentTimeIndex() (TimeIndex, bool) {
	return f.data.Status.NewestIndex()
}
