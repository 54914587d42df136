// Package robotloop provides a timestep-indexed, bounded-history data
// exchange between a user-space control policy and a robot driver, plus the
// real-time backend loop that couples them.
//
// # Overview
//
// Three pieces cooperate:
//
//   - Series, a bounded, single-writer/many-reader, blocking-on-future-index
//     ring buffer. It is the synchronization substrate of the package.
//   - Backend, a state machine that runs on its own goroutine, reading
//     observations from a Driver, applying desired actions to it, and
//     publishing a Status for every tick.
//   - Frontend, the façade any number of producers/observers use to append
//     desired actions and read published data by time index.
//
// Backend, RobotData, and Series are generic over the caller's own Action
// and Observation types — they need only be safely copyable across
// goroutines.
//
// # Basic Usage
//
//	data := robotloop.NewRobotData[JointAction, JointObservation](1000)
//	backend := robotloop.NewBackend(driver, data, robotloop.DefaultOptions())
//	if err := backend.Initialize(); err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	front := robotloop.NewFrontend(data)
//	front.AppendDesiredAction(firstAction)
//
//	status, _ := front.GetStatus(0)
//
// # Thread Safety
//
// Series and RobotData are shared between the backend goroutine and any
// number of frontends; all operations are safe for concurrent use. The
// Driver passed to a Backend is exclusively owned by that backend's
// goroutine for the lifetime of the loop — frontends must never call it
// directly.
//
// # Design Decisions
//
// See DESIGN.md for the grounding of each component against its reference
// implementation.
package robotloop
