// Package task defines the cooperative task contract of the autonomous engine and the
// wrappers that compose tasks in time.
//
// A Task is an explicit state object. The owner calls Init once, then Step once per tick
// until it reports Done or the owner gives up, and finally End. Step must never block or
// sleep; time only advances between calls. End must be safe without any prior Step, must be
// idempotent, and leaves every actuator the task touched in a neutral state. Owners always
// call End, including when they abandon a task that has not finished.
package task

import "context"

// Status is the result of a single Step.
type Status int

const (
	// Continue means the task wants to be stepped again next tick.
	Continue Status = iota
	// Done means the task has finished. It must not be stepped again.
	Done
)

func (s Status) String() string {
	switch s {
	case Continue:
		return "continue"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// A Task is one unit of schedulable work.
type Task interface {
	// Name identifies the task in logs.
	Name() string
	// Init captures baseline state. It never fails; unavailable sensors fall back to defaults.
	Init(ctx context.Context)
	// Step advances the task by one tick. An error reports a failed actuator or sensor
	// interaction and does not by itself finish the task.
	Step(ctx context.Context) (Status, error)
	// End stops everything the task drives.
	End(ctx context.Context) error
}
