package task

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// State is the lifecycle state of a Timed wrapper.
type State int

const (
	// Created is the state before Init.
	Created State = iota
	// Initialized means the deadline is fixed but no step has run.
	Initialized
	// Running means at least one step ran and the wrapper has not finished.
	Running
	// Finished means the deadline passed or the child finished. It is terminal.
	Finished
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Initialized:
		return "initialized"
	case Running:
		return "running"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// Timed bounds a child task by a duration measured from Init.
type Timed struct {
	child    Task
	duration time.Duration
	clk      clock.Clock

	deadline   time.Time
	state      State
	childEnded bool
}

// NewTimed wraps child so that it runs for at most duration.
func NewTimed(child Task, duration time.Duration, clk clock.Clock) (*Timed, error) {
	if child == nil {
		return nil, errors.New("timed wrapper needs a child task")
	}
	if duration < 0 {
		return nil, errors.Errorf("timed wrapper duration must not be negative, got %s", duration)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Timed{child: child, duration: duration, clk: clk}, nil
}

// Name describes the wrapper and its child.
func (t *Timed) Name() string {
	return fmt.Sprintf("timed(%s, %s)", t.child.Name(), t.duration)
}

// State returns the current lifecycle state.
func (t *Timed) State() State {
	return t.state
}

// Init fixes the deadline at now plus the duration and initializes the child.
func (t *Timed) Init(ctx context.Context) {
	t.deadline = t.clk.Now().Add(t.duration)
	t.state = Initialized
	t.child.Init(ctx)
}

// Step finishes once the elapsed time since Init reaches the duration, without stepping the
// child on that tick. Otherwise it steps the child once and finishes if the child does.
// The child is ended exactly once, on the tick the wrapper finishes.
func (t *Timed) Step(ctx context.Context) (Status, error) {
	if t.state == Finished {
		return Done, nil
	}
	t.state = Running

	if !t.clk.Now().Before(t.deadline) {
		return Done, t.finish(ctx)
	}

	status, err := t.child.Step(ctx)
	if status == Done {
		err = multierr.Combine(err, t.finish(ctx))
	}
	return status, err
}

// End ends the child if it has not been ended yet.
func (t *Timed) End(ctx context.Context) error {
	return t.finish(ctx)
}

func (t *Timed) finish(ctx context.Context) error {
	t.state = Finished
	if t.childEnded {
		return nil
	}
	t.childEnded = true
	return t.child.End(ctx)
}
