package task

import (
	"context"

	"go.uber.org/multierr"
)

// Sequence runs tasks one after another as a single task. A child is initialized when it
// becomes active, and when it finishes it is ended and the next child takes its first step
// within the same tick.
type Sequence struct {
	name     string
	children []Task

	current int
	started bool
}

// NewSequence returns a sequence named name over children.
func NewSequence(name string, children ...Task) *Sequence {
	return &Sequence{name: name, children: children}
}

// Name returns the sequence name.
func (s *Sequence) Name() string {
	return s.name
}

// Len is the number of children.
func (s *Sequence) Len() int {
	return len(s.children)
}

// Active returns the task currently being stepped, or nil when the sequence is exhausted.
func (s *Sequence) Active() Task {
	if s.current >= len(s.children) {
		return nil
	}
	return s.children[s.current]
}

// Init resets the sequence to its first child. Children are initialized lazily.
func (s *Sequence) Init(ctx context.Context) {
	s.current = 0
	s.started = false
}

// Step advances the active child. Children that finish on their first step do not consume
// a tick of their own.
func (s *Sequence) Step(ctx context.Context) (Status, error) {
	var err error
	for s.current < len(s.children) {
		child := s.children[s.current]
		if !s.started {
			child.Init(ctx)
			s.started = true
		}
		status, stepErr := child.Step(ctx)
		err = multierr.Combine(err, stepErr)
		if status == Continue {
			return Continue, err
		}
		err = multierr.Combine(err, child.End(ctx))
		s.current++
		s.started = false
	}
	return Done, err
}

// End ends the active child if it was started. Children that never started have nothing to
// stop.
func (s *Sequence) End(ctx context.Context) error {
	if s.current >= len(s.children) || !s.started {
		return nil
	}
	s.started = false
	return s.children[s.current].End(ctx)
}
