package task

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Parallel steps several tasks within the same tick.
type Parallel struct {
	children []Task
	exitAny  bool

	finished  []bool
	remaining int
}

// NewParallel runs children side by side. With exitAny the wrapper finishes as soon as any
// child finishes; otherwise it finishes when all of them have.
func NewParallel(exitAny bool, children ...Task) (*Parallel, error) {
	if len(children) == 0 {
		return nil, errors.New("parallel wrapper needs at least one child task")
	}
	for i, c := range children {
		if c == nil {
			return nil, errors.Errorf("parallel child %d is nil", i)
		}
	}
	return &Parallel{children: children, exitAny: exitAny}, nil
}

// Name lists the children.
func (p *Parallel) Name() string {
	names := make([]string, 0, len(p.children))
	for _, c := range p.children {
		names = append(names, c.Name())
	}
	prefix := "parallel"
	if p.exitAny {
		prefix = "parallel_any"
	}
	return prefix + "(" + strings.Join(names, ", ") + ")"
}

// Init initializes every child in registration order.
func (p *Parallel) Init(ctx context.Context) {
	p.finished = make([]bool, len(p.children))
	p.remaining = len(p.children)
	for _, c := range p.children {
		c.Init(ctx)
	}
}

// Step advances every unfinished child once, in registration order. A child that finishes
// is ended right away and never stepped again.
func (p *Parallel) Step(ctx context.Context) (Status, error) {
	if p.remaining == 0 {
		return Done, nil
	}

	var err error
	anyFinished := false
	for i, c := range p.children {
		if p.finished[i] {
			continue
		}
		status, stepErr := c.Step(ctx)
		err = multierr.Combine(err, stepErr)
		if status == Done {
			p.finished[i] = true
			p.remaining--
			anyFinished = true
			err = multierr.Combine(err, c.End(ctx))
		}
	}

	if p.exitAny && anyFinished {
		for i, c := range p.children {
			if !p.finished[i] {
				p.finished[i] = true
				err = multierr.Combine(err, c.End(ctx))
			}
		}
		p.remaining = 0
	}

	if p.remaining == 0 {
		return Done, err
	}
	return Continue, err
}

// End ends every child, whether or not it already finished.
func (p *Parallel) End(ctx context.Context) error {
	var err error
	for _, c := range p.children {
		err = multierr.Combine(err, c.End(ctx))
	}
	p.remaining = 0
	return err
}
