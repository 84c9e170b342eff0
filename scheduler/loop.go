// Package scheduler runs the active autonomous routine at a fixed rate.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"

	"github.com/frcrobotics/autonomy/logging"
	"github.com/frcrobotics/autonomy/subsystem"
	"github.com/frcrobotics/autonomy/task"
)

const (
	// DefaultFrequencyHz is the tick rate used when none is configured.
	DefaultFrequencyHz = 50.0
	// MaxFrequencyHz is the highest supported tick rate.
	MaxFrequencyHz = 200.0
)

// ValidateFrequency checks hz is in (0, MaxFrequencyHz].
func ValidateFrequency(hz float64) error {
	if hz <= 0 || hz > MaxFrequencyHz {
		return errors.Errorf("loop frequency must be above 0 and at most %gHz, got %g", MaxFrequencyHz, hz)
	}
	return nil
}

// Status describes what the loop is doing.
type Status struct {
	// Routine is the active routine, or the last one to finish.
	Routine string `json:"routine,omitempty"`
	// Ticks is the number of ticks since the current or last routine started.
	Ticks int64 `json:"ticks"`
	// Exhausted is set once the last routine finished; the drive is stopped every tick after.
	Exhausted bool `json:"exhausted"`
}

// Loop steps one task per tick. When no task is active it stops the drive every tick, so the
// robot never keeps a stale command once a routine is exhausted or abandoned.
type Loop struct {
	drive  subsystem.Drive
	clk    clock.Clock
	logger logging.Logger
	period time.Duration

	mu         sync.Mutex
	active     task.Task
	activeName string
	ticks      int64
	exhausted  bool

	errLog rate.Sometimes
}

// NewLoop returns a loop ticking at frequencyHz that stops drive whenever it is idle.
func NewLoop(drive subsystem.Drive, frequencyHz float64, clk clock.Clock, logger logging.Logger) (*Loop, error) {
	if drive == nil {
		return nil, errors.New("scheduler loop needs a drive to stop")
	}
	if err := ValidateFrequency(frequencyHz); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Loop{
		drive:  drive,
		clk:    clk,
		logger: logger,
		period: time.Duration(float64(time.Second) / frequencyHz),
		errLog: rate.Sometimes{Interval: time.Second},
	}, nil
}

// Period is the time between ticks.
func (l *Loop) Period() time.Duration {
	return l.period
}

// Status returns a snapshot of the loop state.
func (l *Loop) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{Routine: l.activeName, Ticks: l.ticks, Exhausted: l.exhausted}
}

// Start replaces the active task with t, ending the previous one first, and initializes t.
// The returned error is from ending the previous task; t is started regardless.
func (l *Loop) Start(ctx context.Context, name string, t task.Task) error {
	if t == nil {
		return errors.New("cannot start a nil task")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.abandonLocked(ctx)
	l.logger.CInfow(ctx, "starting routine", "routine", name)
	t.Init(ctx)
	l.active = t
	l.activeName = name
	l.ticks = 0
	l.exhausted = false
	return err
}

// Abandon ends the active task, if any, and stops the drive.
func (l *Loop) Abandon(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return multierr.Combine(l.abandonLocked(ctx), l.drive.Stop(ctx))
}

func (l *Loop) abandonLocked(ctx context.Context) error {
	if l.active == nil {
		return nil
	}
	l.logger.CInfow(ctx, "abandoning routine", "routine", l.activeName, "ticks", l.ticks)
	err := l.active.End(ctx)
	l.active = nil
	l.activeName = ""
	if err != nil {
		return errors.Wrap(err, "ending abandoned routine")
	}
	return nil
}

// Tick advances the active task by one step. A finished task is ended and the drive stopped
// in the same tick; with no active task the drive is stopped. Errors are logged, at most once
// a second, and returned, but never end the task.
func (l *Loop) Tick(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.tickLocked(ctx)
	if err != nil {
		l.errLog.Do(func() {
			l.logger.CWarnw(ctx, "scheduler tick failed", "routine", l.activeName, "tick", l.ticks, "error", err)
		})
	}
	return err
}

func (l *Loop) tickLocked(ctx context.Context) error {
	if l.active == nil {
		return l.drive.Stop(ctx)
	}
	l.ticks++
	status, err := l.active.Step(ctx)
	if status != task.Done {
		return err
	}

	l.logger.CInfow(ctx, "routine finished", "routine", l.activeName, "ticks", l.ticks,
		"elapsed", time.Duration(l.ticks)*l.period)
	err = multierr.Combine(err, l.active.End(ctx), l.drive.Stop(ctx))
	l.active = nil
	l.exhausted = true
	return err
}

// Run ticks until ctx is done, then abandons the active task.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clk.Ticker(l.period)
	defer ticker.Stop()

	l.logger.CDebugf(ctx, "running scheduler loop every %s", l.period)
	for {
		select {
		case <-ctx.Done():
			// ctx is canceled, so cleanup gets a fresh one.
			if err := l.Abandon(context.Background()); err != nil {
				l.logger.Warnw("error abandoning routine on shutdown", "error", err)
			}
			return ctx.Err()
		case <-ticker.C:
			// Tick logs its own errors.
			_ = l.Tick(ctx)
		}
	}
}
