package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/frcrobotics/autonomy/logging"
	subsystemfake "github.com/frcrobotics/autonomy/subsystem/fake"
	"github.com/frcrobotics/autonomy/task"
	"github.com/frcrobotics/autonomy/testutils/inject"
)

func newTestLoop(t *testing.T) (*Loop, *subsystemfake.Drive, *clock.Mock) {
	t.Helper()
	drive := &subsystemfake.Drive{}
	clk := clock.NewMock()
	l, err := NewLoop(drive, DefaultFrequencyHz, clk, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return l, drive, clk
}

func stops(drive *subsystemfake.Drive) int {
	var n int
	for _, cmd := range drive.Commands() {
		if cmd.Stop {
			n++
		}
	}
	return n
}

func TestNewLoop(t *testing.T) {
	logger := logging.NewTestLogger(t)
	drive := &subsystemfake.Drive{}

	for _, hz := range []float64{0, -5, 200.5, 1000} {
		_, err := NewLoop(drive, hz, nil, logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "loop frequency")
	}

	l, err := NewLoop(drive, 200, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, l.Period(), test.ShouldEqual, 5*time.Millisecond)

	l, err = NewLoop(drive, DefaultFrequencyHz, nil, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, l.Period(), test.ShouldEqual, 20*time.Millisecond)

	_, err = NewLoop(nil, DefaultFrequencyHz, nil, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTickIdleStopsDrive(t *testing.T) {
	l, drive, _ := newTestLoop(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		test.That(t, l.Tick(ctx), test.ShouldBeNil)
	}
	test.That(t, stops(drive), test.ShouldEqual, 3)
	test.That(t, l.Status(), test.ShouldResemble, Status{})
}

func TestTickRunsRoutineToExhaustion(t *testing.T) {
	l, drive, _ := newTestLoop(t)
	ctx := context.Background()
	var calls []string
	routine := inject.NewTaskDoneAfter("r", 3, &calls)

	test.That(t, l.Start(ctx, "cross_line", routine), test.ShouldBeNil)
	test.That(t, l.Status(), test.ShouldResemble, Status{Routine: "cross_line"})

	for i := 0; i < 2; i++ {
		test.That(t, l.Tick(ctx), test.ShouldBeNil)
	}
	test.That(t, stops(drive), test.ShouldEqual, 0)

	test.That(t, l.Tick(ctx), test.ShouldBeNil)
	test.That(t, calls, test.ShouldResemble, []string{"r.init", "r.step", "r.step", "r.step", "r.end"})
	test.That(t, stops(drive), test.ShouldEqual, 1)
	test.That(t, l.Status(), test.ShouldResemble, Status{Routine: "cross_line", Ticks: 3, Exhausted: true})

	// every tick after exhaustion stops the drive again and never touches the routine
	for i := 0; i < 5; i++ {
		test.That(t, l.Tick(ctx), test.ShouldBeNil)
	}
	test.That(t, stops(drive), test.ShouldEqual, 6)
	test.That(t, routine.StepCount, test.ShouldEqual, 3)
	test.That(t, routine.EndCount, test.ShouldEqual, 1)
}

func TestStepErrorsDoNotEndRoutine(t *testing.T) {
	l, _, _ := newTestLoop(t)
	ctx := context.Background()
	routine := inject.NewTask("r", nil)
	routine.StepFunc = func(ctx context.Context) (task.Status, error) {
		return task.Continue, errors.New("motor unplugged")
	}
	test.That(t, l.Start(ctx, "r", routine), test.ShouldBeNil)

	for i := 0; i < 4; i++ {
		err := l.Tick(ctx)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "motor unplugged")
	}
	test.That(t, routine.StepCount, test.ShouldEqual, 4)
	test.That(t, routine.EndCount, test.ShouldEqual, 0)
	test.That(t, l.Status().Exhausted, test.ShouldBeFalse)
}

func TestStartEndsPreviousRoutine(t *testing.T) {
	l, _, _ := newTestLoop(t)
	ctx := context.Background()
	var calls []string
	first := inject.NewTask("first", &calls)
	second := inject.NewTask("second", &calls)

	test.That(t, l.Start(ctx, "first", first), test.ShouldBeNil)
	test.That(t, l.Tick(ctx), test.ShouldBeNil)
	test.That(t, l.Start(ctx, "second", second), test.ShouldBeNil)
	test.That(t, l.Tick(ctx), test.ShouldBeNil)

	test.That(t, calls, test.ShouldResemble, []string{
		"first.init", "first.step", "first.end", "second.init", "second.step",
	})
	test.That(t, l.Status(), test.ShouldResemble, Status{Routine: "second", Ticks: 1})

	t.Run("end error is reported but the new routine starts", func(t *testing.T) {
		second.EndFunc = func(ctx context.Context) error { return errors.New("stuck") }
		third := inject.NewTask("third", nil)
		err := l.Start(ctx, "third", third)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "stuck")
		test.That(t, third.InitCount, test.ShouldEqual, 1)
		test.That(t, l.Status().Routine, test.ShouldEqual, "third")
	})

	test.That(t, l.Start(ctx, "nil", nil), test.ShouldNotBeNil)
}

func TestAbandon(t *testing.T) {
	l, drive, _ := newTestLoop(t)
	ctx := context.Background()
	routine := inject.NewTask("r", nil)

	test.That(t, l.Abandon(ctx), test.ShouldBeNil)
	test.That(t, stops(drive), test.ShouldEqual, 1)

	test.That(t, l.Start(ctx, "r", routine), test.ShouldBeNil)
	test.That(t, l.Tick(ctx), test.ShouldBeNil)
	test.That(t, l.Abandon(ctx), test.ShouldBeNil)
	test.That(t, routine.EndCount, test.ShouldEqual, 1)
	test.That(t, stops(drive), test.ShouldEqual, 2)
	test.That(t, l.Status().Routine, test.ShouldEqual, "")

	// the abandoned routine is never stepped again
	test.That(t, l.Tick(ctx), test.ShouldBeNil)
	test.That(t, routine.StepCount, test.ShouldEqual, 1)
	test.That(t, stops(drive), test.ShouldEqual, 3)
}

func TestRun(t *testing.T) {
	l, drive, clk := newTestLoop(t)
	ctx, cancel := context.WithCancel(context.Background())
	routine := inject.NewTask("r", nil)
	test.That(t, l.Start(ctx, "r", routine), test.ShouldBeNil)

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		clk.Add(l.Period())
		test.That(tb, l.Status().Ticks, test.ShouldBeGreaterThanOrEqualTo, 3)
	})

	cancel()
	test.That(t, <-done, test.ShouldEqual, context.Canceled)
	test.That(t, routine.EndCount, test.ShouldEqual, 1)
	last, ok := drive.Last()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, last.Stop, test.ShouldBeTrue)
}
