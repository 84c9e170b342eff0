package task_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/frcrobotics/autonomy/task"
	"github.com/frcrobotics/autonomy/testutils/inject"
)

func TestSequence(t *testing.T) {
	ctx := context.Background()
	var calls []string
	a := inject.NewTaskDoneAfter("a", 2, &calls)
	b := inject.NewTaskDoneAfter("b", 1, &calls)
	c := inject.NewTaskDoneAfter("c", 2, &calls)
	seq := task.NewSequence("center", a, b, c)
	test.That(t, seq.Len(), test.ShouldEqual, 3)

	seq.Init(ctx)
	// Children are initialized lazily.
	test.That(t, calls, test.ShouldBeEmpty)

	status, err := seq.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, task.Continue)
	test.That(t, seq.Active(), test.ShouldEqual, a)

	// a finishes, b starts and finishes on its first step, c starts in the same tick.
	status, err = seq.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, task.Continue)
	test.That(t, seq.Active(), test.ShouldEqual, c)
	test.That(t, calls, test.ShouldResemble, []string{
		"a.init", "a.step", "a.step", "a.end",
		"b.init", "b.step", "b.end",
		"c.init", "c.step",
	})

	status, err = seq.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, task.Done)
	test.That(t, seq.Active(), test.ShouldBeNil)
	test.That(t, c.EndCount, test.ShouldEqual, 1)

	// Nothing is active, so End has nothing to stop.
	test.That(t, seq.End(ctx), test.ShouldBeNil)
	test.That(t, c.EndCount, test.ShouldEqual, 1)
}

func TestSequenceEndAbandonsActive(t *testing.T) {
	ctx := context.Background()
	a := inject.NewTask("a", nil)
	b := inject.NewTask("b", nil)
	seq := task.NewSequence("same_side", a, b)
	seq.Init(ctx)

	test.That(t, seq.End(ctx), test.ShouldBeNil)
	test.That(t, a.EndCount, test.ShouldEqual, 0)

	_, err := seq.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, seq.End(ctx), test.ShouldBeNil)
	test.That(t, a.EndCount, test.ShouldEqual, 1)
	test.That(t, b.InitCount, test.ShouldEqual, 0)
	test.That(t, b.EndCount, test.ShouldEqual, 0)
}

func TestSequenceErrorsDoNotAbort(t *testing.T) {
	ctx := context.Background()
	a := inject.NewTaskDoneAfter("a", 1, nil)
	a.EndFunc = func(ctx context.Context) error { return errors.New("stop failed") }
	b := inject.NewTask("b", nil)
	seq := task.NewSequence("cross_line", a, b)
	seq.Init(ctx)

	status, err := seq.Step(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "stop failed")
	test.That(t, status, test.ShouldEqual, task.Continue)
	test.That(t, b.StepCount, test.ShouldEqual, 1)
}

func TestEmptySequence(t *testing.T) {
	ctx := context.Background()
	seq := task.NewSequence("empty")
	seq.Init(ctx)
	status, err := seq.Step(ctx)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, status, test.ShouldEqual, task.Done)
	test.That(t, seq.End(ctx), test.ShouldBeNil)
}
