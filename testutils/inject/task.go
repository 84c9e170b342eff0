// Package inject provides tasks and sensors whose behavior is supplied by the test.
package inject

import (
	"context"

	"github.com/frcrobotics/autonomy/task"
)

// Task is a task.Task whose methods can be replaced. Every call is counted and, when Calls is
// set, appended to it as "<name>.<method>" so tests can assert on ordering across tasks.
type Task struct {
	TaskName string
	InitFunc func(ctx context.Context)
	StepFunc func(ctx context.Context) (task.Status, error)
	EndFunc  func(ctx context.Context) error

	Calls *[]string

	InitCount int
	StepCount int
	EndCount  int
}

var _ task.Task = (*Task)(nil)

// NewTask returns a task that runs forever.
func NewTask(name string, calls *[]string) *Task {
	return &Task{TaskName: name, Calls: calls}
}

// NewTaskDoneAfter returns a task whose n-th step reports Done.
func NewTaskDoneAfter(name string, n int, calls *[]string) *Task {
	t := NewTask(name, calls)
	t.StepFunc = func(ctx context.Context) (task.Status, error) {
		if t.StepCount >= n {
			return task.Done, nil
		}
		return task.Continue, nil
	}
	return t
}

func (t *Task) record(method string) {
	if t.Calls != nil {
		*t.Calls = append(*t.Calls, t.TaskName+"."+method)
	}
}

// Name returns TaskName.
func (t *Task) Name() string {
	return t.TaskName
}

// Init calls the injected InitFunc, if any.
func (t *Task) Init(ctx context.Context) {
	t.InitCount++
	t.record("init")
	if t.InitFunc != nil {
		t.InitFunc(ctx)
	}
}

// Step calls the injected StepFunc, or continues forever.
func (t *Task) Step(ctx context.Context) (task.Status, error) {
	t.StepCount++
	t.record("step")
	if t.StepFunc == nil {
		return task.Continue, nil
	}
	return t.StepFunc(ctx)
}

// End calls the injected EndFunc, if any.
func (t *Task) End(ctx context.Context) error {
	t.EndCount++
	t.record("end")
	if t.EndFunc == nil {
		return nil
	}
	return t.EndFunc(ctx)
}
