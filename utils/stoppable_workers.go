package utils

import (
	"context"
	"sync"

	goutils "go.viam.com/utils"
)

// StoppableWorkers is a collection of goroutines sharing one cancelable context. Background
// loops such as the vision receiver and the config watcher run as workers so that a single Stop
// cancels them and waits for them to return.
type StoppableWorkers struct {
	mu         sync.Mutex
	ctx        context.Context
	cancelFunc context.CancelFunc
	workers    sync.WaitGroup
}

// NewStoppableWorkers runs each function in its own goroutine.
func NewStoppableWorkers(funcs ...func(context.Context)) *StoppableWorkers {
	return NewStoppableWorkersWithContext(context.Background(), funcs...)
}

// NewStoppableWorkersWithContext is like NewStoppableWorkers but derives the workers' context
// from parent, so canceling parent also stops the workers.
func NewStoppableWorkersWithContext(parent context.Context, funcs ...func(context.Context)) *StoppableWorkers {
	ctx, cancelFunc := context.WithCancel(parent)
	sw := &StoppableWorkers{ctx: ctx, cancelFunc: cancelFunc}
	sw.Add(funcs...)
	return sw
}

// Add starts one more goroutine per function. Calling Add after Stop does nothing.
func (sw *StoppableWorkers) Add(funcs ...func(context.Context)) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.ctx.Err() != nil {
		return
	}

	sw.workers.Add(len(funcs))
	for _, f := range funcs {
		goutils.PanicCapturingGo(func() {
			defer sw.workers.Done()
			f(sw.ctx)
		})
	}
}

// Stop cancels the workers' context and blocks until every worker has returned. It is safe to
// call more than once.
func (sw *StoppableWorkers) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.cancelFunc()
	sw.workers.Wait()
}

// Context is the context handed to every worker.
func (sw *StoppableWorkers) Context() context.Context {
	return sw.ctx
}
