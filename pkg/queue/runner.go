package queue

import (
	"context"
	"fmt"
	"sync"

	"MacroPipe/pkg/logger"
)

// Task is one unit of asynchronous work. Run does the work; Done receives its
// error (nil on success) exactly once. Panics inside Run are recovered and
// delivered to Done, so a task can never die without its completion branch
// firing. Both fields are required.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
	Done func(err error)
}

// Runner executes submitted tasks, each on its own goroutine. MaxConcurrent
// bounds in-flight tasks when > 0; the default is unbounded.
type Runner struct {
	sem    chan struct{}
	wg     sync.WaitGroup
	logger *logger.Logger
}

// RunnerOption configures Runner.
type RunnerOption func(*Runner)

// WithMaxConcurrent caps concurrently running tasks. Submit still returns
// immediately; excess tasks wait for a slot on their own goroutine.
func WithMaxConcurrent(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.sem = make(chan struct{}, n)
		}
	}
}

// NewRunner creates a task runner.
func NewRunner(lgr *logger.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{logger: lgr}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit schedules the task and returns immediately.
func (r *Runner) Submit(ctx context.Context, t Task) error {
	if t.Run == nil || t.Done == nil {
		return fmt.Errorf("task %q: Run and Done are required", t.Name)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if r.sem != nil {
			r.sem <- struct{}{}
			defer func() { <-r.sem }()
		}

		err := r.run(ctx, t)
		t.Done(err)
	}()
	return nil
}

func (r *Runner) run(ctx context.Context, t Task) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("task %q panicked: %v", t.Name, rec)
			if r.logger != nil {
				r.logger.Error("task panic", logger.String("task", t.Name), logger.Any("panic", rec))
			}
		}
	}()
	return t.Run(ctx)
}

// Wait blocks until every submitted task has completed. Used during shutdown.
func (r *Runner) Wait() {
	r.wg.Wait()
}
