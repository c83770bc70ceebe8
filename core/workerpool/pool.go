package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work. It must return promptly once ctx is done.
type Task func(ctx context.Context) error

// Result summarizes one pool run.
type Result struct {
	Completed int
	Failed    int
	// Cancelled tasks were never started because the deadline passed.
	Cancelled int
	TimedOut  bool
	Elapsed   time.Duration
}

// Pool runs tasks with bounded concurrency inside a time budget.
type Pool struct {
	size    int
	timeout time.Duration
	onError func(error)
}

// New creates a pool running at most size tasks at once.
// A non-positive timeout disables the time budget.
func New(size int, timeout time.Duration) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{size: size, timeout: timeout}
}

// OnError registers a callback for failed tasks. It may be called concurrently.
func (p *Pool) OnError(fn func(error)) *Pool {
	p.onError = fn
	return p
}

// Size returns the concurrency bound.
func (p *Pool) Size() int {
	return p.size
}

// Run executes every task and waits for the started ones to return.
// Task failures are isolated: they are counted and never stop other tasks.
// When the budget elapses, pending tasks are skipped and running ones see a
// cancelled context.
func (p *Pool) Run(ctx context.Context, tasks []Task) Result {
	start := time.Now()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var completed, failed, cancelled atomic.Int64
	var g errgroup.Group
	g.SetLimit(p.size)

	for i, task := range tasks {
		if ctx.Err() != nil {
			cancelled.Add(int64(len(tasks) - i))
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				cancelled.Add(1)
				return nil
			}
			if err := task(ctx); err != nil {
				failed.Add(1)
				if p.onError != nil {
					p.onError(err)
				}
				return nil
			}
			completed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return Result{
		Completed: int(completed.Load()),
		Failed:    int(failed.Load()),
		Cancelled: int(cancelled.Load()),
		TimedOut:  errors.Is(ctx.Err(), context.DeadlineExceeded),
		Elapsed:   time.Since(start),
	}
}

// Progress receives one Advance per successfully completed unit of work.
type Progress interface {
	Advance()
}

// NopProgress discards progress.
type NopProgress struct{}

func (NopProgress) Advance() {}
