// Package parallel runs independent environment tasks, such as readiness
// probes or process shutdowns, with bounded concurrency.
package parallel

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	// minConcurrency is the minimum number of concurrent tasks.
	minConcurrency = 2
	// maxConcurrencyCap caps concurrency to avoid flooding the nodes under test.
	maxConcurrencyCap = 8
)

// DefaultMaxConcurrency returns the default maximum concurrency based on available CPUs.
func DefaultMaxConcurrency() int64 {
	numCPU := int64(runtime.NumCPU())

	return min(max(numCPU, minConcurrency), maxConcurrencyCap)
}

// Executor provides controlled parallel execution of tasks.
type Executor struct {
	maxConcurrency int64
}

// NewExecutor creates a new parallel executor with the specified max concurrency.
// If maxConcurrency <= 0, DefaultMaxConcurrency() is used.
func NewExecutor(maxConcurrency int64) *Executor {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency()
	}

	return &Executor{maxConcurrency: maxConcurrency}
}

// Task represents a unit of work that can be executed in parallel.
type Task func(ctx context.Context) error

// Execute runs all tasks concurrently and returns the first error,
// canceling the context handed to the remaining tasks.
func (executor *Executor) Execute(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return nil
	}

	if len(tasks) == 1 {
		return tasks[0](ctx)
	}

	sem := semaphore.NewWeighted(executor.maxConcurrency)
	group, groupCtx := errgroup.WithContext(ctx)

	for _, task := range tasks {
		group.Go(func() error {
			acquireErr := sem.Acquire(groupCtx, 1)
			if acquireErr != nil {
				return fmt.Errorf("acquire semaphore: %w", acquireErr)
			}

			defer sem.Release(1)

			return task(groupCtx)
		})
	}

	waitErr := group.Wait()
	if waitErr != nil {
		return fmt.Errorf("parallel execution: %w", waitErr)
	}

	return nil
}

// ExecuteAll runs every task to completion, even when some fail, and joins
// all errors in task order. It is meant for cleanup work.
func (executor *Executor) ExecuteAll(ctx context.Context, tasks ...Task) error {
	errs := make([]error, len(tasks))
	sem := semaphore.NewWeighted(executor.maxConcurrency)

	var group errgroup.Group

	for i, task := range tasks {
		group.Go(func() error {
			acquireErr := sem.Acquire(ctx, 1)
			if acquireErr != nil {
				errs[i] = fmt.Errorf("acquire semaphore: %w", acquireErr)

				return nil
			}

			defer sem.Release(1)

			errs[i] = task(ctx)

			return nil
		})
	}

	_ = group.Wait()

	return errors.Join(errs...)
}
