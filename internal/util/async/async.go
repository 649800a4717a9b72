package async

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// Result is the outcome of one Task.
type Result struct {
	Name string
	Err  error
}

// RunAll executes tasks concurrently and waits for every one of them.
// When limit is positive at most limit tasks run at the same time.
// Results are returned in task order. A task's error never stops the
// others; cancellation is left to the tasks through ctx.
func RunAll(ctx context.Context, tasks []Task, limit int) []Result {
	results := make([]Result, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, task := range tasks {
		results[i].Name = task.Name
		g.Go(func() error {
			results[i].Err = task.Func(ctx)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// RunParallel executes tasks in parallel and returns all failures joined,
// each prefixed with its task name. It waits for all tasks to complete.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "firewall web-ssh", Func: ensureSSHFirewall},
//	    {Name: "placement group web-worker", Func: ensureWorkerGroup},
//	}
//	if err := RunParallel(ctx, tasks, 0); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task, limit int) error {
	var errs []error
	for _, res := range RunAll(ctx, tasks, limit) {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Name, res.Err))
		}
	}
	return errors.Join(errs...)
}
