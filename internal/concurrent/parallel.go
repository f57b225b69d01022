package concurrent

import (
	"context"
	"sync"
)

// Result is the outcome of one Task, tagged with its position in the input.
type Result[T any] struct {
	Value T
	Error error
	Index int
}

// Task is a unit of work run by ParallelExecute.
type Task[T any] func(ctx context.Context) (T, error)

// ParallelExecute starts every task at once and blocks until all of them
// have returned. Failures do not cancel the remaining tasks; results keep
// the order of tasks.
func ParallelExecute[T any](ctx context.Context, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func() {
			defer wg.Done()
			value, err := task(ctx)
			results[i] = Result[T]{Value: value, Error: err, Index: i}
		}()
	}
	wg.Wait()

	return results
}

// Join runs fns in parallel and returns once every one of them has settled.
// The error is the one of the lowest-indexed failing function.
// Each fn is expected to store its own result, typically in a captured variable.
func Join(ctx context.Context, fns ...func(ctx context.Context) error) error {
	tasks := make([]Task[struct{}], len(fns))
	for i, fn := range fns {
		tasks[i] = func(ctx context.Context) (struct{}, error) {
			return struct{}{}, fn(ctx)
		}
	}

	return FirstError(ParallelExecute(ctx, tasks))
}

// FirstError returns the error of the lowest-indexed failed result.
func FirstError[T any](results []Result[T]) error {
	for _, r := range results {
		if r.Error != nil {
			return r.Error
		}
	}

	return nil
}
