package syncer

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// TaskError pairs a failed unit of work with its input index.
type TaskError struct {
	Index int
	Err   error
}

// RunBounded executes fn over every item with at most ceiling units in
// flight. All units run to completion regardless of sibling failures;
// failures are collected and returned, never propagated mid-run. Completion
// order is unspecified.
func RunBounded[T any](ctx context.Context, items []T, ceiling int, fn func(index int, item T) error) []TaskError {
	if len(items) == 0 {
		return nil
	}
	if ceiling < 1 {
		ceiling = 1
	}

	sem := semaphore.NewWeighted(int64(ceiling))

	var mu sync.Mutex
	var failures []TaskError
	var wg sync.WaitGroup

	for i, item := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled: record the remaining units as failed
			// rather than silently skipping them.
			mu.Lock()
			for j := i; j < len(items); j++ {
				failures = append(failures, TaskError{Index: j, Err: err})
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(index int, item T) {
			defer wg.Done()
			defer sem.Release(1)
			if err := fn(index, item); err != nil {
				mu.Lock()
				failures = append(failures, TaskError{Index: index, Err: err})
				mu.Unlock()
			}
		}(i, item)
	}

	wg.Wait()
	return failures
}
