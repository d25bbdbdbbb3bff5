// Package parallel splits index ranges across goroutines.
package parallel

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/marginal/pkg/errors"
)

// Parallelize divides the specified total number (items) according to the number of CPU cores,
// and executes the specified function (fn) in parallel for each range (start, end)
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items
	}

	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of items exceeds the threshold
// If below threshold, normal sequential processing is performed
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, fn)
}

// ParallelizeErr calls fn(ctx, i) for every i in [0, items) using at most
// workers goroutines (runtime.NumCPU() when workers <= 0).
//
// The first error cancels ctx for the remaining items and is returned.
// A panic inside fn is converted into an *errors.PanicError. With a single
// worker items run in order on the calling goroutine.
func ParallelizeErr(ctx context.Context, items, workers int, fn func(ctx context.Context, i int) error) error {
	if items <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	if workers == 1 {
		for i := 0; i < items; i++ {
			if err := ctx.Err(); err != nil {
				return errors.WithStack(err)
			}
			if err := callSafe(ctx, i, fn); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < items; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return callSafe(gctx, i, fn)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// the caller's context may have been cancelled before any item failed
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func callSafe(ctx context.Context, i int, fn func(ctx context.Context, i int) error) (err error) {
	defer errors.Recover(&err, "parallel worker")
	return fn(ctx, i)
}
