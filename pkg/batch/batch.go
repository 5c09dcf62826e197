// Package batch partitions large item sets into fixed-size batches and runs
// a bounded number of them concurrently, isolating failures per batch and
// giving every failed batch exactly one sequential retry.
package batch

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Config controls batch partitioning and concurrency. Size is the number of
// items per batch; Concurrency is how many batches run together in one wave.
type Config struct {
	Size        int `toml:"size"`
	Concurrency int `toml:"concurrency"`
}

// Runner processes one batch of items, returning one result per item.
// A single Runner call covers all items in the batch.
type Runner[T, R any] func(ctx context.Context, items []T) ([]R, error)

// Failure reports a batch that failed after its retry, with its original
// items intact so the caller loses nothing.
type Failure[T any] struct {
	Batch int
	Items []T
	Err   error
}

// Result aggregates per-item results in input order along with the
// partial-failure report.
type Result[T, R any] struct {
	Results  []R
	Failures []Failure[T]
}

// Failed reports whether any batch remained failed after the retry pass.
func (r *Result[T, R]) Failed() bool {
	return len(r.Failures) > 0
}

// Run partitions items into ⌈N/Size⌉ batches and executes them in waves of
// up to Concurrency. Each wave is launched together and awaited as a group
// before the next begins, bounding peak concurrent load while overlapping
// latency. A failing batch never affects its wave siblings; all failed
// batches get one sequential retry after every wave has finished.
func Run[T, R any](ctx context.Context, items []T, cfg Config, fn Runner[T, R]) Result[T, R] {
	if len(items) == 0 {
		return Result[T, R]{Results: []R{}}
	}

	if cfg.Size < 1 {
		cfg.Size = 1
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	batches := partition(items, cfg.Size)
	outputs := make([][]R, len(batches))
	failures := make([]error, len(batches))

	for wave := 0; wave < len(batches); wave += cfg.Concurrency {
		end := min(wave+cfg.Concurrency, len(batches))

		var g errgroup.Group
		for i := wave; i < end; i++ {
			g.Go(func() error {
				outputs[i], failures[i] = runBatch(ctx, batches[i], fn)
				return nil
			})
		}
		g.Wait()
	}

	for i, err := range failures {
		if err == nil {
			continue
		}
		outputs[i], failures[i] = runBatch(ctx, batches[i], fn)
	}

	result := Result[T, R]{Results: make([]R, 0, len(items))}
	for i, err := range failures {
		if err != nil {
			result.Failures = append(result.Failures, Failure[T]{
				Batch: i,
				Items: batches[i],
				Err:   err,
			})
			continue
		}
		result.Results = append(result.Results, outputs[i]...)
	}

	return result
}

func runBatch[T, R any](ctx context.Context, items []T, fn Runner[T, R]) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fn(ctx, items)
}

func partition[T any](items []T, size int) [][]T {
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		batches = append(batches, items[start:min(start+size, len(items))])
	}
	return batches
}
