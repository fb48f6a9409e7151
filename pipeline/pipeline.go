package pipeline

import (
	"context"
	"sync"
)

// Result pairs one input's output with its error, keyed by the input's
// original position.
type Result[Out any] struct {
	Value Out
	Err   error
	Index int
}

// Run executes fn over every input with at most workers goroutines in
// flight. Results come back indexed by input position, so aggregating them
// in order yields the same outcome as a sequential loop regardless of how
// the workers interleave.
func Run[In, Out any](ctx context.Context, workers int, inputs []In, fn func(ctx context.Context, input In) (Out, error)) []Result[Out] {
	if len(inputs) == 0 {
		return nil
	}

	if workers < 1 {
		workers = 1
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	results := make([]Result[Out], len(inputs))
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(idx int, in In) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = Result[Out]{Err: ctx.Err(), Index: idx}
				return
			}

			if ctx.Err() != nil {
				results[idx] = Result[Out]{Err: ctx.Err(), Index: idx}
				return
			}

			out, err := fn(ctx, in)
			results[idx] = Result[Out]{Value: out, Err: err, Index: idx}
		}(i, input)
	}

	wg.Wait()
	return results
}
