package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("should return nil for empty input", func(t *testing.T) {
		results := Run(ctx, 4, nil, func(_ context.Context, n int) (int, error) {
			return n, nil
		})

		assert.Nil(t, results)
	})

	t.Run("should keep results aligned with input order", func(t *testing.T) {
		inputs := []int{10, 20, 30, 40, 50}

		results := Run(ctx, 3, inputs, func(_ context.Context, n int) (int, error) {
			return n * 2, nil
		})

		require.Len(t, results, 5)
		for i, r := range results {
			assert.NoError(t, r.Err)
			assert.Equal(t, inputs[i]*2, r.Value)
			assert.Equal(t, i, r.Index)
		}
	})

	t.Run("should record per-item errors without stopping others", func(t *testing.T) {
		inputs := []int{1, 2, 3}

		results := Run(ctx, 2, inputs, func(_ context.Context, n int) (int, error) {
			if n == 2 {
				return 0, fmt.Errorf("item %d failed", n)
			}
			return n, nil
		})

		assert.NoError(t, results[0].Err)
		assert.EqualError(t, results[1].Err, "item 2 failed")
		assert.NoError(t, results[2].Err)
	})

	t.Run("should never exceed the worker bound", func(t *testing.T) {
		var inFlight, peak int64
		var mu sync.Mutex
		gate := make(chan struct{})

		inputs := make([]int, 20)
		go func() {
			close(gate)
		}()

		Run(ctx, 4, inputs, func(_ context.Context, n int) (int, error) {
			<-gate
			current := atomic.AddInt64(&inFlight, 1)
			mu.Lock()
			if current > peak {
				peak = current
			}
			mu.Unlock()
			atomic.AddInt64(&inFlight, -1)
			return n, nil
		})

		assert.LessOrEqual(t, peak, int64(4))
	})

	t.Run("should run sequentially with one worker", func(t *testing.T) {
		var order []int
		var mu sync.Mutex

		Run(ctx, 1, []int{1, 2, 3, 4}, func(_ context.Context, n int) (int, error) {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			return n, nil
		})

		assert.Len(t, order, 4)
	})

	t.Run("should mark unstarted items with context error on cancellation", func(t *testing.T) {
		cancelledCtx, cancel := context.WithCancel(context.Background())
		cancel()

		results := Run(cancelledCtx, 1, []int{1, 2, 3}, func(ctx context.Context, n int) (int, error) {
			return n, ctx.Err()
		})

		for _, r := range results {
			assert.True(t, errors.Is(r.Err, context.Canceled))
		}
	})
}
