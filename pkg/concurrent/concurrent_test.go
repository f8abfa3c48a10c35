package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeusync/crdt/pkg/sequence"
)

func TestConcurrent(t *testing.T) {
	t.Run("runs every element", func(t *testing.T) {
		var sum atomic.Int64
		err := Concurrent(context.Background(), sequence.From([]int{1, 2, 3, 4}), 2, func(_ context.Context, v int) error {
			sum.Add(int64(v))
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, int64(10), sum.Load())
	})

	t.Run("respects the limit", func(t *testing.T) {
		var running, peak atomic.Int32
		err := Concurrent(context.Background(), sequence.From(make([]int, 16)), 3, func(context.Context, int) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			running.Add(-1)
			return nil
		})
		require.NoError(t, err)
		require.LessOrEqual(t, peak.Load(), int32(3))
	})

	t.Run("returns the first error", func(t *testing.T) {
		boom := errors.New("boom")
		err := Concurrent(context.Background(), sequence.From([]int{1, 2, 3}), 1, func(_ context.Context, v int) error {
			if v == 2 {
				return boom
			}
			return nil
		})
		require.ErrorIs(t, err, boom)
	})
}

func TestParallelMap(t *testing.T) {
	out, err := ParallelMap(context.Background(), sequence.From([]int{3, 1, 2}), 2, func(_ context.Context, v int) (int, error) {
		return v * 10, nil
	})
	require.NoError(t, err)
	require.Equal(t, []int{30, 10, 20}, out)

	_, err = ParallelMap(context.Background(), sequence.From([]int{1}), 1, func(context.Context, int) (int, error) {
		return 0, context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)
}
