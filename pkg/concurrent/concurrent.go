package concurrent

import (
	"context"

	"github.com/zeusync/crdt/pkg/sequence"
	"golang.org/x/sync/errgroup"
)

// Concurrent runs action for each element of the iterator in its own
// goroutine, at most limit at a time (no limit when limit <= 0). The first
// error cancels the context handed to the remaining actions and is returned.
func Concurrent[T any](ctx context.Context, i *sequence.Iterator[T], limit int, action func(context.Context, T) error) error {
	errGroup, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		errGroup.SetLimit(limit)
	}
	next, stop := i.Pull()
	defer stop()

	for {
		value, valid := next()
		if !valid {
			break
		}
		if ctx.Err() != nil {
			break
		}

		errGroup.Go(func() error {
			return action(ctx, value)
		})
	}

	return errGroup.Wait()
}

// ParallelMap applies mapFn to each element with at most workers goroutines
// and returns the results in input order.
func ParallelMap[T any, R any](ctx context.Context, i *sequence.Iterator[T], workers int, mapFn func(context.Context, T) (R, error)) ([]R, error) {
	in := i.Collect()
	out := make([]R, len(in))

	err := Concurrent(ctx, sequence.From(indexes(len(in))), workers, func(ctx context.Context, idx int) error {
		r, err := mapFn(ctx, in[idx])
		if err != nil {
			return err
		}
		out[idx] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
